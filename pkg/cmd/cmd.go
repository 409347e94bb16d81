// Package cmd 提供 docflow 命令行：serve 启动服务，其余子命令用于运维与排查.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/docflow/pkg/configs"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "docflow",
		Short:         "Project document upload, approval and visibility service",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCmd.RunE(cmd, args)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose config output")

	registerServeCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerPolicyCommands()
}

// loadConfig 供不启动服务的子命令加载配置.
func loadConfig(cmd *cobra.Command, _ []string) error {
	return configs.InitConfig(configPath)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
