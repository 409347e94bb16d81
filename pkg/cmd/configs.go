package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/rule"
)

var (
	// config 子命令.
	configCmd = &cobra.Command{
		Use:               "config",
		Short:             "config subcommands",
		PersistentPreRunE: loadConfig,
	}

	// 打印当前使用的配置文件路径.
	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetViper().ConfigFileUsed()
			if cfg == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and env only)")
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg)
		},
	}

	// 以 JSON 打印生效的配置.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				configs.GetViper().Debug()
			}

			b, err := json.MarshalIndent(configs.GetConfig(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// checkCmd 按 rule 标签校验生效配置中正在使用的部分.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "validate the effective config",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()

		sections := map[string]any{
			"server":     cfg.Server,
			"db":         cfg.DB,
			"upload":     cfg.Upload,
			"workflow":   cfg.Workflow,
			"rate_limit": cfg.RateLimit,
			"log":        cfg.Log,
		}
		if cfg.Tracing.Enabled {
			sections["tracing"] = cfg.Tracing
		}

		failed := 0

		for name, section := range sections {
			for field, msg := range rule.Errors(rule.ValidateStruct(section)) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s.%s %s\n", name, field, msg)
				failed++
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d config value(s) invalid", failed)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "config ok")

		return nil
	},
}

// registerConfigsCommands 注册配置相关子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)
	configCmd.AddCommand(checkCmd)

	rootCmd.AddCommand(configCmd)
}
