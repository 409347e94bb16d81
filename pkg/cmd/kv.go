package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/docflow/pkg/cache"
	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/service"
	kv "github.com/yeisme/docflow/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Document list cache (key-value) commands",
		Aliases: []string{"keyvalue", "cache"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	kvPurgeCmd = &cobra.Command{
		Use:     "purge [project]",
		Short:   "drop cached document lists for one project or all projects",
		Args:    cobra.MaximumNArgs(1),
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := kv.New(cmd.Context(), &configs.GetConfig().KV)
			if err != nil {
				return err
			}
			defer client.Close() //nolint:errcheck

			project := ""
			if len(args) == 1 {
				project = args[0]
			}

			if err := cache.NewCache(client).InvalidatePrefix(cmd.Context(), service.ListCachePrefix(project)); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "document list cache purged")

			return nil
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvPurgeCmd)
}
