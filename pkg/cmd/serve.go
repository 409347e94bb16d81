package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/docflow/pkg/app"
	"github.com/yeisme/docflow/pkg/configs"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API and background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, configPath)
			if err != nil {
				return err
			}

			return a.Run(ctx)
		},
	}

	reconcileCmd = &cobra.Command{
		Use:   "reconcile",
		Short: "run one orphaned blob reconciliation pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := app.NewApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer a.Close(context.Background()) //nolint:errcheck

			cfg := configs.GetConfig().Workflow
			rep, err := a.Service().ReconcileOrphans(ctx, cfg.OrphanReconcileBatch, cfg.OrphanGrace())
			if err != nil {
				return err
			}

			cmd.Printf("scanned=%d deleted=%d referenced=%d failed=%d\n", rep.Scanned, rep.Deleted, rep.Referenced, rep.Failed)

			return nil
		},
	}
)

// registerServeCommands 注册服务与任务相关命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reconcileCmd)
}
