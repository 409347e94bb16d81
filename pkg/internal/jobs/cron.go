// Package jobs 注册 docflow 的后台定时任务.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/log"
	"github.com/yeisme/docflow/pkg/scheduler"
)

// Reconciler 清理孤儿 blob，由 service.DocumentService 实现.
type Reconciler interface {
	ReconcileOrphans(ctx context.Context, batch int, grace time.Duration) (service.ReconcileReport, error)
}

// RegisterCronJobs 注册孤儿 blob 对账任务；cron 表达式为空时不注册.
func RegisterCronJobs(sched *scheduler.Scheduler, rec Reconciler, cfg configs.WorkflowConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if rec == nil {
		return errors.New("reconciler is nil")
	}

	if cfg.OrphanReconcileCron == "" {
		log.Logger().Info().Msg("orphan reconciliation disabled")
		return nil
	}

	return sched.AddCron(JobOrphanReconcile, cfg.OrphanReconcileCron, OrphanReconcileTask(rec, cfg), context.Background())
}

// OrphanReconcileTask 返回一次对账的任务体.
func OrphanReconcileTask(rec Reconciler, cfg configs.WorkflowConfig) scheduler.Task {
	return func(ctx context.Context) error {
		l := log.Component("jobs").With().Str("job", JobOrphanReconcile).Logger()

		rep, err := rec.ReconcileOrphans(ctx, cfg.OrphanReconcileBatch, cfg.OrphanGrace())
		if err != nil {
			l.Error().Err(err).Int("failed", rep.Failed).Msg("orphan reconciliation incomplete")
			return err
		}

		if rep.Scanned > 0 {
			l.Info().Int("deleted", rep.Deleted).Int("referenced", rep.Referenced).Msg("orphans reconciled")
		}

		return nil
	}
}
