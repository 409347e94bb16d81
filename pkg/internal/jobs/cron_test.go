package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/scheduler"
)

type fakeReconciler struct {
	batch int
	grace time.Duration
	err   error
}

func (f *fakeReconciler) ReconcileOrphans(_ context.Context, batch int, grace time.Duration) (service.ReconcileReport, error) {
	f.batch, f.grace = batch, grace
	return service.ReconcileReport{Scanned: 1, Deleted: 1}, f.err
}

func TestOrphanReconcileTask(t *testing.T) {
	rec := &fakeReconciler{}
	cfg := configs.WorkflowConfig{OrphanReconcileBatch: 25, OrphanGraceMinutes: 10}

	require.NoError(t, OrphanReconcileTask(rec, cfg)(context.Background()))
	assert.Equal(t, 25, rec.batch)
	assert.Equal(t, 10*time.Minute, rec.grace)

	rec.err = errors.New("bucket offline")
	assert.EqualError(t, OrphanReconcileTask(rec, cfg)(context.Background()), "bucket offline")
}

func TestRegisterCronJobs(t *testing.T) {
	sched, err := scheduler.NewScheduler()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sched.Stop() })

	assert.Error(t, RegisterCronJobs(nil, &fakeReconciler{}, configs.WorkflowConfig{}))
	assert.Error(t, RegisterCronJobs(sched, nil, configs.WorkflowConfig{}))

	require.NoError(t, RegisterCronJobs(sched, &fakeReconciler{}, configs.WorkflowConfig{}))
	assert.Empty(t, sched.GetJobInfos(), "empty cron disables the job")

	require.NoError(t, RegisterCronJobs(sched, &fakeReconciler{}, configs.WorkflowConfig{OrphanReconcileCron: "*/30 * * * *"}))

	infos := sched.GetJobInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, JobOrphanReconcile, infos[0].Name)
}
