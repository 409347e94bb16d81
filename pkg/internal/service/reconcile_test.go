package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/internal/model"
)

func TestReconcileOrphans(t *testing.T) {
	f := newFixture(t)
	f.meta.failCreate = "lost"

	sum, err := f.svc.Upload(context.Background(), uploader, UploadRequest{
		ProjectID: testProject,
		Type:      "Photo",
		Files:     []UploadFile{file("lost.pdf", "application/pdf", 8)},
	}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Failed)
	require.Len(t, f.meta.orphans, 1)

	lost := f.meta.orphans[0].StoragePath
	require.True(t, f.blobs.has(lost))

	// 已被文档引用的路径只标记，不删除
	kept := f.seed(t, uploader, "Photo", "kept.pdf", false, false)
	keptPath := f.meta.get(kept).StoragePath
	require.NoError(t, f.meta.RecordOrphan(context.Background(), &model.OrphanBlob{
		StoragePath: keptPath, ProjectID: testProject, CreatedAt: f.clock.Now(),
	}))

	rep, err := f.svc.ReconcileOrphans(context.Background(), 10, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, rep.Scanned, "orphans inside the grace period are left alone")

	rep, err = f.svc.ReconcileOrphans(context.Background(), 10, 0)
	require.NoError(t, err)

	assert.Equal(t, ReconcileReport{Scanned: 2, Deleted: 1, Referenced: 1}, rep)
	assert.False(t, f.blobs.has(lost))
	assert.True(t, f.blobs.has(keptPath))

	rep, err = f.svc.ReconcileOrphans(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Zero(t, rep.Scanned, "reconciled orphans are not revisited")
}

func TestReconcileKeepsFailedOrphansPending(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.meta.RecordOrphan(context.Background(), &model.OrphanBlob{
		StoragePath: "projects/p1/x/a.pdf", ProjectID: testProject, CreatedAt: f.clock.Now(),
	}))
	f.blobs.failDel = true

	rep, err := f.svc.ReconcileOrphans(context.Background(), 10, 0)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, 1, rep.Failed)
	assert.Nil(t, f.meta.orphans[0].ReconciledAt)

	f.blobs.failDel = false

	rep, err = f.svc.ReconcileOrphans(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Deleted)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewValidationError("name", "required"), http.StatusBadRequest},
		{&AuthorizationError{ActorID: "u", Action: ActionApprove}, http.StatusForbidden},
		{&NotFoundError{ID: "x"}, http.StatusNotFound},
		{&InvalidTransitionError{DocumentID: "x", Action: ActionApprove, From: "approved"}, http.StatusConflict},
		{&StorageError{Op: "put", Path: "p", Err: errors.New("down")}, http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", &MetadataError{Op: "update", Err: errors.New("down")}), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), "%v", tc.err)
	}
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(&StorageError{Op: "delete", Path: "a/b", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.Contains(t, err.Error(), "a/b")
}
