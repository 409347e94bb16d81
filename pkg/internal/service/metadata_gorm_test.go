package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeisme/docflow/pkg/internal/model"
)

func newGormStore(t *testing.T) *GormMetadataStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "docflow.db")), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return NewGormMetadataStore(db)
}

func gormDoc(id, name string, uploaded time.Time) *model.Document {
	return &model.Document{
		ID:               id,
		ProjectID:        testProject,
		Name:             name,
		StoragePath:      "projects/p1/" + id + "/" + name,
		Type:             "Contract",
		ContentType:      "application/pdf",
		FileSizeBytes:    42,
		UploadedByUserID: uploader.ID,
		UploadedAt:       uploaded,
		ApprovalStatus:   model.ApprovalPending,
		VisibilityLevel:  model.VisibilityInternal,
		WorkflowStage:    model.StagePendingApproval,
	}
}

func TestGormMetadataStoreCRUD(t *testing.T) {
	s := newGormStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, gormDoc("d1", "old.pdf", t0)))
	require.NoError(t, s.Create(ctx, gormDoc("d2", "new.pdf", t0.Add(time.Hour))))

	dup := gormDoc("d3", "old.pdf", t0)
	dup.StoragePath = "projects/p1/d1/old.pdf"
	assert.ErrorIs(t, s.Create(ctx, dup), ErrMetadata, "storage path is unique")

	docs, err := s.ListByProject(ctx, testProject)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID, "newest first")

	_, err = s.Get(ctx, "other-project", "d1")
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := s.Get(ctx, testProject, "d1")
	require.NoError(t, err)

	now := t0.Add(2 * time.Hour)
	doc.ApprovalStatus = model.ApprovalApproved
	doc.WorkflowStage = model.StageApproved
	doc.VisibilityLevel = model.VisibilityPublic
	doc.ApprovedByUserID = &reviewer.ID
	doc.ApprovedAt = &now
	doc.ReviewStatus = model.ReviewUnreviewed.Ptr()
	doc.StoragePath = "tampered"
	require.NoError(t, s.Update(ctx, doc))

	got, err := s.Get(ctx, testProject, "d1")
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, model.VisibilityPublic, got.VisibilityLevel)
	assert.Equal(t, reviewer.ID, *got.ApprovedByUserID)
	assert.Equal(t, model.ReviewUnreviewed, got.Review())
	assert.Equal(t, "projects/p1/d1/old.pdf", got.StoragePath, "storage path is immutable")

	assert.ErrorIs(t, s.Update(ctx, gormDoc("missing", "x.pdf", t0)), ErrNotFound)

	require.NoError(t, s.Delete(ctx, testProject, "d1"))
	assert.ErrorIs(t, s.Delete(ctx, testProject, "d1"), ErrNotFound)
}

func TestGormOrphanLedger(t *testing.T) {
	s := newGormStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Create(ctx, gormDoc("d1", "a.pdf", t0)))

	ref, err := s.PathReferenced(ctx, "projects/p1/d1/a.pdf")
	require.NoError(t, err)
	assert.True(t, ref)

	ref, err = s.PathReferenced(ctx, "projects/p1/nope")
	require.NoError(t, err)
	assert.False(t, ref)

	old := &model.OrphanBlob{StoragePath: "projects/p1/x/old.pdf", ProjectID: testProject, CreatedAt: t0}
	fresh := &model.OrphanBlob{StoragePath: "projects/p1/y/new.pdf", ProjectID: testProject, CreatedAt: t0.Add(time.Hour)}
	require.NoError(t, s.RecordOrphan(ctx, old))
	require.NoError(t, s.RecordOrphan(ctx, fresh))
	require.NotZero(t, old.ID)

	pending, err := s.PendingOrphans(ctx, t0.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, old.StoragePath, pending[0].StoragePath)

	require.NoError(t, s.MarkReconciled(ctx, old.ID, t0.Add(2*time.Hour)))

	pending, err = s.PendingOrphans(ctx, t0.Add(3*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh.ID, pending[0].ID)
}
