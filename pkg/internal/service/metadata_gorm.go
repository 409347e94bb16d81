package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/docflow/pkg/internal/model"
)

// GormMetadataStore 基于 GORM 的 MetadataStore 与 OrphanLedger.
type GormMetadataStore struct {
	db *gorm.DB
}

// NewGormMetadataStore 构造元数据存储，调用方负责迁移表结构.
func NewGormMetadataStore(db *gorm.DB) *GormMetadataStore {
	return &GormMetadataStore{db: db}
}

func (s *GormMetadataStore) Create(ctx context.Context, doc *model.Document) error {
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return &MetadataError{Op: "create", Err: err}
	}

	return nil
}

// Update 整行保存，跨会话并发编辑以最后一次写入为准.
func (s *GormMetadataStore) Update(ctx context.Context, doc *model.Document) error {
	res := s.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("id = ? AND project_id = ?", doc.ID, doc.ProjectID).
		Select("*").
		Omit("id", "project_id", "storage_path", "uploaded_at", "created_at").
		Updates(doc)
	if res.Error != nil {
		return &MetadataError{Op: "update", Err: res.Error}
	}

	if res.RowsAffected == 0 {
		return &NotFoundError{ID: doc.ID}
	}

	return nil
}

func (s *GormMetadataStore) Delete(ctx context.Context, projectID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", id, projectID).
		Delete(&model.Document{})
	if res.Error != nil {
		return &MetadataError{Op: "delete", Err: res.Error}
	}

	if res.RowsAffected == 0 {
		return &NotFoundError{ID: id}
	}

	return nil
}

func (s *GormMetadataStore) Get(ctx context.Context, projectID, id string) (*model.Document, error) {
	var doc model.Document

	err := s.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", id, projectID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{ID: id}
	}

	if err != nil {
		return nil, &MetadataError{Op: "get", Err: err}
	}

	return &doc, nil
}

func (s *GormMetadataStore) ListByProject(ctx context.Context, projectID string) ([]*model.Document, error) {
	var docs []*model.Document

	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("uploaded_at DESC").
		Order("id").
		Find(&docs).Error
	if err != nil {
		return nil, &MetadataError{Op: "list", Err: err}
	}

	return docs, nil
}

func (s *GormMetadataStore) RecordOrphan(ctx context.Context, orphan *model.OrphanBlob) error {
	if err := s.db.WithContext(ctx).Create(orphan).Error; err != nil {
		return &MetadataError{Op: "record orphan", Err: err}
	}

	return nil
}

func (s *GormMetadataStore) PendingOrphans(ctx context.Context, before time.Time, limit int) ([]model.OrphanBlob, error) {
	var orphans []model.OrphanBlob

	err := s.db.WithContext(ctx).
		Where("reconciled_at IS NULL AND created_at <= ?", before).
		Order("id").
		Limit(limit).
		Find(&orphans).Error
	if err != nil {
		return nil, &MetadataError{Op: "list orphans", Err: err}
	}

	return orphans, nil
}

func (s *GormMetadataStore) MarkReconciled(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&model.OrphanBlob{}).
		Where("id = ?", id).
		Update("reconciled_at", at).Error
	if err != nil {
		return &MetadataError{Op: "mark reconciled", Err: err}
	}

	return nil
}

func (s *GormMetadataStore) PathReferenced(ctx context.Context, storagePath string) (bool, error) {
	var n int64

	err := s.db.WithContext(ctx).
		Model(&model.Document{}).
		Where("storage_path = ?", storagePath).
		Count(&n).Error
	if err != nil {
		return false, &MetadataError{Op: "check path", Err: err}
	}

	return n > 0, nil
}
