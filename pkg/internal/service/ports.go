package service

import (
	"context"
	"io"
	"time"

	"github.com/yeisme/docflow/pkg/internal/model"
)

// BlobStore 文档原件存储.
type BlobStore interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, path string) error
	// SignedURL 返回单个对象的限时访问地址.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// MetadataStore 文档元数据存储.
//
// Get 与 Delete 在文档不存在或不属于 projectID 时返回 *NotFoundError.
// ListByProject 按 uploadedAt 倒序返回.
type MetadataStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, projectID, id string) error
	Get(ctx context.Context, projectID, id string) (*model.Document, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Document, error)
}

// OrphanLedger 记录已写入但未被元数据引用的 blob，供后台清理.
type OrphanLedger interface {
	RecordOrphan(ctx context.Context, orphan *model.OrphanBlob) error
	// PendingOrphans 返回创建时间早于 before 且尚未清理的记录.
	PendingOrphans(ctx context.Context, before time.Time, limit int) ([]model.OrphanBlob, error)
	MarkReconciled(ctx context.Context, id uint, at time.Time) error
	PathReferenced(ctx context.Context, storagePath string) (bool, error)
}

// Clock 便于测试注入时间.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }
