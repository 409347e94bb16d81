package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/model"
	nlog "github.com/yeisme/docflow/pkg/log"
	"github.com/yeisme/docflow/pkg/queue"
)

// EventPublisher 发布文档领域事件；发布失败只记录日志，不影响主流程.
type EventPublisher interface {
	DocumentEvent(ctx context.Context, topic string, doc *model.Document, actorID, reason string, changes ...string)
	BlobOrphaned(ctx context.Context, projectID, storagePath, reason string)
}

// NoopEvents 丢弃所有事件.
type NoopEvents struct{}

func (NoopEvents) DocumentEvent(context.Context, string, *model.Document, string, string, ...string) {
}

func (NoopEvents) BlobOrphaned(context.Context, string, string, string) {}

// WatermillEvents 通过 watermill Publisher 发布事件，按 configs.EventsConfig 过滤主题.
type WatermillEvents struct {
	pub message.Publisher
	cfg configs.EventsConfig
}

// NewWatermillEvents 构造事件发布器；pub 为 nil 或事件总开关关闭时返回 NoopEvents.
func NewWatermillEvents(pub message.Publisher, cfg configs.EventsConfig) EventPublisher {
	if pub == nil || !cfg.Enabled {
		return NoopEvents{}
	}

	return &WatermillEvents{pub: pub, cfg: cfg}
}

func (e *WatermillEvents) enabled(topic string) bool {
	d := e.cfg.Document

	switch topic {
	case queue.TopicDocumentUploaded:
		return d.Uploaded
	case queue.TopicDocumentApproved:
		return d.Approved
	case queue.TopicDocumentRejected:
		return d.Rejected
	case queue.TopicDocumentReviewed:
		return d.Reviewed
	case queue.TopicDocumentUpdated:
		return d.Updated
	case queue.TopicDocumentDeleted:
		return d.Deleted
	case queue.TopicBlobOrphaned:
		return d.BlobOrphans
	}

	return false
}

func (e *WatermillEvents) headerOpts(ctx context.Context) []queue.HeaderOption {
	opts := []queue.HeaderOption{queue.WithProducer(e.cfg.Producer)}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	return opts
}

func (e *WatermillEvents) DocumentEvent(ctx context.Context, topic string, doc *model.Document,
	actorID, reason string, changes ...string,
) {
	if !e.enabled(topic) {
		return
	}

	payload := queue.DocumentEventPayload{
		Document: documentRef(doc),
		ActorID:  actorID,
		Reason:   reason,
		Changes:  changes,
	}

	if err := queue.PublishDocumentEvent(e.pub, topic, payload, e.headerOpts(ctx)...); err != nil {
		nlog.Logger().Warn().Err(err).
			Str("topic", topic).
			Str("document_id", doc.ID).
			Msg("publish document event failed")
	}
}

func (e *WatermillEvents) BlobOrphaned(ctx context.Context, projectID, storagePath, reason string) {
	if !e.enabled(queue.TopicBlobOrphaned) {
		return
	}

	payload := queue.BlobOrphanedPayload{ProjectID: projectID, StoragePath: storagePath, Reason: reason}

	if err := queue.PublishBlobOrphaned(e.pub, payload, e.headerOpts(ctx)...); err != nil {
		nlog.Logger().Warn().Err(err).Str("storage_path", storagePath).Msg("publish orphan event failed")
	}
}

func documentRef(doc *model.Document) queue.DocumentRef {
	return queue.DocumentRef{
		ID:              doc.ID,
		ProjectID:       doc.ProjectID,
		Name:            doc.Name,
		Type:            doc.Type,
		StoragePath:     doc.StoragePath,
		ContentType:     doc.ContentType,
		FileSizeBytes:   doc.FileSizeBytes,
		ApprovalStatus:  string(doc.ApprovalStatus),
		ReviewStatus:    string(doc.Review()),
		VisibilityLevel: string(doc.VisibilityLevel),
		UploadedBy:      doc.UploadedByUserID,
		UploadedAt:      doc.UploadedAt,
	}
}
