package queue

import "time"

// EventHeader 所有事件的通用头部.
type EventHeader struct {
	// Topic 冗余记录主题，便于离线转储后定位来源.
	Topic      string    `json:"topic"`
	TraceID    string    `json:"trace_id,omitempty"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Version    string    `json:"version,omitempty"`
}

// Message 统一消息封装.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// DocumentRef 事件中携带的文档快照.
type DocumentRef struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Name            string    `json:"name"`
	Type            string    `json:"type"`
	StoragePath     string    `json:"storage_path"`
	ContentType     string    `json:"content_type,omitempty"`
	FileSizeBytes   int64     `json:"file_size_bytes"`
	ApprovalStatus  string    `json:"approval_status"`
	ReviewStatus    string    `json:"review_status,omitempty"`
	VisibilityLevel string    `json:"visibility_level"`
	UploadedBy      string    `json:"uploaded_by"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

// DocumentEventPayload 文档生命周期事件负载.
type DocumentEventPayload struct {
	Document DocumentRef `json:"document"`
	ActorID  string      `json:"actor_id"`
	// Reason 驳回原因或复核意见.
	Reason string `json:"reason,omitempty"`
	// Changes 编辑事件中被修改的字段名.
	Changes []string `json:"changes,omitempty"`
}

// BlobOrphanedPayload 孤儿 blob 事件负载.
type BlobOrphanedPayload struct {
	ProjectID   string `json:"project_id"`
	StoragePath string `json:"storage_path"`
	Reason      string `json:"reason"`
}
