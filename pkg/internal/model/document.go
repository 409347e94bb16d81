package model

import (
	"path/filepath"
	"strings"
	"time"
)

// ApprovalStatus 文档审批状态，任意时刻只取一个值.
type ApprovalStatus string

const (
	ApprovalPending      ApprovalStatus = "pending"
	ApprovalApproved     ApprovalStatus = "approved"
	ApprovalRejected     ApprovalStatus = "rejected"
	ApprovalAutoApproved ApprovalStatus = "auto_approved"
	ApprovalAvailable    ApprovalStatus = "available"
)

// Valid 判断是否为已知状态.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected, ApprovalAutoApproved, ApprovalAvailable:
		return true
	}

	return false
}

// Stage 返回与审批状态对应的工作流阶段.
func (s ApprovalStatus) Stage() WorkflowStage {
	switch s {
	case ApprovalPending:
		return StagePendingApproval
	case ApprovalApproved:
		return StageApproved
	case ApprovalRejected:
		return StageRejected
	case ApprovalAutoApproved:
		return StageAutoApproved
	default:
		return StageAvailable
	}
}

// ReviewStatus 非阻塞的复核状态；类型不需要复核时字段为空.
type ReviewStatus string

const (
	ReviewUnreviewed ReviewStatus = "unreviewed"
	ReviewReviewed   ReviewStatus = "reviewed"
)

// Ptr 返回指针，便于给可选字段赋值.
func (s ReviewStatus) Ptr() *ReviewStatus { return &s }

// VisibilityLevel 受众层级.
type VisibilityLevel string

const (
	VisibilityInternal    VisibilityLevel = "internal"
	VisibilityContractors VisibilityLevel = "contractors"
	VisibilityCustomers   VisibilityLevel = "customers"
	VisibilityPublic      VisibilityLevel = "public"
)

// Valid 判断是否为已知层级.
func (v VisibilityLevel) Valid() bool {
	switch v {
	case VisibilityInternal, VisibilityContractors, VisibilityCustomers, VisibilityPublic:
		return true
	}

	return false
}

// WorkflowStage 展示用的阶段标签，跟随 ApprovalStatus.
type WorkflowStage string

const (
	StagePendingApproval WorkflowStage = "pending_approval"
	StageApproved        WorkflowStage = "approved"
	StageRejected        WorkflowStage = "rejected"
	StageAutoApproved    WorkflowStage = "auto_approved"
	StageAvailable       WorkflowStage = "available"
)

// Document 项目文档元数据，blob 本体位于对象存储的 StoragePath.
type Document struct {
	ID        string `gorm:"primaryKey;size:36"        json:"id"`
	ProjectID string `gorm:"size:128;index;not null"   json:"project_id"`
	Name      string `gorm:"size:512;index"            json:"name"`
	// StoragePath 创建后不可变
	StoragePath   string `gorm:"size:768;uniqueIndex;not null" json:"storage_path"`
	Type          string `gorm:"size:128;index"                json:"type"`
	ContentType   string `gorm:"size:255"                      json:"content_type"`
	Note          string `gorm:"type:text"                     json:"note,omitempty"`
	FileSizeBytes int64  `json:"file_size_bytes"`

	UploadedByUserID string    `gorm:"size:255;index" json:"uploaded_by_user_id"`
	UploadedAt       time.Time `gorm:"index"          json:"uploaded_at"`

	ApprovalStatus  ApprovalStatus  `gorm:"size:32;index" json:"approval_status"`
	ReviewStatus    *ReviewStatus   `gorm:"size:32;index" json:"review_status,omitempty"`
	VisibilityLevel VisibilityLevel `gorm:"size:32"       json:"visibility_level"`
	WorkflowStage   WorkflowStage   `gorm:"size:32"       json:"workflow_stage"`

	ApprovedByUserID *string    `gorm:"size:255" json:"approved_by_user_id,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	// ApprovalLevel 审批时给出的级别
	ApprovalLevel int `json:"approval_level,omitempty"`

	RejectionReason  string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	RejectedByUserID *string    `gorm:"size:255"  json:"rejected_by_user_id,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`

	ReviewComments   string     `gorm:"type:text" json:"review_comments,omitempty"`
	ReviewedByUserID *string    `gorm:"size:255"  json:"reviewed_by_user_id,omitempty"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 表名.
func (Document) TableName() string { return "documents" }

// IsPending 是否处于待审批.
func (d *Document) IsPending() bool { return d.ApprovalStatus == ApprovalPending }

// NeedsReview 是否等待复核.
func (d *Document) NeedsReview() bool {
	return d.ReviewStatus != nil && *d.ReviewStatus == ReviewUnreviewed
}

// Review 返回复核状态，缺失时为空串.
func (d *Document) Review() ReviewStatus {
	if d.ReviewStatus == nil {
		return ""
	}

	return *d.ReviewStatus
}

// Extension 返回显示名的扩展名（含点），没有则为空.
func (d *Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.Name))
}

// Clone 深拷贝，指针字段各自独立.
func (d *Document) Clone() *Document {
	c := *d
	c.ReviewStatus = clonePtr(d.ReviewStatus)
	c.ApprovedByUserID = clonePtr(d.ApprovedByUserID)
	c.ApprovedAt = clonePtr(d.ApprovedAt)
	c.RejectedByUserID = clonePtr(d.RejectedByUserID)
	c.RejectedAt = clonePtr(d.RejectedAt)
	c.ReviewedByUserID = clonePtr(d.ReviewedByUserID)
	c.ReviewedAt = clonePtr(d.ReviewedAt)

	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
