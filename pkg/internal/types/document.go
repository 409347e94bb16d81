package types

import (
	"time"

	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/query"
)

// DocumentView 带展示字段的文档.
type DocumentView struct {
	*model.Document

	StatusLabel     string `json:"status_label"`
	StatusColor     string `json:"status_color"`
	ToSuppliers     bool   `json:"to_suppliers"`
	ToPolicyholders bool   `json:"to_policyholders"`
}

// ListDocumentsQuery 列表查询参数.
type ListDocumentsQuery struct {
	Search   string     `form:"q"        json:"q"`
	Type     string     `form:"type"     json:"type"`
	Tab      string     `form:"tab"      json:"tab"      rule:"omitempty,doc_tab"`
	Start    *time.Time `form:"start"    json:"start"    time_format:"2006-01-02T15:04:05Z07:00"`
	End      *time.Time `form:"end"      json:"end"      time_format:"2006-01-02T15:04:05Z07:00"`
	Uploader string     `form:"uploader" json:"uploader"`
	Sort     string     `form:"sort"     json:"sort"     rule:"omitempty,oneof=name uploaded_at size type"`
	Order    string     `form:"order"    json:"order"    rule:"omitempty,oneof=asc desc"`
}

// Criteria 转换为过滤条件.
func (q ListDocumentsQuery) Criteria() query.Criteria {
	return query.Criteria{
		Search:     q.Search,
		Type:       q.Type,
		Tab:        query.Tab(q.Tab),
		Start:      q.Start,
		End:        q.End,
		UploaderID: q.Uploader,
		SortBy:     query.SortField(q.Sort),
		Desc:       q.Order == "desc",
	}
}

// ListDocumentsResponse 列表结果.
type ListDocumentsResponse struct {
	Documents []DocumentView `json:"documents"`
	Total     int            `json:"total"`
	Counts    query.Counts   `json:"counts"`
	Uploaders []string       `json:"uploaders"`
}

// ApproveRequest 审批请求.
type ApproveRequest struct {
	Level      int    `json:"level"      rule:"min=0,max=2"`
	Visibility string `json:"visibility" rule:"required,doc_visibility"`
}

// RejectRequest 驳回请求.
type RejectRequest struct {
	Reason string `json:"reason" rule:"required,max=2000"`
}

// ReviewRequest 复核请求.
type ReviewRequest struct {
	Comments string `json:"comments" rule:"max=2000"`
}

// EditDocumentRequest 编辑请求，nil 字段不修改；Name 为不含扩展名的基础名.
type EditDocumentRequest struct {
	Name       *string `json:"name,omitempty"       rule:"omitempty,min=1,max=255"`
	Type       *string `json:"type,omitempty"       rule:"omitempty,doc_type"`
	Note       *string `json:"note,omitempty"       rule:"omitempty,max=2000"`
	Visibility *string `json:"visibility,omitempty" rule:"omitempty,doc_visibility"`
}

// SignedURLResponse 单对象的临时访问地址.
type SignedURLResponse struct {
	DocumentID string    `json:"document_id"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}
