// Package query 在内存中的文档集合上应用组合过滤条件，纯函数，无 I/O.
package query

import (
	"slices"
	"strings"
	"time"

	"github.com/yeisme/docflow/pkg/internal/model"
)

// Tab 列表页签.
type Tab string

const (
	TabAll     Tab = "all"
	TabPending Tab = "pending"
	TabReview  Tab = "review"
)

// AllTypes / AllUploaders 表示不过滤.
const (
	AllTypes     = "All"
	AllUploaders = "all"
)

// SortField 可排序字段.
type SortField string

const (
	SortNone       SortField = ""
	SortName       SortField = "name"
	SortUploadedAt SortField = "uploaded_at"
	SortSize       SortField = "size"
	SortType       SortField = "type"
)

// Criteria 过滤条件，各条件之间为 AND.
type Criteria struct {
	Search     string     // 名称或备注子串，不区分大小写
	Type       string     // 精确匹配；空或 "All" 不过滤
	Tab        Tab        // pending / review / all
	Start      *time.Time // uploadedAt 下界（含）
	End        *time.Time // uploadedAt 上界（含）
	UploaderID string     // 精确匹配；空或 "all" 不过滤
	SortBy     SortField
	Desc       bool
}

// Apply 返回满足条件的文档，保持输入顺序；指定 SortBy 时稳定排序.
func Apply(docs []*model.Document, c Criteria) []*model.Document {
	needle := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]*model.Document, 0, len(docs))

	for _, d := range docs {
		if d != nil && c.match(d, needle) {
			out = append(out, d)
		}
	}

	if c.SortBy != SortNone {
		sortDocs(out, c.SortBy, c.Desc)
	}

	return out
}

// Match 判断单个文档是否满足条件.
func (c Criteria) Match(d *model.Document) bool {
	return c.match(d, strings.ToLower(strings.TrimSpace(c.Search)))
}

func (c Criteria) match(d *model.Document, needle string) bool {
	if needle != "" &&
		!strings.Contains(strings.ToLower(d.Name), needle) &&
		!strings.Contains(strings.ToLower(d.Note), needle) {
		return false
	}

	if c.Type != "" && c.Type != AllTypes && d.Type != c.Type {
		return false
	}

	switch c.Tab {
	case TabPending:
		if d.ApprovalStatus != model.ApprovalPending {
			return false
		}
	case TabReview:
		if !d.NeedsReview() {
			return false
		}
	}

	if c.Start != nil && d.UploadedAt.Before(*c.Start) {
		return false
	}

	if c.End != nil && d.UploadedAt.After(*c.End) {
		return false
	}

	if c.UploaderID != "" && c.UploaderID != AllUploaders && d.UploadedByUserID != c.UploaderID {
		return false
	}

	return true
}

func sortDocs(docs []*model.Document, field SortField, desc bool) {
	cmp := func(a, b *model.Document) int {
		switch field {
		case SortName:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case SortSize:
			return compareInt(a.FileSizeBytes, b.FileSizeBytes)
		case SortType:
			return strings.Compare(a.Type, b.Type)
		default:
			return a.UploadedAt.Compare(b.UploadedAt)
		}
	}

	slices.SortStableFunc(docs, func(a, b *model.Document) int {
		if desc {
			return cmp(b, a)
		}

		return cmp(a, b)
	})
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Uploaders 返回集合中出现过的上传者，按首次出现顺序.
func Uploaders(docs []*model.Document) []string {
	seen := make(map[string]struct{}, len(docs))
	out := make([]string, 0)

	for _, d := range docs {
		if _, ok := seen[d.UploadedByUserID]; ok {
			continue
		}

		seen[d.UploadedByUserID] = struct{}{}
		out = append(out, d.UploadedByUserID)
	}

	return out
}

// Counts 各页签的数量.
type Counts struct {
	All     int `json:"all"`
	Pending int `json:"pending"`
	Review  int `json:"review"`
}

// Count 统计页签数量.
func Count(docs []*model.Document) Counts {
	c := Counts{All: len(docs)}

	for _, d := range docs {
		if d.ApprovalStatus == model.ApprovalPending {
			c.Pending++
		}

		if d.NeedsReview() {
			c.Review++
		}
	}

	return c
}
