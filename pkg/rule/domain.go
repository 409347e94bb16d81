package rule

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// 文档领域规则标签.
const (
	TagVisibility = "doc_visibility"
	TagTab        = "doc_tab"
	TagBulkAction = "doc_bulk_action"
	TagDocType    = "doc_type"
)

var (
	visibilityLevels = set("internal", "contractors", "customers", "public")
	tabs             = set("all", "pending", "review")
	bulkActions      = set("download", "review", "delete")

	docTypesMu sync.RWMutex
	docTypes   map[string]struct{}
)

func set(vals ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}

	return m
}

func oneOf(allowed map[string]struct{}) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}
}

// SetDocumentTypes 设置 doc_type 规则接受的类型目录（不区分大小写），空目录表示不限制.
func SetDocumentTypes(types []string) {
	m := make(map[string]struct{}, len(types))
	for _, t := range types {
		m[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	docTypesMu.Lock()
	docTypes = m
	docTypesMu.Unlock()
}

func validDocType(fl validator.FieldLevel) bool {
	v := strings.ToLower(strings.TrimSpace(fl.Field().String()))
	if v == "" {
		return false
	}

	docTypesMu.RLock()
	defer docTypesMu.RUnlock()

	if len(docTypes) == 0 {
		return true
	}

	_, ok := docTypes[v]

	return ok
}

func registerDomainRules(v *validator.Validate) {
	_ = v.RegisterValidation(TagVisibility, oneOf(visibilityLevels))
	_ = v.RegisterValidation(TagTab, oneOf(tabs))
	_ = v.RegisterValidation(TagBulkAction, oneOf(bulkActions))
	_ = v.RegisterValidation(TagDocType, validDocType)
}
