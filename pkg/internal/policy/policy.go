// Package policy 定义文档类型策略：是否需要审批、是否需要复核以及所需审批级别.
// 核心流程只依赖 Provider 接口，具体映射由配置提供.
package policy

import (
	"sort"
	"strings"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/model"
)

// Level 审批级别，数值越大要求越高.
type Level int

const (
	LevelNone     Level = 0
	LevelReviewer Level = 1
	LevelAdmin    Level = 2
)

// Valid 是否为已知级别.
func (l Level) Valid() bool { return l >= LevelNone && l <= LevelAdmin }

// Provider 文档类型策略.
type Provider interface {
	RequiresApproval(docType string) bool
	RequiresReview(docType string) bool
	RequiredApprovalLevel(docType string) Level
	StatusLabel(status model.ApprovalStatus) string
	StatusColor(status model.ApprovalStatus) string
}

// ConfigProvider 基于 configs.PolicyConfig 的实现，构造后只读.
type ConfigProvider struct {
	cfg configs.PolicyConfig
}

// NewConfigProvider 用配置构造 Provider.
func NewConfigProvider(cfg configs.PolicyConfig) *ConfigProvider {
	return &ConfigProvider{cfg: cfg}
}

// FromGlobalConfig 读取全局配置中的 policy 段.
func FromGlobalConfig() *ConfigProvider {
	return NewConfigProvider(configs.GetConfig().Policy)
}

func (p *ConfigProvider) RequiresApproval(docType string) bool {
	return p.cfg.RuleFor(docType).RequiresApproval
}

func (p *ConfigProvider) RequiresReview(docType string) bool {
	return p.cfg.RuleFor(docType).RequiresReview
}

// RequiredApprovalLevel 不需要审批的类型返回 LevelNone；需要审批但未配置级别时至少为 reviewer.
func (p *ConfigProvider) RequiredApprovalLevel(docType string) Level {
	rule := p.cfg.RuleFor(docType)
	if !rule.RequiresApproval {
		return LevelNone
	}

	lvl := Level(rule.ApprovalLevel)
	if lvl < LevelReviewer {
		lvl = LevelReviewer
	}

	if lvl > LevelAdmin {
		lvl = LevelAdmin
	}

	return lvl
}

func (p *ConfigProvider) StatusLabel(status model.ApprovalStatus) string {
	if d, ok := p.cfg.Statuses[string(status)]; ok && d.Label != "" {
		return d.Label
	}

	return defaultLabel(status)
}

func (p *ConfigProvider) StatusColor(status model.ApprovalStatus) string {
	if d, ok := p.cfg.Statuses[string(status)]; ok && d.Color != "" {
		return d.Color
	}

	return "gray"
}

// Known 判断类型是否在目录中.
func (p *ConfigProvider) Known(docType string) bool {
	return p.cfg.Known(docType)
}

// Entry 用于列出目录.
type Entry struct {
	Type             string `json:"type"`
	RequiresApproval bool   `json:"requires_approval"`
	RequiresReview   bool   `json:"requires_review"`
	ApprovalLevel    Level  `json:"approval_level"`
}

// Catalog 列出所有已配置的类型，按名称排序.
func (p *ConfigProvider) Catalog() []Entry {
	names := p.cfg.TypeNames()
	out := make([]Entry, 0, len(names))

	for _, name := range names {
		out = append(out, Entry{
			Type:             name,
			RequiresApproval: p.RequiresApproval(name),
			RequiresReview:   p.RequiresReview(name),
			ApprovalLevel:    p.RequiredApprovalLevel(name),
		})
	}

	return out
}

// Static 不需要审批和复核的简化策略，所有文档上传即可用.
type Static struct{}

func (Static) RequiresApproval(string) bool       { return false }
func (Static) RequiresReview(string) bool         { return false }
func (Static) RequiredApprovalLevel(string) Level { return LevelNone }

func (Static) StatusLabel(status model.ApprovalStatus) string { return defaultLabel(status) }
func (Static) StatusColor(model.ApprovalStatus) string        { return "gray" }

// Map 测试与嵌入场景使用的内存策略，键不区分大小写.
type Map map[string]configs.PolicyRule

func (m Map) rule(docType string) configs.PolicyRule {
	return m[strings.ToLower(strings.TrimSpace(docType))]
}

func (m Map) RequiresApproval(docType string) bool { return m.rule(docType).RequiresApproval }
func (m Map) RequiresReview(docType string) bool   { return m.rule(docType).RequiresReview }

func (m Map) RequiredApprovalLevel(docType string) Level {
	r := m.rule(docType)
	if !r.RequiresApproval {
		return LevelNone
	}

	return max(Level(r.ApprovalLevel), LevelReviewer)
}

func (m Map) StatusLabel(status model.ApprovalStatus) string { return defaultLabel(status) }
func (m Map) StatusColor(model.ApprovalStatus) string        { return "gray" }

// Types 返回排序后的类型键.
func (m Map) Types() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

func defaultLabel(status model.ApprovalStatus) string {
	s := strings.ReplaceAll(string(status), "_", " ")
	if s == "" {
		return ""
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
