package configs

import (
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// PolicyRule 单个文档类型的审批/复核要求.
type PolicyRule struct {
	RequiresApproval bool `mapstructure:"requires_approval" json:"requires_approval"`
	RequiresReview   bool `mapstructure:"requires_review"   json:"requires_review"`
	ApprovalLevel    int  `mapstructure:"approval_level"    json:"approval_level"    rule:"min=0,max=2"`
}

// StatusDisplay 审批状态的展示文案与颜色.
type StatusDisplay struct {
	Label string `mapstructure:"label" json:"label"`
	Color string `mapstructure:"color" json:"color"`
}

// PolicyConfig 文档类型目录及其策略. viper 会把 map 键转为小写，查询时统一小写.
type PolicyConfig struct {
	Types    map[string]PolicyRule    `mapstructure:"types"`
	Default  PolicyRule               `mapstructure:"default"`
	Statuses map[string]StatusDisplay `mapstructure:"statuses"`
}

// RuleFor 返回文档类型对应的策略，未知类型使用 Default.
func (c *PolicyConfig) RuleFor(docType string) PolicyRule {
	if rule, ok := c.Types[normalizeTypeKey(docType)]; ok {
		return rule
	}

	return c.Default
}

// Known 判断文档类型是否在目录中.
func (c *PolicyConfig) Known(docType string) bool {
	_, ok := c.Types[normalizeTypeKey(docType)]
	return ok
}

// TypeNames 返回排序后的类型键.
func (c *PolicyConfig) TypeNames() []string {
	names := make([]string, 0, len(c.Types))
	for name := range c.Types {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (c *PolicyConfig) normalize() {
	types := make(map[string]PolicyRule, len(c.Types))
	for name, rule := range c.Types {
		types[normalizeTypeKey(name)] = rule
	}

	c.Types = types

	statuses := make(map[string]StatusDisplay, len(c.Statuses))
	for name, d := range c.Statuses {
		statuses[strings.ToLower(strings.TrimSpace(name))] = d
	}

	c.Statuses = statuses
}

func normalizeTypeKey(docType string) string {
	return strings.ToLower(strings.TrimSpace(docType))
}

// setDefaults 设置默认文档类型目录.
func (c *PolicyConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("policy.types", map[string]any{
		"contract":          map[string]any{"requires_approval": true, "approval_level": 2},
		"change order":      map[string]any{"requires_approval": true, "approval_level": 1},
		"invoice":           map[string]any{"requires_approval": true, "approval_level": 1},
		"permit":            map[string]any{"requires_review": true},
		"report":            map[string]any{"requires_review": true},
		"photos - damage":   map[string]any{"requires_review": true},
		"photos - progress": map[string]any{},
		"correspondence":    map[string]any{},
		"other":             map[string]any{},
	})
	v.SetDefault("policy.default", map[string]any{
		"requires_approval": false,
		"requires_review":   false,
		"approval_level":    0,
	})
	v.SetDefault("policy.statuses", map[string]any{
		"pending":       map[string]any{"label": "Pending Approval", "color": "amber"},
		"approved":      map[string]any{"label": "Approved", "color": "green"},
		"rejected":      map[string]any{"label": "Rejected", "color": "red"},
		"auto_approved": map[string]any{"label": "Auto-approved", "color": "teal"},
		"available":     map[string]any{"label": "Available", "color": "blue"},
	})
}
