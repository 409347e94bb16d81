package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultSignedURLTTLSeconds  = 300            // 签名 URL 有效期
	DefaultPreviewDebounceMS    = 300            // 悬停预览防抖
	DefaultBulkConcurrency      = 4              // 批量操作并发数
	DefaultListCacheTTLSeconds  = 30             // 项目文档列表缓存
	DefaultOrphanReconcileCron  = "*/30 * * * *" // 孤儿对象清理周期
	DefaultOrphanGraceMinutes   = 10             // 孤儿记录的最短存活时间
	DefaultOrphanReconcileBatch = 200            // 每次清理的最大条数
)

// WorkflowConfig 文档工作流会话相关参数.
type WorkflowConfig struct {
	SignedURLTTLSeconds  int    `mapstructure:"signed_url_ttl_seconds" rule:"min=1,max=604800"`
	PreviewDebounceMS    int    `mapstructure:"preview_debounce_ms"    rule:"min=0"`
	BulkConcurrency      int    `mapstructure:"bulk_concurrency"       rule:"min=1,max=5"`
	ListCacheTTLSeconds  int    `mapstructure:"list_cache_ttl_seconds" rule:"min=0"`
	OrphanReconcileCron  string `mapstructure:"orphan_reconcile_cron"`
	OrphanGraceMinutes   int    `mapstructure:"orphan_grace_minutes"   rule:"min=0"`
	OrphanReconcileBatch int    `mapstructure:"orphan_reconcile_batch" rule:"min=1"`
}

// SignedURLTTL 签名 URL 有效期.
func (c *WorkflowConfig) SignedURLTTL() time.Duration {
	return time.Duration(c.SignedURLTTLSeconds) * time.Second
}

// PreviewDebounce 悬停预览防抖间隔.
func (c *WorkflowConfig) PreviewDebounce() time.Duration {
	return time.Duration(c.PreviewDebounceMS) * time.Millisecond
}

// ListCacheTTL 列表缓存时间，0 表示关闭.
func (c *WorkflowConfig) ListCacheTTL() time.Duration {
	return time.Duration(c.ListCacheTTLSeconds) * time.Second
}

// OrphanGrace 孤儿对象清理前的等待时间.
func (c *WorkflowConfig) OrphanGrace() time.Duration {
	return time.Duration(c.OrphanGraceMinutes) * time.Minute
}

func (c *WorkflowConfig) normalize() {
	if c.SignedURLTTLSeconds <= 0 {
		c.SignedURLTTLSeconds = DefaultSignedURLTTLSeconds
	}

	switch {
	case c.BulkConcurrency <= 0:
		c.BulkConcurrency = DefaultBulkConcurrency
	case c.BulkConcurrency > MaxUploadConcurrency:
		c.BulkConcurrency = MaxUploadConcurrency
	}

	if c.OrphanReconcileBatch <= 0 {
		c.OrphanReconcileBatch = DefaultOrphanReconcileBatch
	}
}

// setDefaults 设置工作流配置的默认值.
func (c *WorkflowConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("workflow.signed_url_ttl_seconds", DefaultSignedURLTTLSeconds)
	v.SetDefault("workflow.preview_debounce_ms", DefaultPreviewDebounceMS)
	v.SetDefault("workflow.bulk_concurrency", DefaultBulkConcurrency)
	v.SetDefault("workflow.list_cache_ttl_seconds", DefaultListCacheTTLSeconds)
	v.SetDefault("workflow.orphan_reconcile_cron", DefaultOrphanReconcileCron)
	v.SetDefault("workflow.orphan_grace_minutes", DefaultOrphanGraceMinutes)
	v.SetDefault("workflow.orphan_reconcile_batch", DefaultOrphanReconcileBatch)
}
