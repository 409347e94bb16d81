package configs

import (
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultUploadMaxFileSizeMB = 50         // 单文件上限 50 MiB
	DefaultUploadConcurrency   = 4          // 批次内并发写入数
	MaxUploadConcurrency       = 5          // 并发上限
	DefaultUploadPathPrefix    = "projects" // 对象键前缀
	DefaultUploadMaxBatchFiles = 50         // 单批次最大文件数
)

// DefaultAllowedContentTypes 允许上传的内容类型，"image/*" 表示任意图片.
var DefaultAllowedContentTypes = []string{
	"image/*",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/plain",
	"text/csv",
}

// UploadConfig 文档上传限制.
type UploadConfig struct {
	MaxFileSizeMB       int      `mapstructure:"max_file_size_mb"      rule:"min=1"`
	AllowedContentTypes []string `mapstructure:"allowed_content_types" rule:"min=1"`
	Concurrency         int      `mapstructure:"concurrency"           rule:"min=1,max=5"`
	PathPrefix          string   `mapstructure:"path_prefix"`
	MaxBatchFiles       int      `mapstructure:"max_batch_files"       rule:"min=1"`
}

// MaxFileSizeBytes 返回单文件字节上限（MiB 计）.
func (c *UploadConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// normalize 将并发数限制在 [1, MaxUploadConcurrency].
func (c *UploadConfig) normalize() {
	if c.MaxFileSizeMB <= 0 {
		c.MaxFileSizeMB = DefaultUploadMaxFileSizeMB
	}

	switch {
	case c.Concurrency <= 0:
		c.Concurrency = DefaultUploadConcurrency
	case c.Concurrency > MaxUploadConcurrency:
		c.Concurrency = MaxUploadConcurrency
	}

	if len(c.AllowedContentTypes) == 0 {
		c.AllowedContentTypes = append([]string(nil), DefaultAllowedContentTypes...)
	}

	for i, ct := range c.AllowedContentTypes {
		c.AllowedContentTypes[i] = strings.ToLower(strings.TrimSpace(ct))
	}

	c.PathPrefix = strings.Trim(c.PathPrefix, "/")
	if c.PathPrefix == "" {
		c.PathPrefix = DefaultUploadPathPrefix
	}

	if c.MaxBatchFiles <= 0 {
		c.MaxBatchFiles = DefaultUploadMaxBatchFiles
	}
}

// setDefaults 设置上传配置的默认值.
func (c *UploadConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("upload.max_file_size_mb", DefaultUploadMaxFileSizeMB)
	v.SetDefault("upload.allowed_content_types", DefaultAllowedContentTypes)
	v.SetDefault("upload.concurrency", DefaultUploadConcurrency)
	v.SetDefault("upload.path_prefix", DefaultUploadPathPrefix)
	v.SetDefault("upload.max_batch_files", DefaultUploadMaxBatchFiles)
}
