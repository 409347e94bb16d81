package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/yeisme/docflow/pkg/configs"
)

// TestInitConfigDefaults 测试无配置文件时使用默认值.
func TestInitConfigDefaults(t *testing.T) {
	if err := configs.InitConfig(t.TempDir()); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	cfg := configs.GetConfig()

	if got := cfg.Upload.MaxFileSizeBytes(); got != 50<<20 {
		t.Errorf("MaxFileSizeBytes = %d, want %d", got, 50<<20)
	}

	if cfg.Upload.Concurrency != configs.DefaultUploadConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Upload.Concurrency, configs.DefaultUploadConcurrency)
	}

	if cfg.S3.DocumentBucket() != configs.DefaultS3BucketName {
		t.Errorf("DocumentBucket = %q", cfg.S3.DocumentBucket())
	}

	if !cfg.Policy.RuleFor("Contract").RequiresApproval {
		t.Error("Contract should require approval by default")
	}

	if cfg.Policy.RuleFor("unknown type").RequiresApproval {
		t.Error("unknown types should fall back to the permissive default")
	}

	if cfg.Workflow.PreviewDebounce().Milliseconds() != configs.DefaultPreviewDebounceMS {
		t.Errorf("PreviewDebounce = %v", cfg.Workflow.PreviewDebounce())
	}
}

// TestInitConfigFile 测试配置文件覆盖与越界修正.
func TestInitConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9191
upload:
  concurrency: 9
  max_file_size_mb: 10
policy:
  types:
    Site Plan:
      requires_approval: true
      approval_level: 1
`

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := configs.InitConfig(path); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	cfg := configs.GetConfig()

	if cfg.Server.Port != 9191 {
		t.Errorf("Port = %d, want 9191", cfg.Server.Port)
	}

	if cfg.Upload.Concurrency != configs.MaxUploadConcurrency {
		t.Errorf("Concurrency = %d, want clamp to %d", cfg.Upload.Concurrency, configs.MaxUploadConcurrency)
	}

	if cfg.Upload.MaxFileSizeBytes() != 10<<20 {
		t.Errorf("MaxFileSizeBytes = %d", cfg.Upload.MaxFileSizeBytes())
	}

	rule := cfg.Policy.RuleFor("site plan")
	if !rule.RequiresApproval || rule.ApprovalLevel != 1 {
		t.Errorf("RuleFor(site plan) = %+v", rule)
	}

	if configs.GetViper() == nil || configs.GetViper().ConfigFileUsed() != path {
		t.Error("viper should report the loaded config file")
	}
}
