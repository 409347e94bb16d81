// Package configs 管理 docflow 的配置信息，包括数据库、对象存储、消息队列以及文档工作流策略.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing upload limits:
//
//	upload := configs.GetConfig().Upload
//	fmt.Println("max bytes:", upload.MaxFileSizeBytes())
//
// Example accessing the document type policy:
//
//	rule := configs.GetConfig().Policy.RuleFor("Contract")
//	fmt.Println(rule.RequiresApproval)
package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// AppVersion 应用版本号.
const AppVersion = "0.3.0"

// EnvPrefix 环境变量前缀，例如 DOCFLOW_SERVER_PORT.
const EnvPrefix = "DOCFLOW"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		DB             DBConfig             `mapstructure:"db"`              // 数据库配置
		S3             S3Config             `mapstructure:"s3"`              // 对象存储配置
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // 键值存储配置
		Server         ServerConfig         `mapstructure:"server"`          // 服务器端口、调试等
		Log            LogConfig            `mapstructure:"log"`             // 日志配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // Prometheus 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 分布式追踪
		Auth           AuthConfig           `mapstructure:"auth"`            // 身份识别
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 熔断
		Events         EventsConfig         `mapstructure:"events"`          // 事件发布开关
		Upload         UploadConfig         `mapstructure:"upload"`          // 上传限制与并发
		Policy         PolicyConfig         `mapstructure:"policy"`          // 文档类型审批/复核策略
		Workflow       WorkflowConfig       `mapstructure:"workflow"`        // 工作流会话参数
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	// configMu 保护热重载期间的并发读写.
	configMu sync.RWMutex
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// path 可以是文件或目录；目录下找不到配置文件时只使用默认值与环境变量.
func InitConfig(path string) error {
	v := viper.New()
	setAllDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	found, err := resolveConfigFile(v, path)
	if err != nil {
		return err
	}

	if found {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.normalize()

	configMu.Lock()
	globalConfig = cfg
	appViper = v
	configMu.Unlock()

	if found {
		reloadConfigs(v, cfg.Server.ReloadConfig)
	}

	return nil
}

// resolveConfigFile 根据 path 设置配置文件，返回是否找到配置文件.
func resolveConfigFile(v *viper.Viper, path string) (bool, error) {
	if path == "" {
		path = "."
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat config path %s: %w", path, err)
	}

	if !info.IsDir() {
		v.SetConfigFile(path)
		return true, nil
	}

	exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}
	for _, dir := range []string{path, filepath.Join(path, "configs")} {
		for _, ext := range exts {
			cfg := filepath.Join(dir, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				v.SetConfigFile(cfg)
				return true, nil
			}
		}
	}

	return false, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var cfg AppConfig

	cfg.Server.setDefaults(v)
	cfg.DB.setDefaults(v)
	cfg.S3.setDefaults(v)
	cfg.MQ.setDefaults(v)
	cfg.KV.setDefaults(v)
	cfg.Log.setDefaults(v)
	cfg.Metrics.setDefaults(v)
	cfg.Tracing.setDefaults(v)
	cfg.Auth.setDefaults(v)
	cfg.RateLimit.setDefaults(v)
	cfg.CircuitBreaker.setDefaults(v)
	cfg.Events.setDefaults(v)
	cfg.Upload.setDefaults(v)
	cfg.Policy.setDefaults(v)
	cfg.Workflow.setDefaults(v)
}

// normalize 修正越界配置.
func (c *AppConfig) normalize() {
	c.Upload.normalize()
	c.Workflow.normalize()
	c.Policy.normalize()
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Println("Config file changed:", e.Name)

		var cfg AppConfig
		if err := v.Unmarshal(&cfg); err != nil {
			fmt.Printf("Error reloading config: %v\n", err)
			return
		}

		cfg.normalize()

		configMu.Lock()
		globalConfig = cfg
		configMu.Unlock()
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()

	cfg := globalConfig

	return &cfg
}

// GetViper 返回底层 viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	configMu.RLock()
	defer configMu.RUnlock()

	return appViper
}
