package configs

import "github.com/spf13/viper"

// AuthConfig 控制请求身份识别（网关或 oauth2-proxy 注入的请求头）.
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`         // 开启认证校验，关闭时使用 DevUser
	UserHeaders   []string `mapstructure:"user_headers"`    // 依次尝试读取的用户标识请求头
	RoleHeader    string   `mapstructure:"role_header"`     // 角色请求头
	SkipPaths     []string `mapstructure:"skip_paths"`      // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
	DevAllowQuery bool     `mapstructure:"dev_allow_query"` // 开发模式允许用 ?user= 便于本地调试
	DevUser       string   `mapstructure:"dev_user"`        // 认证关闭时使用的默认用户
}

// setDefaults 设置认证配置的默认值.
func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.user_headers", []string{
		"X-User",
		"X-Auth-Request-Email",
		"X-Forwarded-Email",
	})
	v.SetDefault("auth.role_header", "X-Role")
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.dev_user", "dev@docflow.local")
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
	})
}
