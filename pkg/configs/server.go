package configs

import (
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig HTTP 服务配置.
type ServerConfig struct {
	Host string `mapstructure:"host" rule:"ip"`
	Port int    `mapstructure:"port" rule:"min=1,max=65535"`
	// Timeout 读取请求头的超时，单位秒.
	Timeout int  `mapstructure:"timeout" rule:"min=1,max=300"`
	Debug   bool `mapstructure:"debug"`
	// ReloadConfig 监听配置文件变化并热加载.
	ReloadConfig bool `mapstructure:"reload_config"`
	// MaxMultipartMemoryMB 上传表单驻留内存的上限，超出部分写临时文件.
	MaxMultipartMemoryMB int `mapstructure:"max_multipart_memory_mb" rule:"min=1"`
}

// Addr 返回 host:port.
func (s *ServerConfig) Addr() string {
	return HostPort(s.Host, s.Port)
}

// HostPort 拼接 host 与端口，IPv6 地址加方括号.
func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// GetTimeoutDuration 返回 Timeout 对应的时长.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout", 30)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.reload_config", false)
	v.SetDefault("server.max_multipart_memory_mb", 64)
}
