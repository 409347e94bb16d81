package configs

import (
	"time"

	"github.com/spf13/viper"
)

// RateLimitConfig 令牌桶限流，作用于身份识别之后的 /api/v1 路由.
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"   rule:"gte=0"`
	Burst   int     `mapstructure:"burst" rule:"gte=0"`
	// Key 计数维度：global、ip、actor 或 header:<Name>.
	Key string `mapstructure:"key"`
}

// CircuitBreakerConfig 熔断参数，HTTP 入口与对象存储调用各持有一个熔断器.
type CircuitBreakerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	FailureRate float64 `mapstructure:"failure_rate" rule:"min=0,max=1"`
	// MinRequests 统计窗口内少于该请求数时不熔断.
	MinRequests       uint32 `mapstructure:"min_requests"`
	IntervalSeconds   int    `mapstructure:"interval_seconds"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	MaxRequestsInHalf uint32 `mapstructure:"max_requests_in_half"`
}

// Interval 统计窗口.
func (c *CircuitBreakerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Timeout 打开状态持续多久后进入半开.
func (c *CircuitBreakerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShouldTrip 请求数达到 MinRequests 且失败比例不低于 FailureRate 时熔断.
func (c *CircuitBreakerConfig) ShouldTrip(requests, failures uint32) bool {
	if requests == 0 || requests < c.MinRequests {
		return false
	}

	return float64(failures)/float64(requests) >= c.FailureRate
}

func (c *RateLimitConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.rps", 50.0)
	v.SetDefault("rate_limit.burst", 100)
	v.SetDefault("rate_limit.key", "actor")
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 20)
	v.SetDefault("circuit_breaker.interval_seconds", 60)
	v.SetDefault("circuit_breaker.timeout_seconds", 30)
	v.SetDefault("circuit_breaker.max_requests_in_half", 5)
}
