package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/docflow/pkg/configs"
)

const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet 按键保存令牌桶，闲置超过 limiterIdleTTL 的在下次清扫时移除.
type limiterSet struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	return &limiterSet{
		limit:    rate.Limit(rps),
		burst:    max(burst, 1),
		visitors: map[string]*visitor{},
	}
}

func (s *limiterSet) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > limiterIdleTTL {
		for k, v := range s.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(s.visitors, k)
			}
		}

		s.lastSweep = now
	}

	v, ok := s.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.visitors[key] = v
	}

	v.lastSeen = now

	return v.limiter
}

// rateKeyFunc 把 cfg.Key 解析成取键函数：global、ip、actor 或 header:Name.
func rateKeyFunc(mode string) func(*gin.Context) string {
	mode = strings.TrimSpace(mode)

	switch {
	case mode == "" || strings.EqualFold(mode, "global"):
		return func(*gin.Context) string { return "global" }
	case strings.EqualFold(mode, "actor"):
		return func(c *gin.Context) string {
			if a, ok := GetActor(c); ok {
				return "actor:" + a.ID
			}

			return "ip:" + c.ClientIP()
		}
	case len(mode) > len("header:") && strings.EqualFold(mode[:len("header:")], "header:"):
		name := mode[len("header:"):]

		return func(c *gin.Context) string {
			if v := c.GetHeader(name); v != "" {
				return "header:" + v
			}

			return "ip:" + c.ClientIP()
		}
	default:
		return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
	}
}

// RateLimitMiddleware 令牌桶限流；超限返回 429 并带 Retry-After.
// 挂在身份识别之后时 actor 维度按操作者计数.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	set := newLimiterSet(cfg.RPS, cfg.Burst)
	keyOf := rateKeyFunc(cfg.Key)
	retryAfter := strconv.Itoa(int(math.Ceil(1 / cfg.RPS)))

	return func(c *gin.Context) {
		if !set.get(keyOf(c), time.Now()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})

			return
		}

		c.Next()
	}
}
