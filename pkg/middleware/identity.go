package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/identity"
)

const actorKey = "actor"

// IdentityMiddleware 从网关（oauth2-proxy 等）注入的请求头解析 Actor 并写入请求 context.
//   - 按 conf.UserHeaders 顺序取第一个非空值作为用户标识
//   - conf.RoleHeader 给出角色，缺省为 member
//   - 认证关闭时使用 conf.DevUser；dev_allow_query 允许 ?user=&role= 覆盖
func IdentityMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.Next()
			return
		}

		actor, ok := resolveActor(c, conf)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(actorKey, actor)
		c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func resolveActor(c *gin.Context, conf configs.AuthConfig) (identity.Actor, bool) {
	var id string

	for _, h := range conf.UserHeaders {
		if id = strings.TrimSpace(c.GetHeader(h)); id != "" {
			break
		}
	}

	role := c.GetHeader(conf.RoleHeader)

	if id == "" && conf.DevAllowQuery {
		id = strings.TrimSpace(c.Query("user"))
		if r := c.Query("role"); r != "" {
			role = r
		}
	}

	if id == "" && !conf.Enabled {
		id = conf.DevUser
	}

	if id == "" {
		return identity.Actor{}, false
	}

	return identity.Actor{ID: id, Role: identity.ParseRole(role)}, true
}

// GetActor 返回当前请求的 Actor.
func GetActor(c *gin.Context) (identity.Actor, bool) {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(identity.Actor); ok {
			return a, true
		}
	}

	return identity.FromContext(c.Request.Context())
}

// RequireRole 要求最低角色，不满足返回 403.
func RequireRole(minRole identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := GetActor(c)
		if !ok || a.Role < minRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: " + minRole.String() + " role required"})
			return
		}

		c.Next()
	}
}

func isSkippedPath(path string, skips []string) bool {
	for _, p := range skips {
		if p = strings.TrimSpace(p); p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
