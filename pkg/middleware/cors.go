package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/configs"
)

// CORSMiddleware 允许浏览器端携带身份请求头跨域访问 API.
func CORSMiddleware(server configs.ServerConfig, auth configs.AuthConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowFiles = true
	config.AddAllowMethods("PATCH")
	config.AddAllowHeaders(auth.UserHeaders...)

	if auth.RoleHeader != "" {
		config.AddAllowHeaders(auth.RoleHeader)
	}

	config.AddExposeHeaders("Content-Disposition")

	// 调试模式下缓存预检结果更短，便于调整请求头
	if server.Debug {
		config.MaxAge = time.Minute
	}

	return cors.New(config)
}
