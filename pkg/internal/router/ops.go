package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/docflow/docs"
	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/handle"
	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/middleware"
)

// RegisterHealthCheckRoute 注册探针，不经过身份识别.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	g.GET("/health", handle.Readiness)

	h := g.Group("/health")
	h.GET("/db", handle.HealthDB)
	h.GET("/s3", handle.HealthS3)
	h.GET("/mq", handle.HealthMQ)
	h.GET("/kv", handle.HealthKV)
}

// RegisterSchedulerRoutes 后台任务运维，仅管理员.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	admin := g.Group("/admin/scheduler", middleware.RequireRole(identity.RoleAdmin))

	admin.GET("/jobs", handle.SchedulerJobs)
	admin.POST("/jobs/:name/run", handle.SchedulerRunJob)
	admin.DELETE("/jobs/:name", handle.SchedulerRemoveJob)
	admin.GET("/queue/waiting", handle.SchedulerQueueWaiting)
}

// RegisterSwaggerRoute 仅在调试模式下暴露 /swagger.
func RegisterSwaggerRoute(r *gin.Engine, server configs.ServerConfig) {
	if !server.Debug {
		return
	}

	docs.SwaggerInfo.Host = server.Addr()
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
