// Package api 组装 HTTP 引擎：全局中间件、身份识别以及 /api/v1 下的全部路由.
package api

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/router"
	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/internal/storage"
	"github.com/yeisme/docflow/pkg/middleware"
	"github.com/yeisme/docflow/pkg/rule"
	"github.com/yeisme/docflow/pkg/scheduler"
)

// Deps 路由依赖；Storage 与 Scheduler 可为空，对应接口返回 503.
type Deps struct {
	Storage   *storage.Manager
	Service   *service.DocumentService
	Scheduler *scheduler.Scheduler
}

// NewEngine 创建 gin 引擎并注册全部路由.
func NewEngine(cfg *configs.AppConfig, deps Deps) *gin.Engine {
	// ShouldBind 依赖 rule 标签
	rule.Engine()

	e := gin.New()
	e.MaxMultipartMemory = int64(cfg.Server.MaxMultipartMemoryMB) << 20

	Register(e, cfg, deps)

	return e
}

// Register 把中间件与路由挂到已有引擎上.
func Register(e *gin.Engine, cfg *configs.AppConfig, deps Deps) *gin.Engine {
	e.Use(
		gin.Recovery(),
		middleware.CORSMiddleware(cfg.Server, cfg.Auth),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.GinLoggerMiddleware(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger", "/debug/pprof"})),
		middleware.StorageMiddleware(deps.Storage),
		middleware.DocumentServiceMiddleware(deps.Service),
	)

	if deps.Scheduler != nil {
		e.Use(middleware.SchedulerMiddleware(deps.Scheduler))
	}

	v1 := e.Group("/api/v1")
	router.RegisterHealthCheckRoute(v1)

	authed := v1.Group("",
		middleware.IdentityMiddleware(cfg.Auth),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
	)
	router.RegisterDocumentRoutes(authed)
	router.RegisterPolicyRoutes(authed)
	router.RegisterSchedulerRoutes(authed)

	router.RegisterSwaggerRoute(e, cfg.Server)

	return e
}
