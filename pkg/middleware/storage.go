// Package middleware 提供 gin 中间件：身份识别、限流熔断、观测以及服务注入.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/context"
	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/internal/storage"
	"github.com/yeisme/docflow/pkg/scheduler"
)

const (
	documentServiceKey = "documentService"
	schedulerKey       = "scheduler"
)

// StorageMiddleware 将存储管理器写入请求 context，供健康检查等使用.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}

// DocumentServiceMiddleware 注入进程内共享的 DocumentService，熔断器等状态随之跨请求保持.
func DocumentServiceMiddleware(svc *service.DocumentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(documentServiceKey, svc)
		c.Next()
	}
}

// GetDocumentService 返回注入的 DocumentService.
func GetDocumentService(c *gin.Context) *service.DocumentService {
	if v, ok := c.Get(documentServiceKey); ok {
		if svc, ok := v.(*service.DocumentService); ok {
			return svc
		}
	}

	return nil
}

// SchedulerMiddleware 注入后台任务调度器，供运维接口使用.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(schedulerKey, sched)
		c.Next()
	}
}

// GetScheduler 返回注入的调度器，未注入时为 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	v, _ := c.Get(schedulerKey)
	sched, _ := v.(*scheduler.Scheduler)

	return sched
}
