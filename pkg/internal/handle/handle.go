// Package handle 实现 HTTP 请求处理器，把请求转换为 DocumentService 调用.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/internal/identity"
	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/log"
	"github.com/yeisme/docflow/pkg/middleware"
	"github.com/yeisme/docflow/pkg/rule"
)

// requestScope 单个文档请求共享的上下文.
type requestScope struct {
	svc       *service.DocumentService
	actor     identity.Actor
	projectID string
}

// scope 取出服务、actor 与项目；失败时已写入响应.
func scope(c *gin.Context) (requestScope, bool) {
	svc := middleware.GetDocumentService(c)
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document service not initialized"})
		return requestScope{}, false
	}

	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return requestScope{}, false
	}

	project := c.Param("project")
	if err := rule.ValidateVar(project, "required,max=64,excludesall=/"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return requestScope{}, false
	}

	return requestScope{svc: svc, actor: actor, projectID: project}, true
}

// bindError 请求体或参数绑定失败.
func bindError(c *gin.Context, err error) {
	l := log.Logger()
	l.Warn().Err(err).Str("path", c.FullPath()).Msg("invalid request")

	body := gin.H{"error": "invalid request"}
	if issues := rule.Errors(err); issues != nil {
		body["issues"] = issues
	} else {
		body["error"] = err.Error()
	}

	c.JSON(http.StatusBadRequest, body)
}

// writeError 按错误种类返回状态码；校验错误附带逐项问题.
func writeError(c *gin.Context, err error) {
	status := service.HTTPStatus(err)
	body := gin.H{"error": err.Error()}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["issues"] = verr.Issues
	}

	if status >= http.StatusInternalServerError {
		l := log.Logger()
		l.Error().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request failed")
	}

	_ = c.Error(err)
	c.JSON(status, body)
}
