package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/middleware"
)

// catalog 能列出类型目录的策略.
type catalog interface {
	Catalog() []policy.Entry
}

// PolicyCatalog 列出文档类型及其审批、复核要求.
//
//	@Summary	文档类型目录
//	@Tags		策略
//	@Produce	json
//	@Success	200	{object}	map[string][]policy.Entry
//	@Router		/api/v1/policy/types [get]
func PolicyCatalog(c *gin.Context) {
	svc := middleware.GetDocumentService(c)
	if svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document service not initialized"})
		return
	}

	entries := []policy.Entry{}
	if p, ok := svc.Policy().(catalog); ok {
		entries = p.Catalog()
	}

	c.JSON(http.StatusOK, gin.H{"types": entries})
}
