// Package router 把 handle 中的处理器绑定到路由，路由分组和权限中间件在这里集中声明.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/internal/handle"
)

// RegisterDocumentRoutes 注册项目文档路由.
//
//	GET    /projects/:project/documents            -> 列表
//	POST   /projects/:project/documents            -> 批量上传
//	POST   /projects/:project/documents/bulk       -> 批量操作
//	GET    /projects/:project/documents/:id        -> 详情
//	PATCH  /projects/:project/documents/:id        -> 编辑
//	DELETE /projects/:project/documents/:id        -> 删除
//	GET    /projects/:project/documents/:id/url    -> 访问 URL
//	POST   /projects/:project/documents/:id/approve|reject|review
func RegisterDocumentRoutes(g *gin.RouterGroup) {
	docs := g.Group("/projects/:project/documents")
	{
		docs.GET("", handle.ListDocuments)
		docs.POST("", handle.UploadDocuments)
		docs.POST("/bulk", handle.BulkDocuments)

		single := docs.Group("/:id")
		{
			single.GET("", handle.GetDocument)
			single.PATCH("", handle.EditDocument)
			single.DELETE("", handle.DeleteDocument)
			single.GET("/url", handle.SignedURL)

			single.POST("/approve", handle.ApproveDocument)
			single.POST("/reject", handle.RejectDocument)
			single.POST("/review", handle.ReviewDocument)
		}
	}
}

// RegisterPolicyRoutes 注册策略目录路由.
func RegisterPolicyRoutes(g *gin.RouterGroup) {
	g.GET("/policy/types", handle.PolicyCatalog)
}
