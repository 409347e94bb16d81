package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/types"
)

// ListDocuments 列出项目中 actor 可见的文档.
//
//	@Summary		文档列表
//	@Description	按关键字、类型、页签、上传时间与上传人过滤，返回过滤结果以及各页签计数
//	@Tags			文档
//	@Produce		json
//	@Param			project		path		string	true	"项目 ID"
//	@Param			q			query		string	false	"名称或备注关键字"
//	@Param			type		query		string	false	"文档类型"
//	@Param			tab			query		string	false	"页签 all/pending/review"
//	@Param			uploader	query		string	false	"上传人 ID"
//	@Param			sort		query		string	false	"排序字段 name/uploaded_at/size/type"
//	@Param			order		query		string	false	"asc 或 desc"
//	@Success		200			{object}	types.ListDocumentsResponse
//	@Failure		400			{object}	map[string]string	"请求参数错误"
//	@Router			/api/v1/projects/{project}/documents [get]
func ListDocuments(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var q types.ListDocumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	resp, err := s.svc.List(c.Request.Context(), s.actor, s.projectID, q.Criteria())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetDocument 读取单个文档.
//
//	@Summary	文档详情
//	@Tags		文档
//	@Produce	json
//	@Param		project	path		string	true	"项目 ID"
//	@Param		id		path		string	true	"文档 ID"
//	@Success	200		{object}	types.DocumentView
//	@Failure	403		{object}	map[string]string	"不可见"
//	@Failure	404		{object}	map[string]string	"不存在"
//	@Router		/api/v1/projects/{project}/documents/{id} [get]
func GetDocument(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	doc, err := s.svc.Get(c.Request.Context(), s.actor, s.projectID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.svc.View(doc))
}

// EditDocument 修改名称、类型、备注或可见性.
//
//	@Summary		编辑文档
//	@Description	名称只替换基础名，扩展名保持不变；待审批或已驳回的文档不能修改可见性
//	@Tags			文档
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string						true	"项目 ID"
//	@Param			id		path		string						true	"文档 ID"
//	@Param			body	body		types.EditDocumentRequest	true	"修改项"
//	@Success		200		{object}	types.DocumentView
//	@Failure		400		{object}	map[string]string	"请求参数错误"
//	@Failure		403		{object}	map[string]string	"无权修改"
//	@Router			/api/v1/projects/{project}/documents/{id} [patch]
func EditDocument(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var req types.EditDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := s.svc.Edit(c.Request.Context(), s.actor, s.projectID, c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.svc.View(doc))
}

// DeleteDocument 删除文档元数据与原件.
//
//	@Summary	删除文档
//	@Tags		文档
//	@Param		project	path	string	true	"项目 ID"
//	@Param		id		path	string	true	"文档 ID"
//	@Success	204
//	@Failure	403	{object}	map[string]string	"无权删除"
//	@Failure	404	{object}	map[string]string	"不存在"
//	@Router		/api/v1/projects/{project}/documents/{id} [delete]
func DeleteDocument(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	if err := s.svc.Delete(c.Request.Context(), s.actor, s.projectID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SignedURL 签发临时访问地址.
//
//	@Summary	获取文档访问 URL
//	@Tags		文档
//	@Produce	json
//	@Param		project	path		string	true	"项目 ID"
//	@Param		id		path		string	true	"文档 ID"
//	@Success	200		{object}	types.SignedURLResponse
//	@Failure	403		{object}	map[string]string	"不可见"
//	@Router		/api/v1/projects/{project}/documents/{id}/url [get]
func SignedURL(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	resp, err := s.svc.SignedURL(c.Request.Context(), s.actor, s.projectID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ApproveDocument 审批文档并设置可见性.
//
//	@Summary		审批文档
//	@Description	level 为 0 时使用审批人自身级别
//	@Tags			审批
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string					true	"项目 ID"
//	@Param			id		path		string					true	"文档 ID"
//	@Param			body	body		types.ApproveRequest	true	"审批参数"
//	@Success		200		{object}	types.DocumentView
//	@Failure		403		{object}	map[string]string	"审批级别不足"
//	@Failure		409		{object}	map[string]string	"状态不允许审批"
//	@Router			/api/v1/projects/{project}/documents/{id}/approve [post]
func ApproveDocument(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var req types.ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := s.svc.Approve(c.Request.Context(), s.actor, s.projectID, c.Param("id"),
		policy.Level(req.Level), model.VisibilityLevel(req.Visibility))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.svc.View(doc))
}

// RejectDocument 驳回文档.
//
//	@Summary	驳回文档
//	@Tags		审批
//	@Accept		json
//	@Produce	json
//	@Param		project	path		string				true	"项目 ID"
//	@Param		id		path		string				true	"文档 ID"
//	@Param		body	body		types.RejectRequest	true	"驳回原因"
//	@Success	200		{object}	types.DocumentView
//	@Failure	409		{object}	map[string]string	"状态不允许驳回"
//	@Router		/api/v1/projects/{project}/documents/{id}/reject [post]
func RejectDocument(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var req types.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := s.svc.Reject(c.Request.Context(), s.actor, s.projectID, c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.svc.View(doc))
}

// ReviewDocument 复核文档.
//
//	@Summary	复核文档
//	@Tags		审批
//	@Accept		json
//	@Produce	json
//	@Param		project	path		string				true	"项目 ID"
//	@Param		id		path		string				true	"文档 ID"
//	@Param		body	body		types.ReviewRequest	false	"复核意见"
//	@Success	200		{object}	types.DocumentView
//	@Failure	409		{object}	map[string]string	"无需复核或已复核"
//	@Router		/api/v1/projects/{project}/documents/{id}/review [post]
func ReviewDocument(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var req types.ReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	doc, err := s.svc.Review(c.Request.Context(), s.actor, s.projectID, c.Param("id"), req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, s.svc.View(doc))
}

// BulkDocuments 对选中文档执行批量下载、复核或删除.
//
//	@Summary		批量操作
//	@Description	单个文档失败不影响其他文档，结果中汇总成功数、失败项与跳过数
//	@Tags			批量
//	@Accept			json
//	@Produce		json
//	@Param			project	path		string				true	"项目 ID"
//	@Param			body	body		types.BulkRequest	true	"批量请求"
//	@Success		200		{object}	types.BulkResult
//	@Failure		400		{object}	map[string]string	"空选择或未知动作"
//	@Router			/api/v1/projects/{project}/documents/bulk [post]
func BulkDocuments(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var req types.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := s.svc.Bulk(c.Request.Context(), s.actor, s.projectID, req.Action, req.IDs, req.Comments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}
