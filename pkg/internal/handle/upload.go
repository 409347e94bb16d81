package handle

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/docflow/pkg/internal/service"
	"github.com/yeisme/docflow/pkg/internal/types"
)

const eventStream = "text/event-stream"

// UploadDocuments 批量上传文档.
//
// 请求头 Accept 为 text/event-stream 时以 SSE 推送每个文件的进度，最后推送 summary 事件.
//
//	@Summary		批量上传文档
//	@Description	同一批文件共享类型、备注与受众开关；任一文件校验失败时整批拒绝
//	@Tags			文档
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			project				path		string	true	"项目 ID"
//	@Param			files				formData	file	true	"文件，可重复"
//	@Param			type				formData	string	true	"文档类型"
//	@Param			note				formData	string	false	"备注"
//	@Param			to_suppliers		formData	bool	false	"对供应商可见"
//	@Param			to_policyholders	formData	bool	false	"对投保人可见"
//	@Success		200					{object}	types.UploadSummary
//	@Failure		400					{object}	map[string]string	"校验失败"
//	@Router			/api/v1/projects/{project}/documents [post]
func UploadDocuments(c *gin.Context) {
	s, ok := scope(c)
	if !ok {
		return
	}

	var form types.UploadForm
	if err := c.ShouldBind(&form); err != nil {
		bindError(c, err)
		return
	}

	mf, err := c.MultipartForm()
	if err != nil {
		bindError(c, err)
		return
	}

	req := service.UploadRequest{
		ProjectID:       s.projectID,
		Type:            form.Type,
		Note:            form.Note,
		ToSuppliers:     form.ToSuppliers,
		ToPolicyholders: form.ToPolicyholders,
	}

	for _, fh := range mf.File["files"] {
		req.Files = append(req.Files, uploadFile(fh))
	}

	if !strings.Contains(c.GetHeader("Accept"), eventStream) {
		summary, err := s.svc.Upload(c.Request.Context(), s.actor, req, nil)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, summary)

		return
	}

	// 响应头一旦写出状态码就固定为 200，校验错误要在此之前返回
	if err := s.svc.ValidateUpload(req); err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Type", eventStream)
	c.Header("Cache-Control", "no-cache")

	// 进度回调是串行的，可以直接写响应
	summary, err := s.svc.Upload(c.Request.Context(), s.actor, req, func(item types.UploadItem) {
		c.SSEvent("progress", item)
		c.Writer.Flush()
	})
	if err != nil {
		c.SSEvent("error", gin.H{"error": err.Error()})
		return
	}

	c.SSEvent("summary", summary)
}

// uploadFile 包装表单文件；未声明类型时按内容嗅探.
func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = sniff(fh, ct)
	}

	return service.UploadFile{
		Filename:    fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func sniff(fh *multipart.FileHeader, fallback string) string {
	f, err := fh.Open()
	if err != nil {
		return fallback
	}
	defer f.Close()

	m, err := mimetype.DetectReader(f)
	if err != nil {
		return fallback
	}

	return m.String()
}
