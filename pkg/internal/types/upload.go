package types

// UploadStatus 单个上传项的状态.
type UploadStatus string

const (
	UploadQueued     UploadStatus = "queued"
	UploadUploading  UploadStatus = "uploading"
	UploadProcessing UploadStatus = "processing"
	UploadComplete   UploadStatus = "complete"
	UploadError      UploadStatus = "error"
)

// Terminal 是否为终态.
func (s UploadStatus) Terminal() bool {
	return s == UploadComplete || s == UploadError
}

// UploadItem 批量上传中的一个文件，不持久化.
type UploadItem struct {
	Index           int          `json:"index"`
	Filename        string       `json:"filename"`
	ProgressPercent int          `json:"progress_percent"`
	Status          UploadStatus `json:"status"`
	Error           string       `json:"error,omitempty"`
	DocumentID      string       `json:"document_id,omitempty"`
}

// UploadSummary 批量上传结果.
type UploadSummary struct {
	Items     []UploadItem `json:"items"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// UploadForm 上传表单中的非文件字段.
type UploadForm struct {
	Type            string `form:"type"             json:"type"             rule:"required,doc_type"`
	Note            string `form:"note"             json:"note"             rule:"max=2000"`
	ToSuppliers     bool   `form:"to_suppliers"     json:"to_suppliers"`
	ToPolicyholders bool   `form:"to_policyholders" json:"to_policyholders"`
}
