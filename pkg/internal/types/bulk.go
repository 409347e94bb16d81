package types

// BulkAction 批量操作类型.
type BulkAction string

const (
	BulkDownload BulkAction = "download"
	BulkReview   BulkAction = "review"
	BulkDelete   BulkAction = "delete"
)

// BulkRequest 批量操作请求.
type BulkRequest struct {
	Action   BulkAction `json:"action"   rule:"required,doc_bulk_action"`
	IDs      []string   `json:"ids"      rule:"required,min=1,dive,required"`
	Comments string     `json:"comments" rule:"max=2000"`
}

// BulkFailure 单个文档的失败原因.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult 批量操作汇总，部分失败不会使整个请求失败.
type BulkResult struct {
	Action       BulkAction        `json:"action"`
	SuccessCount int               `json:"success_count"`
	Failures     []BulkFailure     `json:"failures"`
	Skipped      int               `json:"skipped"`
	NothingToDo  bool              `json:"nothing_to_do"`
	URLs         map[string]string `json:"urls,omitempty"`
}
