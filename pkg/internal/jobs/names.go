package jobs

// 任务名称.
const (
	JobOrphanReconcile = "document.orphan_reconcile"
)
