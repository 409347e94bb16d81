package queue

// 主题命名：docflow.<域>.<动作>，发布后保持稳定.
const (
	TopicDocumentUploaded = "docflow.document.uploaded" // 元数据写入成功后发布
	TopicDocumentApproved = "docflow.document.approved"
	TopicDocumentRejected = "docflow.document.rejected"
	TopicDocumentReviewed = "docflow.document.reviewed"
	TopicDocumentUpdated  = "docflow.document.updated" // 名称、类型、备注或可见性被编辑
	TopicDocumentDeleted  = "docflow.document.deleted"

	TopicBlobOrphaned = "docflow.blob.orphaned" // blob 已写入但没有元数据行引用
)

// DocumentTopics 文档生命周期主题.
var DocumentTopics = []string{
	TopicDocumentUploaded,
	TopicDocumentApproved,
	TopicDocumentRejected,
	TopicDocumentReviewed,
	TopicDocumentUpdated,
	TopicDocumentDeleted,
}

// AllTopics 所有主题.
var AllTopics = append(append([]string{}, DocumentTopics...), TopicBlobOrphaned)
