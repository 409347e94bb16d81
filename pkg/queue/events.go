package queue

import "github.com/ThreeDotsLabs/watermill/message"

// PublishDocumentEvent 发布文档生命周期事件.
func PublishDocumentEvent(pub message.Publisher, topic string, payload DocumentEventPayload, opts ...HeaderOption) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	msg.Metadata.Set("document_id", payload.Document.ID)
	msg.Metadata.Set("project_id", payload.Document.ProjectID)

	return pub.Publish(topic, msg)
}

// PublishBlobOrphaned 发布孤儿 blob 事件.
func PublishBlobOrphaned(pub message.Publisher, payload BlobOrphanedPayload, opts ...HeaderOption) error {
	msg, err := NewWatermillMessage(TopicBlobOrphaned, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(TopicBlobOrphaned, msg)
}

// ParseDocumentEvent 解析文档事件.
func ParseDocumentEvent(msg *message.Message) (Message[DocumentEventPayload], error) {
	return ParseWatermillMessage[DocumentEventPayload](msg)
}

// ParseBlobOrphaned 解析孤儿 blob 事件.
func ParseBlobOrphaned(msg *message.Message) (Message[BlobOrphanedPayload], error) {
	return ParseWatermillMessage[BlobOrphanedPayload](msg)
}
