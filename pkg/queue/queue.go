// Package queue 定义 docflow 发布到事件总线上的文档事件.
//
// 每条消息的 payload 是 JSON 信封 {"header": EventHeader, "payload": ...}，
// 常用的头部字段同时写入 watermill 元数据，订阅方不解码也能按项目或文档过滤：
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicDocumentApproved, payload, queue.WithProducer("docflow"))
//	_ = client.Publish(ctx, queue.TopicDocumentApproved, msg)
//
//	for m := range ch {
//		ev, err := queue.ParseDocumentEvent(m)
//		...
//		m.Ack()
//	}
//
// occurred_at 为 UTC；消费者应忽略不认识的字段.
package queue

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
)

// PayloadVersionV1 当前信封版本.
const PayloadVersionV1 = "v1"

// HeaderOption 调整事件头.
type HeaderOption func(*EventHeader)

// WithTraceID 关联发起请求的 trace.
func WithTraceID(id string) HeaderOption { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 标记发布方.
func WithProducer(p string) HeaderOption { return func(h *EventHeader) { h.Producer = p } }

func newHeader(topic string, opts []HeaderOption) EventHeader {
	h := EventHeader{Topic: topic, OccurredAt: time.Now().UTC(), Version: PayloadVersionV1}
	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// NewWatermillMessage 把 payload 装进信封并构造 watermill 消息.
// 消息 ID 使用 ULID，JetStream 去重与日志排序都依赖它单调递增.
func NewWatermillMessage[T any](topic string, payload T, opts ...HeaderOption) (*message.Message, error) {
	h := newHeader(topic, opts)

	data, err := sonic.Marshal(Message[T]{Header: h, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewULID(), data)

	for k, v := range map[string]string{
		"topic":        h.Topic,
		"version":      h.Version,
		"occurred_at":  h.OccurredAt.Format(time.RFC3339Nano),
		"content_type": "application/json",
		"producer":     h.Producer,
		"trace_id":     h.TraceID,
	} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// ParseWatermillMessage 解出信封.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	var m Message[T]
	if err := sonic.Unmarshal(msg.Payload, &m); err != nil {
		return m, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}

	return m, nil
}
