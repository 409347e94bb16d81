package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/queue"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	payload := queue.DocumentEventPayload{
		Document: queue.DocumentRef{ID: "d1", ProjectID: "p1", ApprovalStatus: "pending"},
		ActorID:  "u1",
	}

	msg, err := queue.NewWatermillMessage(queue.TopicDocumentUploaded, payload,
		queue.WithProducer("docflow"), queue.WithTraceID("trace-1"))
	require.NoError(t, err)

	assert.Equal(t, "docflow", msg.Metadata.Get("producer"))
	assert.Equal(t, "trace-1", msg.Metadata.Get("trace_id"))

	env, err := queue.ParseDocumentEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, queue.TopicDocumentUploaded, env.Header.Topic)
	assert.Equal(t, queue.PayloadVersionV1, env.Header.Version)
	assert.Equal(t, "d1", env.Payload.Document.ID)
	assert.Equal(t, "u1", env.Payload.ActorID)
}

func TestPublishDocumentEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer ps.Close()

	ch, err := ps.Subscribe(ctx, queue.TopicDocumentRejected)
	require.NoError(t, err)

	err = queue.PublishDocumentEvent(ps, queue.TopicDocumentRejected, queue.DocumentEventPayload{
		Document: queue.DocumentRef{ID: "d9", ProjectID: "p1"},
		Reason:   "missing signature",
	})
	require.NoError(t, err)

	select {
	case m := <-ch:
		assert.Equal(t, "d9", m.Metadata.Get("document_id"))

		env, err := queue.ParseDocumentEvent(m)
		require.NoError(t, err)
		assert.Equal(t, "missing signature", env.Payload.Reason)
		m.Ack()
	case <-ctx.Done():
		t.Fatal("event not delivered")
	}
}

func TestTopicsUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range queue.AllTopics {
		assert.False(t, seen[topic], topic)
		seen[topic] = true
	}
}
