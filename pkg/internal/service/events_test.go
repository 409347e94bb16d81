package service

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/docflow/pkg/configs"
	"github.com/yeisme/docflow/pkg/internal/model"
	"github.com/yeisme/docflow/pkg/internal/policy"
	"github.com/yeisme/docflow/pkg/internal/types"
	"github.com/yeisme/docflow/pkg/queue"
)

func eventsConfig() configs.EventsConfig {
	return configs.EventsConfig{
		Enabled:  true,
		Producer: "docflow-test",
		Document: configs.DocumentEventsConfig{
			Uploaded: true, Approved: true, Rejected: true, Reviewed: true, Deleted: true, BlobOrphans: true,
		},
	}
}

func subscribe(t *testing.T, sub message.Subscriber, topic string) <-chan *message.Message {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ch, err := sub.Subscribe(ctx, topic)
	require.NoError(t, err)

	return ch
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return nil
	}
}

func TestWorkflowPublishesEvents(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	uploaded := subscribe(t, bus, queue.TopicDocumentUploaded)
	approved := subscribe(t, bus, queue.TopicDocumentApproved)

	f := newFixture(t, WithEvents(NewWatermillEvents(bus, eventsConfig())))
	id := f.seed(t, uploader, "Contract", "contract.pdf", false, false)

	msg := receive(t, uploaded)
	assert.Equal(t, id, msg.Metadata.Get("document_id"))

	ev, err := queue.ParseDocumentEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, "docflow-test", ev.Header.Producer)
	assert.Equal(t, string(model.ApprovalPending), ev.Payload.Document.ApprovalStatus)
	assert.Equal(t, uploader.ID, ev.Payload.ActorID)

	_, err = f.svc.Approve(context.Background(), reviewer, testProject, id, policy.LevelNone, model.VisibilityPublic)
	require.NoError(t, err)

	ev, err = queue.ParseDocumentEvent(receive(t, approved))
	require.NoError(t, err)
	assert.Equal(t, string(model.VisibilityPublic), ev.Payload.Document.VisibilityLevel)
}

func TestDisabledTopicIsNotPublished(t *testing.T) {
	bus := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	updated := subscribe(t, bus, queue.TopicDocumentUpdated)

	f := newFixture(t, WithEvents(NewWatermillEvents(bus, eventsConfig())))
	id := f.seed(t, uploader, "Photo", "a.png", false, false)

	_, err := f.svc.Edit(context.Background(), uploader, testProject, id, types.EditDocumentRequest{Note: ptr("changed")})
	require.NoError(t, err)

	select {
	case msg := <-updated:
		t.Fatalf("unexpected event %s", msg.UUID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewWatermillEventsDisabled(t *testing.T) {
	assert.IsType(t, NoopEvents{}, NewWatermillEvents(nil, eventsConfig()))

	cfg := eventsConfig()
	cfg.Enabled = false
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	assert.IsType(t, NoopEvents{}, NewWatermillEvents(bus, cfg))
}
