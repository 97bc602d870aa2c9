package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures events for assertions.
type recordingHandler struct {
	mu     sync.Mutex
	events []*ReadingEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *ReadingEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func TestNewReadingEvent(t *testing.T) {
	t.Parallel()

	type progressPayload struct {
		Progress int `json:"progress"`
	}
	at := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	event, err := NewReadingEvent(TypeProgressed, "item-1", progressPayload{Progress: 40}, at)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeProgressed, event.Type)
	assert.Equal(t, "item-1", event.ItemID)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())

	var decoded progressPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, 40, decoded.Progress)

	bare, err := NewReadingEvent(TypeItemDeleted, "item-1", nil, at)
	require.NoError(t, err)
	assert.Nil(t, bare.Payload)

	_, err = NewReadingEvent(TypeItemCreated, "item-1", make(chan int), at)
	assert.Error(t, err)
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	event, err := NewReadingEvent(TypeItemCreated, "item-1", nil, time.Now())
	require.NoError(t, err)

	t.Run("no handlers", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("every handler sees the event", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(logger)
		first, second := &recordingHandler{}, &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Equal(t, []*ReadingEvent{event}, first.events)
		assert.Equal(t, []*ReadingEvent{event}, second.events)
	})

	t.Run("first error returned after all handlers run", func(t *testing.T) {
		t.Parallel()
		emitter := NewInMemoryEventEmitter(logger)
		failing := &recordingHandler{err: errors.New("handler error")}
		after := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(after)

		err := emitter.EmitEvent(context.Background(), event)
		assert.EqualError(t, err, "handler error")
		assert.Len(t, after.events, 1)
	})
}

func TestActivityLogHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := NewActivityLogHandler(slog.New(slog.NewJSONHandler(&buf, nil)))
	event, err := NewReadingEvent(TypeFinished, "item-9", nil, time.Now())
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))
	assert.Contains(t, buf.String(), `"event_type":"reading_item.finished"`)
	assert.Contains(t, buf.String(), `"item_id":"item-9"`)
}
