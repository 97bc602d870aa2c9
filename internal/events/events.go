package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Reading item lifecycle event types.
const (
	TypeItemCreated    = "reading_item.created"
	TypeReadingStarted = "reading_item.started"
	TypeProgressed     = "reading_item.progressed"
	TypeFinished       = "reading_item.finished"
	TypeItemUpdated    = "reading_item.updated"
	TypeItemDeleted    = "reading_item.deleted"
)

// ReadingEvent records a change to a single reading item.
type ReadingEvent struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	ItemID     string          `json:"item_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *ReadingEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewReadingEvent creates an event for itemID. A nil payload is omitted.
func NewReadingEvent(eventType, itemID string, payload any, occurredAt time.Time) (*ReadingEvent, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}

	return &ReadingEvent{
		ID:         uuid.New(),
		Type:       eventType,
		ItemID:     itemID,
		Payload:    raw,
		OccurredAt: occurredAt.UTC(),
	}, nil
}

// EventHandler reacts to emitted events.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *ReadingEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *ReadingEvent) error

func (f HandlerFunc) HandleEvent(ctx context.Context, event *ReadingEvent) error {
	return f(ctx, event)
}

// EventEmitter publishes events without knowing who handles them.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *ReadingEvent) error
}
