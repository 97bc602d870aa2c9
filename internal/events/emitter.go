package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter delivers events synchronously to registered handlers.
// Every handler sees every event; the first handler error is returned after
// all handlers have run.
type InMemoryEventEmitter struct {
	handlers []EventHandler
	mu       sync.RWMutex
	logger   *slog.Logger
}

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	return &InMemoryEventEmitter{
		handlers: make([]EventHandler, 0),
		logger:   logger.With("component", "event_emitter"),
	}
}

// RegisterHandler adds handler to the delivery list.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
}

// EmitEvent implements EventEmitter.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *ReadingEvent) error {
	e.mu.RLock()
	handlers := make([]EventHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("emitting event",
		"event_id", event.ID,
		"event_type", event.Type,
		"item_id", event.ItemID,
		"handler_count", len(handlers))

	var firstErr error
	for i, handler := range handlers {
		if err := handler.HandleEvent(ctx, event); err != nil {
			e.logger.Error("handler failed to process event",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"event_type", event.Type)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// NewActivityLogHandler returns a handler that writes one info line per event,
// giving a readable history of list changes.
func NewActivityLogHandler(logger *slog.Logger) EventHandler {
	log := logger.With("component", "activity")
	return HandlerFunc(func(ctx context.Context, event *ReadingEvent) error {
		log.InfoContext(ctx, "reading list activity",
			"event_type", event.Type,
			"item_id", event.ItemID,
			"occurred_at", event.OccurredAt)
		return nil
	})
}
