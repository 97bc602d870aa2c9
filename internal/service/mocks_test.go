package service

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/events"
	"github.com/phrazzld/readlist-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockReadingItemStore mocks the store.ReadingItemStore interface
type MockReadingItemStore struct {
	mock.Mock
}

var _ store.ReadingItemStore = (*MockReadingItemStore)(nil)

func (m *MockReadingItemStore) FindAll(ctx context.Context, filter store.Filter) ([]*domain.ReadingItem, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReadingItem), args.Error(1)
}

func (m *MockReadingItemStore) FindByID(ctx context.Context, id string) (*domain.ReadingItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReadingItem), args.Error(1)
}

func (m *MockReadingItemStore) FindByStatus(
	ctx context.Context,
	status domain.Status,
) ([]*domain.ReadingItem, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReadingItem), args.Error(1)
}

func (m *MockReadingItemStore) FindByTag(ctx context.Context, tag string) ([]*domain.ReadingItem, error) {
	args := m.Called(ctx, tag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReadingItem), args.Error(1)
}

func (m *MockReadingItemStore) Search(ctx context.Context, query string) ([]*domain.ReadingItem, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReadingItem), args.Error(1)
}

func (m *MockReadingItemStore) Count(ctx context.Context, filter store.Filter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

// Save returns the item it was given unless the expectation supplies one.
func (m *MockReadingItemStore) Save(ctx context.Context, item *domain.ReadingItem) (*domain.ReadingItem, error) {
	args := m.Called(ctx, item)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if saved, ok := args.Get(0).(*domain.ReadingItem); ok && saved != nil {
		return saved, nil
	}
	return item, nil
}

func (m *MockReadingItemStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReadingItemStore) GetStatistics(ctx context.Context) (store.Statistics, error) {
	args := m.Called(ctx)
	return args.Get(0).(store.Statistics), args.Error(1)
}

// MockEventEmitter mocks the events.EventEmitter interface
type MockEventEmitter struct {
	mock.Mock
}

func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.ReadingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// recordingEmitter keeps every emitted event for later assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []*events.ReadingEvent
}

func (r *recordingEmitter) EmitEvent(_ context.Context, event *events.ReadingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// recordingMetrics keeps every recorded operation outcome.
type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string][]error
}

func (r *recordingMetrics) RecordOperation(op string, err error, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = make(map[string][]error)
	}
	r.outcomes[op] = append(r.outcomes[op], err)
}

func (r *recordingMetrics) RecordHTTPStatus(int) {}

func (r *recordingMetrics) calls(op string) []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcomes[op]
}
