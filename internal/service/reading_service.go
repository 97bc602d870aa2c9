package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/domain/insights"
	"github.com/phrazzld/readlist-api/internal/events"
	"github.com/phrazzld/readlist-api/internal/platform/logger"
	"github.com/phrazzld/readlist-api/internal/platform/metrics"
	"github.com/phrazzld/readlist-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/phrazzld/readlist-api/internal/service"

// ReadingService provides the reading list use cases.
type ReadingService interface {
	// CreateReadingItem adds a new to-read item.
	CreateReadingItem(ctx context.Context, req CreateReadingItemRequest) (*ReadingItemDTO, error)

	// StartReading moves a to-read item to reading. It fails with a
	// BusinessRuleError when too many items are already being read.
	StartReading(ctx context.Context, id string) (*ReadingItemDTO, error)

	// UpdateProgress records progress; reaching 100 finishes the item.
	UpdateProgress(ctx context.Context, id string, req UpdateProgressRequest) (*ReadingItemDTO, error)

	// FinishReading finishes an item being read, with an optional rating and notes.
	FinishReading(ctx context.Context, id string, req FinishReadingRequest) (*ReadingItemDTO, error)

	// GetStatistics merges store counts with derived statistics and the streak.
	GetStatistics(ctx context.Context) (*StatisticsDTO, error)

	GetItem(ctx context.Context, id string) (*ReadingItemDTO, error)
	ListItems(ctx context.Context, req ListItemsRequest) ([]ReadingItemDTO, error)
	DeleteItem(ctx context.Context, id string) error
	UpdatePriority(ctx context.Context, id string, req UpdatePriorityRequest) (*ReadingItemDTO, error)
	AddTag(ctx context.Context, id string, req AddTagRequest) (*ReadingItemDTO, error)
	RemoveTag(ctx context.Context, id, tag string) (*ReadingItemDTO, error)

	// SuggestNextReads returns up to limit to-read items worth starting next.
	SuggestNextReads(ctx context.Context, limit int) ([]ReadingItemDTO, error)

	// GetListBalance returns advisory warnings; it never blocks anything.
	GetListBalance(ctx context.Context) (*ListBalanceDTO, error)

	GetReadingGoals(ctx context.Context) (*ReadingGoalsDTO, error)
}

// readingServiceImpl implements the ReadingService interface
type readingServiceImpl struct {
	store        store.ReadingItemStore
	insights     insights.Service
	eventEmitter events.EventEmitter
	metrics      metrics.Recorder
	clock        func() time.Time
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewReadingService creates a new ReadingService.
// The store and event emitter are required. A nil insights service, recorder
// or clock falls back to the defaults.
func NewReadingService(
	itemStore store.ReadingItemStore,
	insightsService insights.Service,
	eventEmitter events.EventEmitter,
	recorder metrics.Recorder,
	clock        func() time.Time,
	logger       *slog.Logger,
) (ReadingService, error) {
	if itemStore == nil {
		return nil, &ReadingServiceError{
			Operation: "create_service",
			Message:   "store cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &ReadingServiceError{
			Operation: "create_service",
			Message:   "eventEmitter cannot be nil",
		}
	}
	if insightsService == nil {
		insightsService = insights.NewDefaultService()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &readingServiceImpl{
		store:        itemStore,
		insights:     insightsService,
		eventEmitter: eventEmitter,
		metrics:      recorder,
		clock:        clock,
		tracer:       otel.Tracer(tracerName),
		logger:       logger.With("component", "reading_service"),
	}, nil
}

// begin opens a span for op. The returned func records the outcome on the
// span and in metrics; call it deferred with the named error result.
func (s *readingServiceImpl) begin(
	ctx context.Context,
	op string,
	attrs ...attribute.KeyValue,
) (context.Context, func(*error)) {
	ctx, span := s.tracer.Start(ctx, "ReadingService."+op, trace.WithAttributes(attrs...))
	start := time.Now()
	return ctx, func(errp *error) {
		err := *errp
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, metrics.Outcome(err))
		}
		span.End()
		s.metrics.RecordOperation(op, err, time.Since(start))
	}
}

func (s *readingServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

func (s *readingServiceImpl) load(ctx context.Context, op, id string) (*domain.ReadingItem, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.log(ctx).Error("failed to load reading item",
				"error", err,
				"operation", op,
				"item_id", id)
		}
		return nil, mapStoreError(op, "failed to load reading item", id, err)
	}
	return item, nil
}

func (s *readingServiceImpl) save(ctx context.Context, op string, item *domain.ReadingItem) (*domain.ReadingItem, error) {
	saved, err := s.store.Save(ctx, item)
	if err != nil {
		s.log(ctx).Error("failed to save reading item",
			"error", err,
			"operation", op,
			"item_id", item.ID())
		return nil, NewReadingServiceError(op, "failed to save reading item", err)
	}
	return saved, nil
}

func (s *readingServiceImpl) all(ctx context.Context, op string) ([]*domain.ReadingItem, error) {
	items, err := s.store.FindAll(ctx, store.Filter{})
	if err != nil {
		s.log(ctx).Error("failed to list reading items", "error", err, "operation", op)
		return nil, NewReadingServiceError(op, "failed to list reading items", err)
	}
	return items, nil
}

// emit publishes a lifecycle event. The change is already stored, so a
// failing handler is logged and does not fail the operation.
func (s *readingServiceImpl) emit(ctx context.Context, eventType string, item *domain.ReadingItem, payload any) {
	event, err := events.NewReadingEvent(eventType, item.ID(), payload, s.clock())
	if err != nil {
		s.log(ctx).Error("failed to build event", "error", err, "event_type", eventType, "item_id", item.ID())
		return
	}
	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.log(ctx).Warn("event handler failed",
			"error", err,
			"event_id", event.ID,
			"event_type", eventType,
			"item_id", item.ID())
	}
}

type statusPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type progressPayload struct {
	Progress int `json:"progress"`
}

type finishedPayload struct {
	Rating *int `json:"rating,omitempty"`
}

// CreateReadingItem implements ReadingService.
func (s *readingServiceImpl) CreateReadingItem(
	ctx context.Context,
	req CreateReadingItemRequest,
) (_ *ReadingItemDTO, err error) {
	ctx, done := s.begin(ctx, "create_reading_item")
	defer done(&err)

	var priority domain.Priority
	if strings.TrimSpace(req.Priority) != "" {
		if priority, err = domain.NewPriority(req.Priority); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	item, err := domain.NewReadingItem(domain.CreateParams{
		Title:    req.Title,
		Author:   req.Author,
		Priority: priority,
		Tags:     req.Tags,
	}, now)
	if err != nil {
		return nil, err
	}
	item = item.WithNotes(req.Notes, now)

	saved, err := s.save(ctx, "create_reading_item", item)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("reading item created",
		"item_id", saved.ID(),
		"priority", saved.Priority())
	s.emit(ctx, events.TypeItemCreated, saved, nil)

	dto := NewReadingItemDTO(saved)
	return &dto, nil
}

// StartReading implements ReadingService.
func (s *readingServiceImpl) StartReading(ctx context.Context, id string) (_ *ReadingItemDTO, err error) {
	const op = "start_reading"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	reading, err := s.store.FindByStatus(ctx, domain.StatusReading)
	if err != nil {
		s.log(ctx).Error("failed to count items being read", "error", err, "item_id", id)
		return nil, NewReadingServiceError(op, "failed to count items being read", err)
	}
	if len(reading) >= s.insights.MaxConcurrentReads() {
		return nil, &domain.BusinessRuleError{
			Rule:    domain.RuleMaxConcurrentReads,
			Message: fmt.Sprintf("too many concurrent reads: already reading %d items", len(reading)),
		}
	}

	if !s.insights.CanMoveToStatus(item, domain.StatusReading) {
		return nil, &domain.TransitionError{Action: "start reading", From: item.Status(), To: domain.StatusReading}
	}

	started, err := item.StartReading(s.clock())
	if err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, op, started)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("started reading", "item_id", id)
	s.emit(ctx, events.TypeReadingStarted, saved, statusPayload{
		From: item.Status().String(),
		To:   saved.Status().String(),
	})

	dto := NewReadingItemDTO(saved)
	return &dto, nil
}

// UpdateProgress implements ReadingService.
func (s *readingServiceImpl) UpdateProgress(
	ctx context.Context,
	id string,
	req UpdateProgressRequest,
) (_ *ReadingItemDTO, err error) {
	const op = "update_progress"
	ctx, done := s.begin(ctx, op,
		attribute.String("item.id", id),
		attribute.Int("progress", req.Progress))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	progress, err := domain.NewProgress(req.Progress)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	updated, err := item.UpdateProgress(progress.Int(), now)
	if err != nil {
		return nil, err
	}
	autoFinished := false
	if progress.IsComplete() {
		if updated, err = updated.FinishReading(nil, now); err != nil {
			return nil, err
		}
		autoFinished = true
	}

	saved, err := s.save(ctx, op, updated)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Debug("reading progress updated",
		"item_id", id,
		"progress", progress.Int(),
		"auto_finished", autoFinished)
	s.emit(ctx, events.TypeProgressed, saved, progressPayload{Progress: progress.Int()})
	if autoFinished {
		s.emit(ctx, events.TypeFinished, saved, finishedPayload{})
	}

	dto := NewReadingItemDTO(saved)
	return &dto, nil
}

// FinishReading implements ReadingService.
func (s *readingServiceImpl) FinishReading(
	ctx context.Context,
	id string,
	req FinishReadingRequest,
) (_ *ReadingItemDTO, err error) {
	const op = "finish_reading"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if !s.insights.CanMoveToStatus(item, domain.StatusFinished) {
		return nil, &domain.BusinessRuleError{
			Rule:    domain.RuleFinishRequiresReading,
			Message: fmt.Sprintf("only items being read can be finished; item is %s", item.Status()),
		}
	}

	if req.Rating != nil {
		if _, err := domain.NewRating(*req.Rating); err != nil {
			return nil, err
		}
	}

	now := s.clock()
	finished, err := item.FinishReading(req.Rating, now)
	if err != nil {
		return nil, err
	}
	finished = finished.WithNotes(req.Notes, now)

	saved, err := s.save(ctx, op, finished)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("finished reading", "item_id", id)
	s.emit(ctx, events.TypeFinished, saved, finishedPayload{Rating: req.Rating})

	dto := NewReadingItemDTO(saved)
	return &dto, nil
}

// GetStatistics implements ReadingService.
func (s *readingServiceImpl) GetStatistics(ctx context.Context) (_ *StatisticsDTO, err error) {
	const op = "get_statistics"
	ctx, done := s.begin(ctx, op)
	defer done(&err)

	items, err := s.all(ctx, op)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.GetStatistics(ctx)
	if err != nil {
		s.log(ctx).Error("failed to compute store statistics", "error", err)
		return nil, NewReadingServiceError(op, "failed to compute store statistics", err)
	}

	now := s.clock()
	derived := s.insights.CalculateStatistics(items, now)
	streak := s.insights.CalculateReadingStreak(items, now)

	dto := newStatisticsDTO(counts, derived, streak)
	return &dto, nil
}

// GetItem implements ReadingService.
func (s *readingServiceImpl) GetItem(ctx context.Context, id string) (_ *ReadingItemDTO, err error) {
	const op = "get_item"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	dto := NewReadingItemDTO(item)
	return &dto, nil
}

// ListItems implements ReadingService.
func (s *readingServiceImpl) ListItems(ctx context.Context, req ListItemsRequest) (_ []ReadingItemDTO, err error) {
	const op = "list_items"
	ctx, done := s.begin(ctx, op)
	defer done(&err)

	filter := store.Filter{
		Tag:    strings.TrimSpace(req.Tag),
		Search: strings.TrimSpace(req.Search),
	}
	if strings.TrimSpace(req.Status) != "" {
		status, err := domain.NewStatus(req.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	var items []*domain.ReadingItem
	if filter.Status == nil && filter.Tag == "" && filter.Search != "" {
		// Search alone goes through the store's search so results keep its ranking.
		items, err = s.store.Search(ctx, filter.Search)
	} else {
		items, err = s.store.FindAll(ctx, filter)
	}
	if err != nil {
		s.log(ctx).Error("failed to list reading items", "error", err)
		return nil, NewReadingServiceError(op, "failed to list reading items", err)
	}
	return newReadingItemDTOs(items), nil
}

// DeleteItem implements ReadingService.
func (s *readingServiceImpl) DeleteItem(ctx context.Context, id string) (err error) {
	const op = "delete_item"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if !store.IsNotFoundError(err) {
			s.log(ctx).Error("failed to delete reading item", "error", err, "item_id", id)
		}
		return mapStoreError(op, "failed to delete reading item", id, err)
	}

	s.log(ctx).Info("reading item deleted", "item_id", id)
	s.emit(ctx, events.TypeItemDeleted, item, nil)
	return nil
}

// UpdatePriority implements ReadingService.
func (s *readingServiceImpl) UpdatePriority(
	ctx context.Context,
	id string,
	req UpdatePriorityRequest,
) (_ *ReadingItemDTO, err error) {
	const op = "update_priority"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	priority, err := domain.NewPriority(req.Priority)
	if err != nil {
		return nil, err
	}
	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	updated, err := item.UpdatePriority(priority, s.clock())
	if err != nil {
		return nil, err
	}
	return s.saveUpdate(ctx, op, item, updated)
}

// AddTag implements ReadingService.
func (s *readingServiceImpl) AddTag(ctx context.Context, id string, req AddTagRequest) (_ *ReadingItemDTO, err error) {
	const op = "add_tag"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	updated, err := item.AddTag(req.Tag, s.clock())
	if err != nil {
		return nil, err
	}
	return s.saveUpdate(ctx, op, item, updated)
}

// RemoveTag implements ReadingService.
func (s *readingServiceImpl) RemoveTag(ctx context.Context, id, tag string) (_ *ReadingItemDTO, err error) {
	const op = "remove_tag"
	ctx, done := s.begin(ctx, op, attribute.String("item.id", id))
	defer done(&err)

	item, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	updated, err := item.RemoveTag(tag, s.clock())
	if err != nil {
		return nil, err
	}
	return s.saveUpdate(ctx, op, item, updated)
}

// saveUpdate stores updated unless the mutation was a no-op.
func (s *readingServiceImpl) saveUpdate(
	ctx context.Context,
	op string,
	before, updated *domain.ReadingItem,
) (*ReadingItemDTO, error) {
	if updated == before {
		dto := NewReadingItemDTO(before)
		return &dto, nil
	}
	saved, err := s.save(ctx, op, updated)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.TypeItemUpdated, saved, nil)
	dto := NewReadingItemDTO(saved)
	return &dto, nil
}

// SuggestNextReads implements ReadingService.
func (s *readingServiceImpl) SuggestNextReads(ctx context.Context, limit int) (_ []ReadingItemDTO, err error) {
	const op = "suggest_next_reads"
	ctx, done := s.begin(ctx, op, attribute.Int("limit", limit))
	defer done(&err)

	items, err := s.all(ctx, op)
	if err != nil {
		return nil, err
	}
	reading := make([]*domain.ReadingItem, 0)
	for _, item := range items {
		if item.Status().IsReading() {
			reading = append(reading, item)
		}
	}
	return newReadingItemDTOs(s.insights.SuggestNextReads(items, reading, limit)), nil
}

// GetListBalance implements ReadingService.
func (s *readingServiceImpl) GetListBalance(ctx context.Context) (_ *ListBalanceDTO, err error) {
	const op = "get_list_balance"
	ctx, done := s.begin(ctx, op)
	defer done(&err)

	items, err := s.all(ctx, op)
	if err != nil {
		return nil, err
	}
	balance := s.insights.ValidateListBalance(items)
	return &ListBalanceDTO{
		IsBalanced: balance.IsBalanced,
		Warnings:   balance.Warnings,
	}, nil
}

// GetReadingGoals implements ReadingService.
func (s *readingServiceImpl) GetReadingGoals(ctx context.Context) (_ *ReadingGoalsDTO, err error) {
	const op = "get_reading_goals"
	ctx, done := s.begin(ctx, op)
	defer done(&err)

	items, err := s.all(ctx, op)
	if err != nil {
		return nil, err
	}
	goals := s.insights.GenerateReadingGoals(items, s.clock())
	return &ReadingGoalsDTO{
		YearlyGoal:       goals.YearlyGoal,
		MonthlyGoal:      goals.MonthlyGoal,
		CurrentProgress:  goals.CurrentProgress,
		ExpectedProgress: goals.ExpectedProgress,
		IsOnTrack:        goals.IsOnTrack,
	}, nil
}
