package api

import (
	"context"

	"github.com/phrazzld/readlist-api/internal/service"
)

// MockReadingService is a mock implementation of service.ReadingService for testing
type MockReadingService struct {
	CreateReadingItemFn func(ctx context.Context, req service.CreateReadingItemRequest) (*service.ReadingItemDTO, error)
	StartReadingFn      func(ctx context.Context, id string) (*service.ReadingItemDTO, error)
	UpdateProgressFn    func(ctx context.Context, id string, req service.UpdateProgressRequest) (*service.ReadingItemDTO, error)
	FinishReadingFn     func(ctx context.Context, id string, req service.FinishReadingRequest) (*service.ReadingItemDTO, error)
	GetStatisticsFn     func(ctx context.Context) (*service.StatisticsDTO, error)
	GetItemFn           func(ctx context.Context, id string) (*service.ReadingItemDTO, error)
	ListItemsFn         func(ctx context.Context, req service.ListItemsRequest) ([]service.ReadingItemDTO, error)
	DeleteItemFn        func(ctx context.Context, id string) error
	UpdatePriorityFn    func(ctx context.Context, id string, req service.UpdatePriorityRequest) (*service.ReadingItemDTO, error)
	AddTagFn            func(ctx context.Context, id string, req service.AddTagRequest) (*service.ReadingItemDTO, error)
	RemoveTagFn         func(ctx context.Context, id, tag string) (*service.ReadingItemDTO, error)
	SuggestNextReadsFn  func(ctx context.Context, limit int) ([]service.ReadingItemDTO, error)
	GetListBalanceFn    func(ctx context.Context) (*service.ListBalanceDTO, error)
	GetReadingGoalsFn   func(ctx context.Context) (*service.ReadingGoalsDTO, error)
}

var _ service.ReadingService = (*MockReadingService)(nil)

func (m *MockReadingService) CreateReadingItem(
	ctx context.Context,
	req service.CreateReadingItemRequest,
) (*service.ReadingItemDTO, error) {
	if m.CreateReadingItemFn != nil {
		return m.CreateReadingItemFn(ctx, req)
	}
	return nil, nil
}

func (m *MockReadingService) StartReading(ctx context.Context, id string) (*service.ReadingItemDTO, error) {
	if m.StartReadingFn != nil {
		return m.StartReadingFn(ctx, id)
	}
	return nil, nil
}

func (m *MockReadingService) UpdateProgress(
	ctx context.Context,
	id string,
	req service.UpdateProgressRequest,
) (*service.ReadingItemDTO, error) {
	if m.UpdateProgressFn != nil {
		return m.UpdateProgressFn(ctx, id, req)
	}
	return nil, nil
}

func (m *MockReadingService) FinishReading(
	ctx context.Context,
	id string,
	req service.FinishReadingRequest,
) (*service.ReadingItemDTO, error) {
	if m.FinishReadingFn != nil {
		return m.FinishReadingFn(ctx, id, req)
	}
	return nil, nil
}

func (m *MockReadingService) GetStatistics(ctx context.Context) (*service.StatisticsDTO, error) {
	if m.GetStatisticsFn != nil {
		return m.GetStatisticsFn(ctx)
	}
	return nil, nil
}

func (m *MockReadingService) GetItem(ctx context.Context, id string) (*service.ReadingItemDTO, error) {
	if m.GetItemFn != nil {
		return m.GetItemFn(ctx, id)
	}
	return nil, nil
}

func (m *MockReadingService) ListItems(
	ctx context.Context,
	req service.ListItemsRequest,
) ([]service.ReadingItemDTO, error) {
	if m.ListItemsFn != nil {
		return m.ListItemsFn(ctx, req)
	}
	return []service.ReadingItemDTO{}, nil
}

func (m *MockReadingService) DeleteItem(ctx context.Context, id string) error {
	if m.DeleteItemFn != nil {
		return m.DeleteItemFn(ctx, id)
	}
	return nil
}

func (m *MockReadingService) UpdatePriority(
	ctx context.Context,
	id string,
	req service.UpdatePriorityRequest,
) (*service.ReadingItemDTO, error) {
	if m.UpdatePriorityFn != nil {
		return m.UpdatePriorityFn(ctx, id, req)
	}
	return nil, nil
}

func (m *MockReadingService) AddTag(
	ctx context.Context,
	id string,
	req service.AddTagRequest,
) (*service.ReadingItemDTO, error) {
	if m.AddTagFn != nil {
		return m.AddTagFn(ctx, id, req)
	}
	return nil, nil
}

func (m *MockReadingService) RemoveTag(ctx context.Context, id, tag string) (*service.ReadingItemDTO, error) {
	if m.RemoveTagFn != nil {
		return m.RemoveTagFn(ctx, id, tag)
	}
	return nil, nil
}

func (m *MockReadingService) SuggestNextReads(ctx context.Context, limit int) ([]service.ReadingItemDTO, error) {
	if m.SuggestNextReadsFn != nil {
		return m.SuggestNextReadsFn(ctx, limit)
	}
	return []service.ReadingItemDTO{}, nil
}

func (m *MockReadingService) GetListBalance(ctx context.Context) (*service.ListBalanceDTO, error) {
	if m.GetListBalanceFn != nil {
		return m.GetListBalanceFn(ctx)
	}
	return nil, nil
}

func (m *MockReadingService) GetReadingGoals(ctx context.Context) (*service.ReadingGoalsDTO, error) {
	if m.GetReadingGoalsFn != nil {
		return m.GetReadingGoalsFn(ctx)
	}
	return nil, nil
}
