package store

import (
	"context"

	"github.com/phrazzld/readlist-api/internal/domain"
)

// Filter narrows the items returned by FindAll and Count. Zero fields do not
// filter.
type Filter struct {
	Status *domain.Status
	// Tag matches items carrying exactly this tag.
	Tag string
	// Search is free text; each adapter decides how it matches.
	Search string
}

// IsZero reports whether the filter matches every item.
func (f Filter) IsZero() bool {
	return f.Status == nil && f.Tag == "" && f.Search == ""
}

// Statistics are the aggregate counts a store can compute directly.
type Statistics struct {
	Total         int
	ToRead        int
	Reading       int
	Finished      int
	AverageRating float64
}

// ReadingItemStore defines the interface for reading item persistence.
// Items are returned ordered by creation time, oldest first.
type ReadingItemStore interface {
	// FindAll returns every item matching the filter.
	FindAll(ctx context.Context, filter Filter) ([]*domain.ReadingItem, error)

	// FindByID returns ErrReadingItemNotFound if the item does not exist.
	FindByID(ctx context.Context, id string) (*domain.ReadingItem, error)

	FindByStatus(ctx context.Context, status domain.Status) ([]*domain.ReadingItem, error)

	FindByTag(ctx context.Context, tag string) ([]*domain.ReadingItem, error)

	// Search matches free text against title, author, notes and tags.
	Search(ctx context.Context, query string) ([]*domain.ReadingItem, error)

	Count(ctx context.Context, filter Filter) (int, error)

	// Save inserts or replaces the item and returns the stored value.
	// Concurrent saves of the same id are last-write-wins.
	Save(ctx context.Context, item *domain.ReadingItem) (*domain.ReadingItem, error)

	// Delete returns ErrReadingItemNotFound if the item does not exist.
	Delete(ctx context.Context, id string) error

	// GetStatistics returns status counts and the average rating of finished,
	// rated items rounded to one decimal.
	GetStatistics(ctx context.Context) (Statistics, error)
}
