// Package kv implements store.ReadingItemStore on an embedded Badger
// database, for running the tracker without a database server. Free-text
// search is served by an in-memory Bleve index that is rebuilt from Badger
// when the store opens.
package kv

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/platform/search"
	"github.com/phrazzld/readlist-api/internal/store"
)

const (
	itemPrefix = "reading_item:"
	entityName = "reading item"
)

// Options configures where the database lives.
type Options struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path string
	// InMemory keeps all data in memory; nothing survives Close.
	InMemory bool
}

// ReadingItemStore stores reading items as JSON values keyed by id.
type ReadingItemStore struct {
	db     *badger.DB
	index  *search.Index
	logger *slog.Logger
}

// Compile-time check to ensure ReadingItemStore implements store.ReadingItemStore.
var _ store.ReadingItemStore = (*ReadingItemStore)(nil)

// Open opens (or creates) the database and builds the search index from its
// contents.
func Open(opts Options, logger *slog.Logger) (*ReadingItemStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "kv_store")

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, errors.New("kv: path is required unless running in memory")
		}
		badgerOpts = badger.DefaultOptions(opts.Path)
		badgerOpts.SyncWrites = true
		badgerOpts.CompactL0OnClose = true
	}
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	index, err := search.NewMemIndex(logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &ReadingItemStore{db: db, index: index, logger: logger}

	items, err := s.scan(context.Background())
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := index.IndexItems(items); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to build search index: %w", err)
	}

	logger.Info("badger database opened",
		"path", opts.Path,
		"in_memory", opts.InMemory,
		"items", len(items))
	return s, nil
}

// Close releases the index and the database.
func (s *ReadingItemStore) Close() error {
	return errors.Join(s.index.Close(), s.db.Close())
}

func itemKey(id string) []byte {
	return []byte(itemPrefix + id)
}

// decode turns a stored value back into a valid entity. Values written by
// older versions may use the "done" status, which decoding normalizes.
func decode(val []byte) (*domain.ReadingItem, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode reading item: %v", store.ErrInvalidEntity, err)
	}
	item, err := domain.Rehydrate(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: reading item %s: %v", store.ErrInvalidEntity, snap.ID, err)
	}
	return item, nil
}

func getItem(txn *badger.Txn, id string) (*domain.ReadingItem, error) {
	entry, err := txn.Get(itemKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, store.ErrReadingItemNotFound
		}
		return nil, err
	}
	var item *domain.ReadingItem
	err = entry.Value(func(val []byte) error {
		var decodeErr error
		item, decodeErr = decode(val)
		return decodeErr
	})
	return item, err
}

// scan loads every item ordered by creation time.
func (s *ReadingItemStore) scan(ctx context.Context) ([]*domain.ReadingItem, error) {
	var items []*domain.ReadingItem

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				item, err := decode(val)
				if err != nil {
					return err
				}
				items = append(items, item)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("scan", err)
	}

	sortByCreation(items)
	return items, nil
}

func sortByCreation(items []*domain.ReadingItem) {
	slices.SortStableFunc(items, func(a, b *domain.ReadingItem) int {
		if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
			return c
		}
		return cmp.Compare(a.ID(), b.ID())
	})
}

// wrap leaves domain-level store errors and context errors untouched and
// marks everything else as internal.
func (s *ReadingItemStore) wrap(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.logger.Error("badger operation failed", "operation", op, "error", err)
	return store.NewStoreError(entityName, op, "badger failure", fmt.Errorf("%w: %v", store.ErrInternal, err))
}

// FindAll implements store.ReadingItemStore.
func (s *ReadingItemStore) FindAll(ctx context.Context, filter store.Filter) ([]*domain.ReadingItem, error) {
	items, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return items, nil
	}

	var matched map[string]struct{}
	if q := strings.TrimSpace(filter.Search); q != "" {
		ids, err := s.index.Search(ctx, q, 0)
		if err != nil {
			return nil, s.wrap("search", err)
		}
		matched = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			matched[id] = struct{}{}
		}
	}

	out := make([]*domain.ReadingItem, 0, len(items))
	for _, item := range items {
		if filter.Status != nil && item.Status() != *filter.Status {
			continue
		}
		if filter.Tag != "" && !item.HasTag(filter.Tag) {
			continue
		}
		if matched != nil {
			if _, ok := matched[item.ID()]; !ok {
				continue
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// FindByID implements store.ReadingItemStore.
func (s *ReadingItemStore) FindByID(ctx context.Context, id string) (*domain.ReadingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var item *domain.ReadingItem
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		item, err = getItem(txn, id)
		return err
	})
	if err != nil {
		return nil, s.wrap("find", err)
	}
	return item, nil
}

// FindByStatus implements store.ReadingItemStore.
func (s *ReadingItemStore) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.ReadingItem, error) {
	return s.FindAll(ctx, store.Filter{Status: &status})
}

// FindByTag implements store.ReadingItemStore.
func (s *ReadingItemStore) FindByTag(ctx context.Context, tag string) ([]*domain.ReadingItem, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return []*domain.ReadingItem{}, nil
	}
	return s.FindAll(ctx, store.Filter{Tag: tag})
}

// Search returns matching items best match first. A blank query returns
// every item.
func (s *ReadingItemStore) Search(ctx context.Context, query string) ([]*domain.ReadingItem, error) {
	if strings.TrimSpace(query) == "" {
		return s.FindAll(ctx, store.Filter{})
	}

	ids, err := s.index.Search(ctx, query, 0)
	if err != nil {
		return nil, s.wrap("search", err)
	}

	items := make([]*domain.ReadingItem, 0, len(ids))
	err = s.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := getItem(txn, id)
			if errors.Is(err, store.ErrReadingItemNotFound) {
				// Deleted between the index lookup and the read.
				continue
			}
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, s.wrap("search", err)
	}
	return items, nil
}

// Count implements store.ReadingItemStore.
func (s *ReadingItemStore) Count(ctx context.Context, filter store.Filter) (int, error) {
	items, err := s.FindAll(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Save implements store.ReadingItemStore.
func (s *ReadingItemStore) Save(ctx context.Context, item *domain.ReadingItem) (*domain.ReadingItem, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: nil reading item", store.ErrInvalidEntity)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	data, err := json.Marshal(item.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reading item: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.ID()), data)
	})
	if err != nil {
		return nil, s.wrap("save", err)
	}

	if err := s.index.IndexItem(item); err != nil {
		s.logger.Warn("failed to index reading item", "id", item.ID(), "error", err)
	}

	s.logger.Debug("reading item saved", "id", item.ID(), "status", item.Status())
	return item, nil
}

// Delete implements store.ReadingItemStore.
func (s *ReadingItemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		key := itemKey(id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return store.ErrReadingItemNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return s.wrap("delete", err)
	}

	if err := s.index.Delete(id); err != nil {
		s.logger.Warn("failed to remove reading item from index", "id", id, "error", err)
	}
	return nil
}

// GetStatistics implements store.ReadingItemStore.
func (s *ReadingItemStore) GetStatistics(ctx context.Context) (store.Statistics, error) {
	items, err := s.scan(ctx)
	if err != nil {
		return store.Statistics{}, err
	}

	stats := store.Statistics{Total: len(items)}
	var ratingSum, rated int
	for _, item := range items {
		switch item.Status() {
		case domain.StatusToRead:
			stats.ToRead++
		case domain.StatusReading:
			stats.Reading++
		case domain.StatusFinished:
			stats.Finished++
			if r, ok := item.Rating(); ok {
				ratingSum += r.Int()
				rated++
			}
		}
	}
	if rated > 0 {
		stats.AverageRating = math.Floor(float64(ratingSum)/float64(rated)*10+0.5) / 10
	}
	return stats, nil
}
