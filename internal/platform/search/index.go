// Package search maintains an in-memory Bleve full-text index over reading
// items. The local store rebuilds it on open and keeps it current on every
// write.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/phrazzld/readlist-api/internal/domain"
)

const batchSize = 200

// Index is a concurrency-safe full-text index of reading items.
type Index struct {
	index  bleve.Index
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewMemIndex creates an empty index held entirely in memory.
func NewMemIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return &Index{
		index:  idx,
		logger: logger.With("component", "search_index"),
	}, nil
}

// document is the indexed form of a reading item.
func document(item *domain.ReadingItem) map[string]any {
	doc := map[string]any{
		fieldTitle:  item.Title(),
		fieldAuthor: item.Author(),
		fieldTags:   item.Tags(),
	}
	if notes, ok := item.Notes(); ok {
		doc[fieldNotes] = notes
	}
	return doc
}

// IndexItem adds or replaces item in the index.
func (i *Index) IndexItem(item *domain.ReadingItem) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err := i.index.Index(item.ID(), document(item)); err != nil {
		return fmt.Errorf("index %s: %w", item.ID(), err)
	}
	return nil
}

// IndexItems indexes items in batches.
func (i *Index) IndexItems(items []*domain.ReadingItem) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		batch := i.index.NewBatch()
		for _, item := range items[start:end] {
			if err := batch.Index(item.ID(), document(item)); err != nil {
				return fmt.Errorf("batch index %s: %w", item.ID(), err)
			}
		}
		if err := i.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", start, end, err)
		}
	}

	i.logger.Debug("indexed reading items", "count", len(items))
	return nil
}

// Delete removes id from the index. Unknown ids are ignored.
func (i *Index) Delete(id string) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.Delete(id)
}

// Count returns the number of indexed items.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.index.DocCount()
}

// Search returns the ids of items matching text, best match first. A limit
// of zero or less returns every match.
func (i *Index) Search(ctx context.Context, text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []string{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		n, err := i.index.DocCount()
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		limit = max(int(n), 1)
	}

	req := bleve.NewSearchRequestOptions(buildQuery(text), limit, 0, false)
	result, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Close releases the index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.index.Close()
}

// buildQuery matches title, author, notes and tags, with fuzzy and prefix
// matching on title and author for typos and partial input.
func buildQuery(text string) query.Query {
	queries := []query.Query{}

	titleMatch := bleve.NewMatchQuery(text)
	titleMatch.SetField(fieldTitle)
	titleMatch.SetBoost(3.0)
	queries = append(queries, titleMatch)

	authorMatch := bleve.NewMatchQuery(text)
	authorMatch.SetField(fieldAuthor)
	authorMatch.SetBoost(2.0)
	queries = append(queries, authorMatch)

	notesMatch := bleve.NewMatchQuery(text)
	notesMatch.SetField(fieldNotes)
	queries = append(queries, notesMatch)

	tagMatch := bleve.NewMatchQuery(text)
	tagMatch.SetField(fieldTags)
	tagMatch.SetBoost(1.5)
	queries = append(queries, tagMatch)

	lower := strings.ToLower(text)
	if !strings.Contains(lower, " ") {
		fuzzy := bleve.NewFuzzyQuery(lower)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField(fieldTitle)
		fuzzy.SetBoost(0.8)
		queries = append(queries, fuzzy)

		if len(lower) >= 2 {
			for _, field := range []string{fieldTitle, fieldAuthor} {
				prefix := bleve.NewPrefixQuery(lower)
				prefix.SetField(field)
				prefix.SetBoost(0.5)
				queries = append(queries, prefix)
			}
		}
	}

	return bleve.NewDisjunctionQuery(queries...)
}
