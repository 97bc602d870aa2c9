package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/platform/logger"
	"github.com/phrazzld/readlist-api/internal/store"
)

const selectItems = `
	SELECT i.id, i.title, i.author, i.status, i.priority, i.progress, i.rating,
		i.notes, i.start_date, i.finish_date, i.created_at, i.updated_at,
		COALESCE((
			SELECT json_agg(t.tag ORDER BY t.position)
			FROM reading_item_tags t
			WHERE t.item_id = i.id
		), '[]'::json)::text AS tags
	FROM reading_items i`

const orderByCreation = ` ORDER BY i.created_at, i.id`

// ReadingItemStore implements store.ReadingItemStore on PostgreSQL. Tags live
// in reading_item_tags and are rewritten on every save.
type ReadingItemStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Ensure ReadingItemStore implements store.ReadingItemStore interface
var _ store.ReadingItemStore = (*ReadingItemStore)(nil)

// NewReadingItemStore creates a store on an open connection pool. If logger
// is nil, a default logger will be used.
func NewReadingItemStore(db *sql.DB, logger *slog.Logger) *ReadingItemStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "reading_item_store")),
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.ReadingItem, error) {
	var (
		snap                  domain.Snapshot
		status, priority      string
		progress, rating      sql.NullInt32
		notes                 sql.NullString
		startDate, finishDate sql.NullTime
		tags                  []byte
	)

	err := row.Scan(
		&snap.ID,
		&snap.Title,
		&snap.Author,
		&status,
		&priority,
		&progress,
		&rating,
		&notes,
		&startDate,
		&finishDate,
		&snap.CreatedAt,
		&snap.UpdatedAt,
		&tags,
	)
	if err != nil {
		return nil, err
	}

	if snap.Status, err = domain.NewStatus(status); err != nil {
		return nil, fmt.Errorf("%w: reading item %s: %v", store.ErrInvalidEntity, snap.ID, err)
	}
	if snap.Priority, err = domain.NewPriority(priority); err != nil {
		return nil, fmt.Errorf("%w: reading item %s: %v", store.ErrInvalidEntity, snap.ID, err)
	}
	if err := json.Unmarshal(tags, &snap.Tags); err != nil {
		return nil, fmt.Errorf("%w: reading item %s tags: %v", store.ErrInvalidEntity, snap.ID, err)
	}
	if progress.Valid {
		p := domain.Progress(progress.Int32)
		snap.Progress = &p
	}
	if rating.Valid {
		r := domain.Rating(rating.Int32)
		snap.Rating = &r
	}
	if notes.Valid {
		snap.Notes = &notes.String
	}
	if startDate.Valid {
		snap.StartDate = &startDate.Time
	}
	if finishDate.Valid {
		snap.FinishDate = &finishDate.Time
	}

	item, err := domain.Rehydrate(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: reading item %s: %v", store.ErrInvalidEntity, snap.ID, err)
	}
	return item, nil
}

func (s *ReadingItemStore) query(ctx context.Context, query string, args ...any) ([]*domain.ReadingItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []*domain.ReadingItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// FindAll implements store.ReadingItemStore.FindAll
func (s *ReadingItemStore) FindAll(ctx context.Context, filter store.Filter) ([]*domain.ReadingItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	where, args := buildWhere(filter)
	items, err := s.query(ctx, selectItems+where+orderByCreation, args...)
	if err != nil {
		log.Error("failed to list reading items", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed reading items", slog.Int("count", len(items)))
	return items, nil
}

// FindByID implements store.ReadingItemStore.FindByID
// Returns store.ErrReadingItemNotFound if the item does not exist.
func (s *ReadingItemStore) FindByID(ctx context.Context, id string) (*domain.ReadingItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, selectItems+` WHERE i.id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("reading item not found", slog.String("item_id", id))
			return nil, store.ErrReadingItemNotFound
		}
		log.Error("failed to get reading item",
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return nil, MapError(err)
	}
	return item, nil
}

// FindByStatus implements store.ReadingItemStore.FindByStatus
func (s *ReadingItemStore) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.ReadingItem, error) {
	return s.FindAll(ctx, store.Filter{Status: &status})
}

// FindByTag implements store.ReadingItemStore.FindByTag
func (s *ReadingItemStore) FindByTag(ctx context.Context, tag string) ([]*domain.ReadingItem, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return []*domain.ReadingItem{}, nil
	}
	return s.FindAll(ctx, store.Filter{Tag: tag})
}

// Search matches the query case-insensitively as a substring of title,
// author, notes or any tag. A blank query returns every item.
func (s *ReadingItemStore) Search(ctx context.Context, query string) ([]*domain.ReadingItem, error) {
	return s.FindAll(ctx, store.Filter{Search: query})
}

// Count implements store.ReadingItemStore.Count
func (s *ReadingItemStore) Count(ctx context.Context, filter store.Filter) (int, error) {
	where, args := buildWhere(filter)

	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reading_items i`+where, args...).Scan(&n)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count reading items",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return n, nil
}

// Save implements store.ReadingItemStore.Save
// The item row is upserted and its tags replaced in one transaction.
func (s *ReadingItemStore) Save(ctx context.Context, item *domain.ReadingItem) (*domain.ReadingItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if item == nil {
		return nil, fmt.Errorf("%w: nil reading item", store.ErrInvalidEntity)
	}
	if err := item.Validate(); err != nil {
		log.Warn("reading item validation failed during save",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID()))
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := upsertItem(ctx, tx, item); err != nil {
			return err
		}
		return replaceTags(ctx, tx, item.ID(), item.Tags())
	})
	if err != nil {
		log.Error("failed to save reading item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID()))
		return nil, MapError(err)
	}

	log.Debug("reading item saved",
		slog.String("item_id", item.ID()),
		slog.String("status", item.Status().String()))
	return item, nil
}

func upsertItem(ctx context.Context, db store.DBTX, item *domain.ReadingItem) error {
	snap := item.Snapshot()

	var progress, rating sql.NullInt32
	if snap.Progress != nil {
		progress = sql.NullInt32{Int32: int32(*snap.Progress), Valid: true}
	}
	if snap.Rating != nil {
		rating = sql.NullInt32{Int32: int32(*snap.Rating), Valid: true}
	}
	var notes sql.NullString
	if snap.Notes != nil {
		notes = sql.NullString{String: *snap.Notes, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO reading_items (
			id, title, author, status, priority, progress, rating, notes,
			start_date, finish_date, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			status = EXCLUDED.status,
			priority = EXCLUDED.priority,
			progress = EXCLUDED.progress,
			rating = EXCLUDED.rating,
			notes = EXCLUDED.notes,
			start_date = EXCLUDED.start_date,
			finish_date = EXCLUDED.finish_date,
			updated_at = EXCLUDED.updated_at
	`,
		snap.ID,
		snap.Title,
		snap.Author,
		snap.Status.String(),
		snap.Priority.String(),
		progress,
		rating,
		notes,
		nullTime(snap.StartDate),
		nullTime(snap.FinishDate),
		snap.CreatedAt,
		snap.UpdatedAt,
	)
	return err
}

func replaceTags(ctx context.Context, db store.DBTX, id string, tags []string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM reading_item_tags WHERE item_id = $1`, id); err != nil {
		return err
	}
	for pos, tag := range tags {
		_, err := db.ExecContext(ctx,
			`INSERT INTO reading_item_tags (item_id, tag, position) VALUES ($1, $2, $3)`,
			id, tag, pos)
		if err != nil {
			return err
		}
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Delete implements store.ReadingItemStore.Delete
// Tags are removed by the foreign key cascade.
func (s *ReadingItemStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM reading_items WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete reading item",
			slog.String("error", err.Error()),
			slog.String("item_id", id))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrReadingItemNotFound); err != nil {
		return err
	}

	log.Debug("reading item deleted", slog.String("item_id", id))
	return nil
}

// GetStatistics implements store.ReadingItemStore.GetStatistics
func (s *ReadingItemStore) GetStatistics(ctx context.Context) (store.Statistics, error) {
	var stats store.Statistics
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'to-read'),
			COUNT(*) FILTER (WHERE status = 'reading'),
			COUNT(*) FILTER (WHERE status = 'finished'),
			COALESCE(ROUND(AVG(rating) FILTER (WHERE status = 'finished'), 1), 0)::float8
		FROM reading_items
	`).Scan(&stats.Total, &stats.ToRead, &stats.Reading, &stats.Finished, &stats.AverageRating)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to compute reading statistics",
			slog.String("error", err.Error()))
		return store.Statistics{}, MapError(err)
	}
	return stats, nil
}
