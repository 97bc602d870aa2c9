package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemColumns = []string{
	"id", "title", "author", "status", "priority", "progress", "rating",
	"notes", "start_date", "finish_date", "created_at", "updated_at", "tags",
}

var (
	created  = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	started  = created.Add(24 * time.Hour)
	finished = started.Add(72 * time.Hour)
)

func newMockStore(t *testing.T) (*ReadingItemStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewReadingItemStore(db, nil), mock
}

func finishedRow() []driver.Value {
	return []driver.Value{
		"item-1", "Dune", "Frank Herbert", "finished", "high", int64(100), int64(5),
		"great", started, finished, created, finished, []byte(`["sci-fi","classic"]`),
	}
}

func TestFindByID(t *testing.T) {
	t.Parallel()

	t.Run("scans every column", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		mock.ExpectQuery(`FROM reading_items i WHERE i\.id = \$1`).
			WithArgs("item-1").
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(finishedRow()...))

		item, err := s.FindByID(context.Background(), "item-1")
		require.NoError(t, err)

		assert.Equal(t, "Dune", item.Title())
		assert.Equal(t, domain.StatusFinished, item.Status())
		assert.Equal(t, domain.PriorityHigh, item.Priority())
		assert.Equal(t, []string{"sci-fi", "classic"}, item.Tags())
		rating, ok := item.Rating()
		require.True(t, ok)
		assert.Equal(t, 5, rating.Int())
		notes, ok := item.Notes()
		require.True(t, ok)
		assert.Equal(t, "great", notes)
		finish, ok := item.FinishDate()
		require.True(t, ok)
		assert.True(t, finish.Equal(finished))
	})

	t.Run("legacy done status", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		row := finishedRow()
		row[3] = "done"
		mock.ExpectQuery(`FROM reading_items i WHERE i\.id = \$1`).
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(row...))

		item, err := s.FindByID(context.Background(), "item-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFinished, item.Status())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		mock.ExpectQuery(`FROM reading_items i WHERE i\.id = \$1`).
			WillReturnRows(sqlmock.NewRows(itemColumns))

		_, err := s.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, store.ErrReadingItemNotFound)
	})

	t.Run("row breaking invariants", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		row := finishedRow()
		row[3] = "reading" // rating and finish date are not allowed while reading
		mock.ExpectQuery(`FROM reading_items i WHERE i\.id = \$1`).
			WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(row...))

		_, err := s.FindByID(context.Background(), "item-1")
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestFindAllAppliesFilter(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	toRead := []driver.Value{
		"item-2", "Middlemarch", "George Eliot", "to-read", "medium", nil, nil,
		nil, nil, nil, created, created, []byte(`[]`),
	}
	mock.ExpectQuery(`WHERE i\.status = \$1 ORDER BY i\.created_at, i\.id`).
		WithArgs("to-read").
		WillReturnRows(sqlmock.NewRows(itemColumns).AddRow(toRead...))

	items, err := s.FindByStatus(context.Background(), domain.StatusToRead)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "item-2", items[0].ID())
	_, hasProgress := items[0].Progress()
	assert.False(t, hasProgress)
	assert.Empty(t, items[0].Tags())
}

func TestSave(t *testing.T) {
	t.Parallel()

	item, err := domain.NewReadingItem(domain.CreateParams{
		ID:     "item-3",
		Title:  "Dune",
		Author: "Frank Herbert",
		Tags:   []string{"sci-fi", "classic"},
	}, created)
	require.NoError(t, err)

	t.Run("upserts item and replaces tags", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO reading_items .* ON CONFLICT \(id\) DO UPDATE`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM reading_item_tags WHERE item_id = \$1`).
			WithArgs("item-3").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO reading_item_tags`).
			WithArgs("item-3", "sci-fi", 0).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO reading_item_tags`).
			WithArgs("item-3", "classic", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		saved, err := s.Save(context.Background(), item)
		require.NoError(t, err)
		assert.Same(t, item, saved)
	})

	t.Run("rolls back on constraint violation", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO reading_items`).
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "reading_items_title_check"})
		mock.ExpectRollback()

		_, err := s.Save(context.Background(), item)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("nil item", func(t *testing.T) {
		t.Parallel()
		s, _ := newMockStore(t)
		_, err := s.Save(context.Background(), nil)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	t.Run("deletes", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM reading_items WHERE id = \$1`).
			WithArgs("item-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		assert.NoError(t, s.Delete(context.Background(), "item-1"))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		mock.ExpectExec(`DELETE FROM reading_items WHERE id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, s.Delete(context.Background(), "missing"), store.ErrReadingItemNotFound)
	})

	t.Run("driver error", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockStore(t)
		driverErr := errors.New("connection refused")
		mock.ExpectExec(`DELETE FROM reading_items`).WillReturnError(driverErr)
		assert.ErrorIs(t, s.Delete(context.Background(), "item-1"), driverErr)
	})
}

func TestCountAndStatistics(t *testing.T) {
	t.Parallel()
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reading_items i WHERE EXISTS`).
		WithArgs("history").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE status = 'to-read'\)`).
		WillReturnRows(sqlmock.NewRows([]string{"total", "to_read", "reading", "finished", "avg"}).
			AddRow(6, 1, 1, 4, 4.7))

	n, err := s.Count(context.Background(), store.Filter{Tag: "history"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err := s.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Statistics{Total: 6, ToRead: 1, Reading: 1, Finished: 4, AverageRating: 4.7}, stats)
}
