package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var baseTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func newTestItem(t *testing.T) *ReadingItem {
	t.Helper()
	item, err := NewReadingItem(CreateParams{Title: "Dune", Author: "Frank Herbert"}, baseTime)
	require.NoError(t, err)
	return item
}

func startedItem(t *testing.T) *ReadingItem {
	t.Helper()
	item, err := newTestItem(t).StartReading(baseTime.Add(time.Hour))
	require.NoError(t, err)
	return item
}

func finishedItem(t *testing.T, rating *int) *ReadingItem {
	t.Helper()
	item, err := startedItem(t).FinishReading(rating, baseTime.Add(48*time.Hour))
	require.NoError(t, err)
	return item
}

func intPtr(v int) *int { return &v }

func TestNewReadingItem(t *testing.T) {
	t.Parallel()

	item, err := NewReadingItem(CreateParams{
		Title:  "  The Left Hand of Darkness ",
		Author: " Ursula K. Le Guin",
		Tags:   []string{"sci-fi", " classic", "sci-fi"},
	}, baseTime)
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID())
	assert.Equal(t, "The Left Hand of Darkness", item.Title())
	assert.Equal(t, "Ursula K. Le Guin", item.Author())
	assert.Equal(t, StatusToRead, item.Status())
	assert.Equal(t, PriorityMedium, item.Priority())
	assert.Equal(t, []string{"sci-fi", "classic"}, item.Tags())
	_, hasProgress := item.Progress()
	assert.False(t, hasProgress)
	_, hasRating := item.Rating()
	assert.False(t, hasRating)
	_, hasStart := item.StartDate()
	assert.False(t, hasStart)
	assert.Equal(t, baseTime, item.CreatedAt())
	assert.Equal(t, item.CreatedAt(), item.UpdatedAt())
}

func TestNewReadingItemValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		params CreateParams
		field  string
	}{
		{name: "blank title", params: CreateParams{Title: "   ", Author: "A"}, field: "title"},
		{name: "missing author", params: CreateParams{Title: "T"}, field: "author"},
		{name: "bad priority", params: CreateParams{Title: "T", Author: "A", Priority: "urgent"}, field: "priority"},
		{name: "empty tag", params: CreateParams{Title: "T", Author: "A", Tags: []string{"ok", " "}}, field: "tags"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewReadingItem(tc.params, baseTime)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestReadingItemLifecycle(t *testing.T) {
	t.Parallel()

	item := newTestItem(t)
	started, err := item.StartReading(baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusToRead, item.Status(), "receiver must not change")
	assert.Equal(t, StatusReading, started.Status())
	progress, ok := started.Progress()
	require.True(t, ok)
	assert.Equal(t, ProgressInitial(), progress)
	start, ok := started.StartDate()
	require.True(t, ok)
	assert.Equal(t, baseTime.Add(time.Hour), start)

	halfway, err := started.UpdateProgress(100, baseTime.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusReading, halfway.Status(), "entity never auto-finishes")

	finished, err := halfway.FinishReading(intPtr(4), baseTime.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, finished.Status())
	progress, _ = finished.Progress()
	assert.True(t, progress.IsComplete())
	rating, ok := finished.Rating()
	require.True(t, ok)
	assert.Equal(t, Rating(4), rating)
	finish, ok := finished.FinishDate()
	require.True(t, ok)
	assert.Equal(t, baseTime.Add(3*time.Hour), finish)

	assert.Equal(t, item.ID(), finished.ID())
	assert.Equal(t, item.CreatedAt(), finished.CreatedAt())
	assert.Equal(t, baseTime.Add(3*time.Hour), finished.UpdatedAt())
}

func TestReadingItemTransitionGuards(t *testing.T) {
	t.Parallel()

	toRead := newTestItem(t)
	reading := startedItem(t)
	finished := finishedItem(t, nil)

	_, err := reading.StartReading(baseTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = finished.StartReading(baseTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = toRead.UpdateProgress(10, baseTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = finished.UpdateProgress(10, baseTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = reading.UpdateProgress(101, baseTime)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = toRead.FinishReading(nil, baseTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = finished.FinishReading(nil, baseTime)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = reading.FinishReading(intPtr(6), baseTime)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestFinishReadingKeepsFinishAfterStart(t *testing.T) {
	t.Parallel()

	reading := startedItem(t)
	finished, err := reading.FinishReading(nil, baseTime)
	require.NoError(t, err)
	start, _ := finished.StartDate()
	finish, _ := finished.FinishDate()
	assert.False(t, finish.Before(start))
	assert.False(t, finished.UpdatedAt().Before(reading.UpdatedAt()))
}

func TestUpdatePriority(t *testing.T) {
	t.Parallel()

	for _, item := range []*ReadingItem{newTestItem(t), startedItem(t), finishedItem(t, nil)} {
		updated, err := item.UpdatePriority(PriorityHigh, baseTime.Add(72*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, PriorityHigh, updated.Priority())
		assert.Equal(t, item.Status(), updated.Status())
	}

	_, err := newTestItem(t).UpdatePriority("asap", baseTime)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTags(t *testing.T) {
	t.Parallel()

	item := newTestItem(t)
	tagged, err := item.AddTag(" fiction ", baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"fiction"}, tagged.Tags())
	assert.Empty(t, item.Tags())

	same, err := tagged.AddTag("fiction", baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Same(t, tagged, same)

	untouched, err := tagged.RemoveTag("history", baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Same(t, tagged, untouched)

	removed, err := tagged.RemoveTag("fiction", baseTime.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, removed.Tags())
	assert.Equal(t, baseTime.Add(time.Hour), removed.UpdatedAt())

	_, err = item.AddTag("  ", baseTime)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWithNotes(t *testing.T) {
	t.Parallel()

	item := newTestItem(t)
	assert.Same(t, item, item.WithNotes("   ", baseTime))

	noted := item.WithNotes(" loved the sandworms ", baseTime.Add(time.Minute))
	notes, ok := noted.Notes()
	require.True(t, ok)
	assert.Equal(t, "loved the sandworms", notes)
	_, ok = item.Notes()
	assert.False(t, ok)
}

func TestUpdatedAtNeverMovesBackwards(t *testing.T) {
	t.Parallel()

	item := newTestItem(t)
	earlier := baseTime.Add(-time.Hour)
	updated, err := item.UpdatePriority(PriorityLow, earlier)
	require.NoError(t, err)
	assert.Equal(t, item.UpdatedAt(), updated.UpdatedAt())
}

func TestRehydrateRejectsBrokenInvariants(t *testing.T) {
	t.Parallel()

	start := baseTime
	finish := baseTime.Add(-time.Hour)
	progress := Progress(10)
	rating := Rating(3)

	testCases := []struct {
		name   string
		mutate func(s *Snapshot)
		field  string
	}{
		{name: "finished without finish date", mutate: func(s *Snapshot) { s.Status = StatusFinished; s.StartDate = &start }, field: "finishDate"},
		{name: "reading without start date", mutate: func(s *Snapshot) { s.Status = StatusReading }, field: "startDate"},
		{name: "to-read with progress", mutate: func(s *Snapshot) { s.Progress = &progress }, field: "progress"},
		{name: "to-read with rating", mutate: func(s *Snapshot) { s.Rating = &rating }, field: "rating"},
		{name: "finish before start", mutate: func(s *Snapshot) {
			s.Status = StatusFinished
			s.StartDate = &start
			s.FinishDate = &finish
		}, field: "finishDate"},
		{name: "updated before created", mutate: func(s *Snapshot) { s.UpdatedAt = s.CreatedAt.Add(-time.Second) }, field: "updatedAt"},
		{name: "unknown status", mutate: func(s *Snapshot) { s.Status = "paused" }, field: "status"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := newTestItem(t).Snapshot()
			tc.mutate(&s)
			_, err := Rehydrate(s)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestReadingItemJSONRoundTrip(t *testing.T) {
	t.Parallel()

	noted := finishedItem(t, intPtr(5)).WithNotes("re-read next year", baseTime.Add(96*time.Hour))
	tagged, err := noted.AddTag("classic", baseTime.Add(96*time.Hour))
	require.NoError(t, err)

	data, err := json.Marshal(tagged)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"finished"`)
	assert.Contains(t, string(data), `"finishDate":"2024-03-03T09:00:00Z"`)

	var decoded ReadingItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, tagged.Equal(&decoded))
}

func TestUnmarshalLegacyDoneStatus(t *testing.T) {
	t.Parallel()

	raw := `{"id":"1","title":"T","author":"A","status":"done","priority":"low","tags":[],` +
		`"progress":100,"startDate":"2024-01-01T00:00:00Z","finishDate":"2024-01-02T00:00:00Z",` +
		`"createdAt":"2023-12-31T00:00:00Z","updatedAt":"2024-01-02T00:00:00Z"}`

	var item ReadingItem
	require.NoError(t, json.Unmarshal([]byte(raw), &item))
	assert.Equal(t, StatusFinished, item.Status())
}

// drawItem builds an item in an arbitrary lifecycle state.
func drawItem(t *rapid.T) *ReadingItem {
	now := baseTime
	item, err := NewReadingItem(CreateParams{
		Title:    rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,20}`).Draw(t, "title"),
		Author:   rapid.StringMatching(`[A-Za-z][A-Za-z ]{0,20}`).Draw(t, "author"),
		Priority: rapid.SampledFrom([]Priority{PriorityLow, PriorityMedium, PriorityHigh}).Draw(t, "priority"),
		Tags:     rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d"}), 0, 4).Draw(t, "tags"),
	}, now)
	if err != nil {
		t.Fatalf("NewReadingItem: %v", err)
	}

	steps := rapid.IntRange(0, 2).Draw(t, "steps")
	if steps >= 1 {
		now = now.Add(time.Duration(rapid.IntRange(0, 1000).Draw(t, "startDelay")) * time.Minute)
		if item, err = item.StartReading(now); err != nil {
			t.Fatalf("StartReading: %v", err)
		}
	}
	if steps == 2 {
		now = now.Add(time.Duration(rapid.IntRange(0, 1000).Draw(t, "finishDelay")) * time.Minute)
		var rating *int
		if rapid.Bool().Draw(t, "rated") {
			rating = intPtr(rapid.IntRange(1, 5).Draw(t, "rating"))
		}
		if item, err = item.FinishReading(rating, now); err != nil {
			t.Fatalf("FinishReading: %v", err)
		}
	}
	return item
}

func TestReadingItemProperties(t *testing.T) {
	t.Parallel()

	t.Run("factory defaults", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			item, err := NewReadingItem(CreateParams{
				Title:  rapid.StringMatching(`\s*[a-z]{1,10}\s*`).Draw(t, "title"),
				Author: rapid.StringMatching(`\s*[a-z]{1,10}\s*`).Draw(t, "author"),
			}, baseTime)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, hasProgress := item.Progress()
			_, hasRating := item.Rating()
			if item.Status() != StatusToRead || hasProgress || hasRating {
				t.Fatalf("unexpected initial state %+v", item.Snapshot())
			}
		})
	})

	t.Run("start only from to-read", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			item := drawItem(t)
			next, err := item.StartReading(baseTime.Add(time.Hour))
			if item.Status() != StatusToRead {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected transition error from %s, got %v", item.Status(), err)
				}
				return
			}
			p, _ := next.Progress()
			_, hasStart := next.StartDate()
			if err != nil || next.Status() != StatusReading || p != 0 || !hasStart {
				t.Fatalf("bad start: %v %+v", err, next)
			}
		})
	})

	t.Run("progress only while reading and in range", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			item := drawItem(t)
			v := rapid.IntRange(-50, 150).Draw(t, "v")
			_, err := item.UpdateProgress(v, baseTime.Add(time.Hour))
			ok := item.Status() == StatusReading && v >= 0 && v <= 100
			if ok != (err == nil) {
				t.Fatalf("UpdateProgress(%d) on %s: err=%v", v, item.Status(), err)
			}
		})
	})

	t.Run("finish keeps or replaces rating", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			item := drawItem(t)
			var rating *int
			if rapid.Bool().Draw(t, "rated") {
				rating = intPtr(rapid.IntRange(1, 5).Draw(t, "rating"))
			}
			next, err := item.FinishReading(rating, baseTime.Add(2000*time.Minute))
			if item.Status() != StatusReading {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("expected transition error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			p, _ := next.Progress()
			_, hasFinish := next.FinishDate()
			if next.Status() != StatusFinished || !p.IsComplete() || !hasFinish {
				t.Fatalf("bad finish state %+v", next.Snapshot())
			}
			got, hasRating := next.Rating()
			prior, hadPrior := item.Rating()
			switch {
			case rating != nil && (!hasRating || got.Int() != *rating):
				t.Fatalf("rating not applied")
			case rating == nil && (hasRating != hadPrior || got != prior):
				t.Fatalf("prior rating not preserved")
			}
		})
	})

	t.Run("tag idempotence", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			item := drawItem(t)
			tag := rapid.SampledFrom([]string{"a", "b", "x", "y"}).Draw(t, "tag")
			once, err := item.AddTag(tag, baseTime.Add(time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			twice, err := once.AddTag(tag, baseTime.Add(2*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if twice != once {
				t.Fatalf("second AddTag(%q) returned a new item", tag)
			}
			removed, err := once.RemoveTag(tag, baseTime.Add(time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			again, err := removed.RemoveTag(tag, baseTime.Add(3*time.Hour))
			if err != nil {
				t.Fatal(err)
			}
			if !again.Equal(removed) {
				t.Fatalf("RemoveTag of absent tag changed the item")
			}
		})
	})

	t.Run("json round trip", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			item := drawItem(t)
			data, err := json.Marshal(item)
			if err != nil {
				t.Fatal(err)
			}
			var decoded ReadingItem
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal %s: %v", data, err)
			}
			if !item.Equal(&decoded) {
				t.Fatalf("round trip mismatch:\n%s", data)
			}
		})
	})
}
