package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReadingItem is a book or article tracked through the
// to-read -> reading -> finished lifecycle.
//
// A ReadingItem is immutable: every mutating method returns a new value and
// leaves the receiver untouched. Identity (ID and CreatedAt) is preserved and
// UpdatedAt never moves backwards.
type ReadingItem struct {
	id         string
	title      string
	author     string
	status     Status
	priority   Priority
	tags       []string
	progress   *Progress
	rating     *Rating
	notes      *string
	startDate  *time.Time
	finishDate *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// CreateParams holds the inputs to NewReadingItem. ID is generated when empty
// and Priority defaults to medium.
type CreateParams struct {
	ID       string
	Title    string
	Author   string
	Priority Priority
	Tags     []string
}

// NewReadingItem creates a to-read item with no progress, rating, or notes.
func NewReadingItem(params CreateParams, now time.Time) (*ReadingItem, error) {
	id := strings.TrimSpace(params.ID)
	if id == "" {
		id = uuid.New().String()
	}

	priority := params.Priority
	if priority == "" {
		priority = DefaultPriority
	}

	tags, err := normalizeTags(params.Tags)
	if err != nil {
		return nil, err
	}

	ts := now.UTC()
	item := &ReadingItem{
		id:        id,
		title:     strings.TrimSpace(params.Title),
		author:    strings.TrimSpace(params.Author),
		status:    StatusToRead,
		priority:  priority,
		tags:      tags,
		createdAt: ts,
		updatedAt: ts,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *ReadingItem) ID() string             { return r.id }
func (r *ReadingItem) Title() string          { return r.title }
func (r *ReadingItem) Author() string         { return r.author }
func (r *ReadingItem) Status() Status         { return r.status }
func (r *ReadingItem) Priority() Priority     { return r.priority }
func (r *ReadingItem) CreatedAt() time.Time   { return r.createdAt }
func (r *ReadingItem) UpdatedAt() time.Time   { return r.updatedAt }
func (r *ReadingItem) Tags() []string         { return slices.Clone(r.tags) }
func (r *ReadingItem) HasTag(tag string) bool { return slices.Contains(r.tags, strings.TrimSpace(tag)) }

func (r *ReadingItem) Progress() (Progress, bool) {
	if r.progress == nil {
		return 0, false
	}
	return *r.progress, true
}

func (r *ReadingItem) Rating() (Rating, bool) {
	if r.rating == nil {
		return 0, false
	}
	return *r.rating, true
}

func (r *ReadingItem) Notes() (string, bool) {
	if r.notes == nil {
		return "", false
	}
	return *r.notes, true
}

func (r *ReadingItem) StartDate() (time.Time, bool) {
	if r.startDate == nil {
		return time.Time{}, false
	}
	return *r.startDate, true
}

func (r *ReadingItem) FinishDate() (time.Time, bool) {
	if r.finishDate == nil {
		return time.Time{}, false
	}
	return *r.finishDate, true
}

// StartReading moves a to-read item to reading with zero progress.
func (r *ReadingItem) StartReading(now time.Time) (*ReadingItem, error) {
	if !r.status.IsToRead() {
		return nil, &TransitionError{Action: "start reading", From: r.status, To: StatusReading}
	}

	next := r.clone()
	progress := ProgressInitial()
	start := now.UTC()
	next.status = StatusReading
	next.progress = &progress
	next.startDate = &start
	next.touch(now)
	return next, nil
}

// UpdateProgress records progress on an item being read. Reaching 100 does
// not finish the item.
func (r *ReadingItem) UpdateProgress(value int, now time.Time) (*ReadingItem, error) {
	if !r.status.IsReading() {
		return nil, &TransitionError{Action: "update progress", From: r.status, To: r.status}
	}
	progress, err := NewProgress(value)
	if err != nil {
		return nil, err
	}

	next := r.clone()
	next.progress = &progress
	next.touch(now)
	return next, nil
}

// FinishReading marks a reading item finished. A non-nil rating replaces any
// earlier rating; nil keeps it.
func (r *ReadingItem) FinishReading(rating *int, now time.Time) (*ReadingItem, error) {
	if !r.status.IsReading() {
		return nil, &TransitionError{Action: "finish reading", From: r.status, To: StatusFinished}
	}

	next := r.clone()
	if rating != nil {
		v, err := NewRating(*rating)
		if err != nil {
			return nil, err
		}
		next.rating = &v
	}

	finish := now.UTC()
	if r.startDate != nil && finish.Before(*r.startDate) {
		finish = *r.startDate
	}
	progress := ProgressComplete()
	next.status = StatusFinished
	next.progress = &progress
	next.finishDate = &finish
	next.touch(now)
	return next, nil
}

// UpdatePriority changes the priority regardless of status.
func (r *ReadingItem) UpdatePriority(priority Priority, now time.Time) (*ReadingItem, error) {
	if !priority.IsValid() {
		return nil, NewValidationError("priority", ConstraintEnum, "unknown priority "+string(priority))
	}
	next := r.clone()
	next.priority = priority
	next.touch(now)
	return next, nil
}

// AddTag appends tag. Adding a tag that is already present returns the
// receiver itself.
func (r *ReadingItem) AddTag(tag string, now time.Time) (*ReadingItem, error) {
	t, err := normalizeTag(tag)
	if err != nil {
		return nil, err
	}
	if slices.Contains(r.tags, t) {
		return r, nil
	}

	next := r.clone()
	next.tags = append(next.tags, t)
	next.touch(now)
	return next, nil
}

// RemoveTag drops tag. Removing an absent tag returns the receiver itself.
func (r *ReadingItem) RemoveTag(tag string, now time.Time) (*ReadingItem, error) {
	t, err := normalizeTag(tag)
	if err != nil {
		return nil, err
	}
	idx := slices.Index(r.tags, t)
	if idx < 0 {
		return r, nil
	}

	next := r.clone()
	next.tags = slices.Delete(next.tags, idx, idx+1)
	next.touch(now)
	return next, nil
}

// WithNotes replaces the notes. Blank notes leave the item unchanged.
func (r *ReadingItem) WithNotes(notes string, now time.Time) *ReadingItem {
	n := strings.TrimSpace(notes)
	if n == "" {
		return r
	}
	next := r.clone()
	next.notes = &n
	next.touch(now)
	return next
}

// Validate checks every cross-field invariant of the item.
func (r *ReadingItem) Validate() error {
	if strings.TrimSpace(r.id) == "" {
		return NewValidationError("id", ConstraintRequired, "cannot be empty")
	}
	if strings.TrimSpace(r.title) == "" {
		return NewValidationError("title", ConstraintRequired, "cannot be empty")
	}
	if strings.TrimSpace(r.author) == "" {
		return NewValidationError("author", ConstraintRequired, "cannot be empty")
	}
	if !r.status.IsValid() {
		return NewValidationError("status", ConstraintEnum, "unknown status "+string(r.status))
	}
	if !r.priority.IsValid() {
		return NewValidationError("priority", ConstraintEnum, "unknown priority "+string(r.priority))
	}
	norm, err := normalizeTags(r.tags)
	if err != nil {
		return err
	}
	if !slices.Equal(norm, r.tags) {
		return NewValidationError("tags", ConstraintUnique, "must be trimmed and unique")
	}
	if r.progress != nil {
		if _, err := NewProgress(int(*r.progress)); err != nil {
			return err
		}
	}
	if r.rating != nil {
		if _, err := NewRating(int(*r.rating)); err != nil {
			return err
		}
	}

	switch r.status {
	case StatusToRead:
		if r.startDate != nil {
			return NewValidationError("startDate", ConstraintForbidden, "must be absent while to-read")
		}
		if r.progress != nil {
			return NewValidationError("progress", ConstraintForbidden, "must be absent while to-read")
		}
	case StatusReading, StatusFinished:
		if r.startDate == nil {
			return NewValidationError("startDate", ConstraintRequired, "must be set once reading has started")
		}
	}

	if r.status.IsFinished() != (r.finishDate != nil) {
		return NewValidationError("finishDate", ConstraintRequired, "must be present exactly when finished")
	}
	if r.rating != nil && !r.status.IsFinished() {
		return NewValidationError("rating", ConstraintForbidden, "only finished items can be rated")
	}
	if r.startDate != nil && r.finishDate != nil && r.finishDate.Before(*r.startDate) {
		return NewValidationError("finishDate", ConstraintOrder, "cannot precede startDate")
	}
	if r.createdAt.IsZero() {
		return NewValidationError("createdAt", ConstraintRequired, "cannot be zero")
	}
	if r.updatedAt.Before(r.createdAt) {
		return NewValidationError("updatedAt", ConstraintOrder, "cannot precede createdAt")
	}
	return nil
}

// Equal reports whether both items hold the same field values.
func (r *ReadingItem) Equal(other *ReadingItem) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.id == other.id &&
		r.title == other.title &&
		r.author == other.author &&
		r.status == other.status &&
		r.priority == other.priority &&
		slices.Equal(r.tags, other.tags) &&
		equalPtr(r.progress, other.progress) &&
		equalPtr(r.rating, other.rating) &&
		equalPtr(r.notes, other.notes) &&
		equalTime(r.startDate, other.startDate) &&
		equalTime(r.finishDate, other.finishDate) &&
		r.createdAt.Equal(other.createdAt) &&
		r.updatedAt.Equal(other.updatedAt)
}

// Snapshot is the persisted and wire form of a ReadingItem.
type Snapshot struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Status     Status     `json:"status"`
	Priority   Priority   `json:"priority"`
	Tags       []string   `json:"tags"`
	Progress   *Progress  `json:"progress,omitempty"`
	Rating     *Rating    `json:"rating,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	FinishDate *time.Time `json:"finishDate,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Snapshot exports the item's state.
func (r *ReadingItem) Snapshot() Snapshot {
	return Snapshot{
		ID:         r.id,
		Title:      r.title,
		Author:     r.author,
		Status:     r.status,
		Priority:   r.priority,
		Tags:       slices.Clone(r.tags),
		Progress:   clonePtr(r.progress),
		Rating:     clonePtr(r.rating),
		Notes:      clonePtr(r.notes),
		StartDate:  clonePtr(r.startDate),
		FinishDate: clonePtr(r.finishDate),
		CreatedAt:  r.createdAt,
		UpdatedAt:  r.updatedAt,
	}
}

// Rehydrate rebuilds an item from persisted state, enforcing every invariant.
func Rehydrate(s Snapshot) (*ReadingItem, error) {
	tags, err := normalizeTags(s.Tags)
	if err != nil {
		return nil, err
	}
	item := &ReadingItem{
		id:         s.ID,
		title:      s.Title,
		author:     s.Author,
		status:     s.Status,
		priority:   s.Priority,
		tags:       tags,
		progress:   clonePtr(s.Progress),
		rating:     clonePtr(s.Rating),
		notes:      clonePtr(s.Notes),
		startDate:  utcPtr(s.StartDate),
		finishDate: utcPtr(s.FinishDate),
		createdAt:  s.CreatedAt.UTC(),
		updatedAt:  s.UpdatedAt.UTC(),
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// MarshalJSON implements json.Marshaler.
func (r *ReadingItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Snapshot())
}

// UnmarshalJSON implements json.Unmarshaler. The decoded item must satisfy
// every invariant.
func (r *ReadingItem) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	item, err := Rehydrate(s)
	if err != nil {
		return err
	}
	*r = *item
	return nil
}

func (r *ReadingItem) clone() *ReadingItem {
	next := *r
	next.tags = slices.Clone(r.tags)
	return &next
}

func (r *ReadingItem) touch(now time.Time) {
	ts := now.UTC()
	if ts.After(r.updatedAt) {
		r.updatedAt = ts
	}
}

func normalizeTag(tag string) (string, error) {
	t := strings.TrimSpace(tag)
	if t == "" {
		return "", NewValidationError("tags", ConstraintRequired, "tag cannot be empty")
	}
	return t, nil
}

// normalizeTags trims tags and drops duplicates, keeping first occurrences.
func normalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		t, err := normalizeTag(tag)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
