// Package insights computes derived views over a collection of reading items:
// streaks, suggestions, balance warnings, statistics, and goals. It holds no
// state and performs no I/O.
package insights

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/phrazzld/readlist-api/internal/domain"
)

// Balance warnings returned by ValidateListBalance.
const (
	WarningTooManyReading = "You are reading too many books at once. Consider finishing some before starting new ones."
	WarningLargeBacklog   = "Your to-read list is very large. Consider prioritizing or removing some items."
	WarningNothingReading = "You have books to read but none are currently being read. Start reading something!"
)

// ListBalance is the advisory result of ValidateListBalance.
type ListBalance struct {
	IsBalanced bool
	Warnings   []string
}

// Statistics summarizes a reading list.
type Statistics struct {
	TotalBooks       int
	FinishedThisYear int
	AverageRating    float64
	MostReadTags     []string
	ReadingVelocity  float64
	FavoriteAuthors  []string
}

// ReadingGoals is a yearly target derived from the current pace.
type ReadingGoals struct {
	YearlyGoal       int
	MonthlyGoal      int
	CurrentProgress  int
	ExpectedProgress float64
	IsOnTrack        bool
}

// Service defines the interface for reading-list insight operations.
type Service interface {
	// CanMoveToStatus reports whether target is a legal next status for item.
	CanMoveToStatus(item *domain.ReadingItem, target domain.Status) bool

	// CalculateReadingStreak counts consecutive recent finishes separated by
	// at most one day, walking back from the day of now.
	CalculateReadingStreak(items []*domain.ReadingItem, now time.Time) int

	// SuggestNextReads picks to-read items by priority then age. It returns
	// nothing while the reader already has enough items in progress.
	SuggestNextReads(items, currentlyReading []*domain.ReadingItem, limit int) []*domain.ReadingItem

	// ValidateListBalance returns non-blocking warnings about list composition.
	ValidateListBalance(items []*domain.ReadingItem) ListBalance

	// CalculateStatistics computes aggregate statistics relative to now.
	CalculateStatistics(items []*domain.ReadingItem, now time.Time) Statistics

	// GenerateReadingGoals derives a yearly goal from the pace so far this year.
	GenerateReadingGoals(items []*domain.ReadingItem, now time.Time) ReadingGoals

	// MaxConcurrentReads is the number of items that may be read at once.
	MaxConcurrentReads() int
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new insights service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new insights service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

func (s *defaultService) CanMoveToStatus(item *domain.ReadingItem, target domain.Status) bool {
	if item == nil {
		return false
	}
	return item.Status().CanTransitionTo(target)
}

func (s *defaultService) CalculateReadingStreak(items []*domain.ReadingItem, now time.Time) int {
	loc := now.Location()
	var finishes []time.Time
	for _, item := range items {
		if !item.Status().IsFinished() {
			continue
		}
		if finish, ok := item.FinishDate(); ok {
			finishes = append(finishes, finish.In(loc))
		}
	}
	slices.SortFunc(finishes, func(a, b time.Time) int { return b.Compare(a) })

	streak := 0
	ref := midnight(now)
	for _, finish := range finishes {
		day := midnight(finish)
		if daysBetween(day, ref) > 1 {
			break
		}
		streak++
		ref = day
	}
	return streak
}

func (s *defaultService) SuggestNextReads(items, currentlyReading []*domain.ReadingItem, limit int) []*domain.ReadingItem {
	if limit <= 0 {
		limit = s.params.DefaultSuggestions
	}
	if len(currentlyReading) >= s.params.SuggestionReadingCap {
		return []*domain.ReadingItem{}
	}

	candidates := make([]*domain.ReadingItem, 0, len(items))
	for _, item := range items {
		if item.Status().IsToRead() {
			candidates = append(candidates, item)
		}
	}
	slices.SortStableFunc(candidates, func(a, b *domain.ReadingItem) int {
		if c := cmp.Compare(b.Priority().Rank(), a.Priority().Rank()); c != 0 {
			return c
		}
		return a.CreatedAt().Compare(b.CreatedAt())
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

func (s *defaultService) MaxConcurrentReads() int {
	return s.params.MaxConcurrentReads
}

func (s *defaultService) ValidateListBalance(items []*domain.ReadingItem) ListBalance {
	counts := countByStatus(items)
	warnings := []string{}

	if counts[domain.StatusReading] > s.params.MaxConcurrentReads {
		warnings = append(warnings, WarningTooManyReading)
	}
	if counts[domain.StatusToRead] > s.params.MaxToReadBacklog {
		warnings = append(warnings, WarningLargeBacklog)
	}
	if counts[domain.StatusReading] == 0 && counts[domain.StatusToRead] > 0 {
		warnings = append(warnings, WarningNothingReading)
	}

	return ListBalance{
		IsBalanced: len(warnings) == 0,
		Warnings:   warnings,
	}
}

func (s *defaultService) CalculateStatistics(items []*domain.ReadingItem, now time.Time) Statistics {
	var (
		finished    []*domain.ReadingItem
		ratingSum   int
		ratingCount int
	)
	for _, item := range items {
		if !item.Status().IsFinished() {
			continue
		}
		finished = append(finished, item)
		if r, ok := item.Rating(); ok {
			ratingSum += r.Int()
			ratingCount++
		}
	}

	var average float64
	if ratingCount > 0 {
		average = float64(ratingSum) / float64(ratingCount)
	}

	thisYear := finishedInYear(items, now)
	tags := make([]string, 0)
	authors := make([]string, 0, len(finished))
	for _, item := range finished {
		tags = append(tags, item.Tags()...)
		authors = append(authors, item.Author())
	}

	return Statistics{
		TotalBooks:       len(items),
		FinishedThisYear: thisYear,
		AverageRating:    roundTenth(average),
		MostReadTags:     topByFrequency(tags, s.params.TopListSize),
		ReadingVelocity:  roundTenth(float64(thisYear) / float64(now.Month())),
		FavoriteAuthors:  topByFrequency(authors, s.params.TopListSize),
	}
}

func (s *defaultService) GenerateReadingGoals(items []*domain.ReadingItem, now time.Time) ReadingGoals {
	finished := finishedInYear(items, now)
	month := int(now.Month())

	yearly := max(s.params.MinYearlyGoal, int(math.Ceil(float64(finished)*12/float64(month))))
	expected := float64(month) / 12 * float64(yearly)

	return ReadingGoals{
		YearlyGoal:       yearly,
		MonthlyGoal:      int(math.Ceil(float64(yearly) / 12)),
		CurrentProgress:  finished,
		ExpectedProgress: expected,
		IsOnTrack:        float64(finished) >= expected*s.params.OnTrackTolerance,
	}
}

func countByStatus(items []*domain.ReadingItem) map[domain.Status]int {
	counts := make(map[domain.Status]int, 3)
	for _, item := range items {
		counts[item.Status()]++
	}
	return counts
}

// finishedInYear counts finished items whose finish date falls in now's
// calendar year.
func finishedInYear(items []*domain.ReadingItem, now time.Time) int {
	n := 0
	for _, item := range items {
		if !item.Status().IsFinished() {
			continue
		}
		if finish, ok := item.FinishDate(); ok && finish.In(now.Location()).Year() == now.Year() {
			n++
		}
	}
	return n
}

// topByFrequency returns up to limit distinct values ordered by count, ties
// kept in first-seen order.
func topByFrequency(values []string, limit int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	slices.SortStableFunc(order, func(a, b string) int {
		return cmp.Compare(counts[b], counts[a])
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func roundTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween returns the whole number of calendar days from a to b,
// independent of DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
