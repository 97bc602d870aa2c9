package service

import (
	"time"

	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/domain/insights"
	"github.com/phrazzld/readlist-api/internal/store"
)

// TimestampLayout is the ISO-8601 form used for every date in a DTO.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ReadingItemDTO is the transport view of a reading item.
type ReadingItemDTO struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Status     string   `json:"status"`
	Priority   string   `json:"priority"`
	Tags       []string `json:"tags"`
	Progress   *int     `json:"progress,omitempty"`
	Rating     *int     `json:"rating,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	StartDate  *string  `json:"startDate,omitempty"`
	FinishDate *string  `json:"finishDate,omitempty"`
	CreatedAt  string   `json:"createdAt"`
	UpdatedAt  string   `json:"updatedAt"`
}

// NewReadingItemDTO converts item to its transport view.
func NewReadingItemDTO(item *domain.ReadingItem) ReadingItemDTO {
	dto := ReadingItemDTO{
		ID:        item.ID(),
		Title:     item.Title(),
		Author:    item.Author(),
		Status:    item.Status().String(),
		Priority:  item.Priority().String(),
		Tags:      item.Tags(),
		CreatedAt: formatTime(item.CreatedAt()),
		UpdatedAt: formatTime(item.UpdatedAt()),
	}
	if p, ok := item.Progress(); ok {
		v := p.Int()
		dto.Progress = &v
	}
	if r, ok := item.Rating(); ok {
		v := r.Int()
		dto.Rating = &v
	}
	if n, ok := item.Notes(); ok {
		dto.Notes = &n
	}
	if d, ok := item.StartDate(); ok {
		s := formatTime(d)
		dto.StartDate = &s
	}
	if d, ok := item.FinishDate(); ok {
		s := formatTime(d)
		dto.FinishDate = &s
	}
	return dto
}

func newReadingItemDTOs(items []*domain.ReadingItem) []ReadingItemDTO {
	out := make([]ReadingItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, NewReadingItemDTO(item))
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CreateReadingItemRequest holds the inputs for CreateReadingItem.
type CreateReadingItemRequest struct {
	Title    string   `json:"title" validate:"required"`
	Author   string   `json:"author" validate:"required"`
	Priority string   `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
	Notes    string   `json:"notes,omitempty"`
}

// UpdateProgressRequest holds the inputs for UpdateProgress.
type UpdateProgressRequest struct {
	Progress int `json:"progress" validate:"min=0,max=100"`
}

// FinishReadingRequest holds the inputs for FinishReading. A nil rating
// keeps any earlier rating; blank notes keep earlier notes.
type FinishReadingRequest struct {
	Rating *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Notes  string `json:"notes,omitempty"`
}

// UpdatePriorityRequest holds the inputs for UpdatePriority.
type UpdatePriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=low medium high"`
}

// AddTagRequest holds the inputs for AddTag.
type AddTagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

// ListItemsRequest narrows ListItems. Empty fields do not filter.
type ListItemsRequest struct {
	Status string `json:"status,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Search string `json:"search,omitempty"`
}

// StatisticsDTO merges store counts with derived statistics.
type StatisticsDTO struct {
	Total            int      `json:"total"`
	ToRead           int      `json:"toRead"`
	Reading          int      `json:"reading"`
	Finished         int      `json:"finished"`
	AverageRating    float64  `json:"averageRating"`
	FinishedThisYear int      `json:"finishedThisYear"`
	ReadingVelocity  float64  `json:"readingVelocity"`
	MostReadTags     []string `json:"mostReadTags"`
	FavoriteAuthors  []string `json:"favoriteAuthors"`
	CurrentStreak    int      `json:"currentStreak"`
}

func newStatisticsDTO(counts store.Statistics, derived insights.Statistics, streak int) StatisticsDTO {
	return StatisticsDTO{
		Total:            counts.Total,
		ToRead:           counts.ToRead,
		Reading:          counts.Reading,
		Finished:         counts.Finished,
		AverageRating:    counts.AverageRating,
		FinishedThisYear: derived.FinishedThisYear,
		ReadingVelocity:  derived.ReadingVelocity,
		MostReadTags:     derived.MostReadTags,
		FavoriteAuthors:  derived.FavoriteAuthors,
		CurrentStreak:    streak,
	}
}

// ListBalanceDTO carries advisory warnings about the list's composition.
type ListBalanceDTO struct {
	IsBalanced bool     `json:"isBalanced"`
	Warnings   []string `json:"warnings"`
}

// ReadingGoalsDTO is the yearly goal derived from the current pace.
type ReadingGoalsDTO struct {
	YearlyGoal       int     `json:"yearlyGoal"`
	MonthlyGoal      int     `json:"monthlyGoal"`
	CurrentProgress  int     `json:"currentProgress"`
	ExpectedProgress float64 `json:"expectedProgress"`
	IsOnTrack        bool    `json:"isOnTrack"`
}
