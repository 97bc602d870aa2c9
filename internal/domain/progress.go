package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Progress is a whole-number percentage in [0, 100].
type Progress int

const (
	minProgress = 0
	maxProgress = 100
)

// NewProgress validates v as a progress percentage.
func NewProgress(v int) (Progress, error) {
	if v < minProgress || v > maxProgress {
		return 0, NewValidationError("progress", ConstraintRange,
			fmt.Sprintf("must be between %d and %d, got %d", minProgress, maxProgress, v))
	}
	return Progress(v), nil
}

// ProgressInitial is the progress of an item that was just started.
func ProgressInitial() Progress { return Progress(minProgress) }

// ProgressComplete is the progress of a finished item.
func ProgressComplete() Progress { return Progress(maxProgress) }

func (p Progress) IsComplete() bool { return p == maxProgress }

func (p Progress) Int() int { return int(p) }

func (p Progress) Equals(other Progress) bool { return p == other }

// UnmarshalJSON rejects fractional and out-of-range numbers.
func (p *Progress) UnmarshalJSON(data []byte) error {
	v, err := decodeWholeNumber(data, "progress")
	if err != nil {
		return err
	}
	parsed, err := NewProgress(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// decodeWholeNumber decodes a JSON number and fails with an integer
// constraint violation if it has a fractional part.
func decodeWholeNumber(data []byte, field string) (int, error) {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, NewValidationError(field, ConstraintInteger, "must be a number")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, NewValidationError(field, ConstraintInteger,
			fmt.Sprintf("must be a whole number, got %v", f))
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, NewValidationError(field, ConstraintRange, "number out of range")
	}
	return int(f), nil
}
