package domain

import "fmt"

// Rating is a whole-number score in [1, 5] given to a finished item.
type Rating int

const (
	minRating = 1
	maxRating = 5
)

// NewRating validates v as a rating.
func NewRating(v int) (Rating, error) {
	if v < minRating || v > maxRating {
		return 0, NewValidationError("rating", ConstraintRange,
			fmt.Sprintf("must be between %d and %d, got %d", minRating, maxRating, v))
	}
	return Rating(v), nil
}

func (r Rating) Int() int { return int(r) }

func (r Rating) Equals(other Rating) bool { return r == other }

// UnmarshalJSON rejects fractional and out-of-range numbers.
func (r *Rating) UnmarshalJSON(data []byte) error {
	v, err := decodeWholeNumber(data, "rating")
	if err != nil {
		return err
	}
	parsed, err := NewRating(v)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
