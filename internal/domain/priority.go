package domain

import (
	"fmt"
	"strings"
)

// Priority orders to-read items when suggesting what to read next.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultPriority is assigned to new items when none is given.
const DefaultPriority = PriorityMedium

// NewPriority parses s into a Priority.
func NewPriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", NewValidationError("priority", ConstraintEnum,
			fmt.Sprintf("must be one of %s, %s, %s; got %q", PriorityLow, PriorityMedium, PriorityHigh, s))
	}
	return p, nil
}

func (p Priority) IsValid() bool {
	return p.Rank() > 0
}

// Rank returns 1 for low through 3 for high, and 0 for unknown values.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	default:
		return 0
	}
}

// Less reports whether p sorts below other.
func (p Priority) Less(other Priority) bool { return p.Rank() < other.Rank() }

func (p Priority) Equals(other Priority) bool { return p == other }

func (p Priority) String() string { return string(p) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := NewPriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
