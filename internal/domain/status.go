package domain

import (
	"fmt"
	"strings"
)

// Status represents where a reading item is in its lifecycle.
type Status string

// Possible status values. Transitions only move forward through this list.
const (
	StatusToRead   Status = "to-read"
	StatusReading  Status = "reading"
	StatusFinished Status = "finished"
)

// statusDone is the legacy spelling of StatusFinished still found in older
// exports and local files.
const statusDone = "done"

// NewStatus parses s into a Status. The legacy value "done" is normalized to
// StatusFinished.
func NewStatus(s string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == statusDone {
		return StatusFinished, nil
	}
	status := Status(v)
	if !status.IsValid() {
		return "", NewValidationError("status", ConstraintEnum,
			fmt.Sprintf("must be one of %s, %s, %s; got %q", StatusToRead, StatusReading, StatusFinished, s))
	}
	return status, nil
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusToRead, StatusReading, StatusFinished}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusFinished:
		return true
	default:
		return false
	}
}

// NextStatuses returns the statuses reachable from s in one step.
// This is the only place legal transitions are defined.
func (s Status) NextStatuses() []Status {
	switch s {
	case StatusToRead:
		return []Status{StatusReading}
	case StatusReading:
		return []Status{StatusFinished}
	default:
		return []Status{}
	}
}

// CanTransitionTo reports whether target is a legal next status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range s.NextStatuses() {
		if next == target {
			return true
		}
	}
	return false
}

func (s Status) IsToRead() bool   { return s == StatusToRead }
func (s Status) IsReading() bool  { return s == StatusReading }
func (s Status) IsFinished() bool { return s == StatusFinished }

// CanStartReading reports whether an item in this status may be started.
func (s Status) CanStartReading() bool { return s.CanTransitionTo(StatusReading) }

func (s Status) Equals(other Status) bool { return s == other }

func (s Status) String() string { return string(s) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := NewStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
