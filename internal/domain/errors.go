package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
// The typed errors below wrap one of these sentinels so callers can
// classify failures with errors.Is.
var (
	// ErrValidation is returned when input is malformed or out of range.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when a status transition precondition is violated.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBusinessRule is returned when a policy limit is exceeded.
	ErrBusinessRule = errors.New("business rule violated")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Constraint names reported by ValidationError.
const (
	ConstraintRequired  = "required"
	ConstraintRange     = "range"
	ConstraintEnum      = "enum"
	ConstraintInteger   = "integer"
	ConstraintForbidden = "forbidden"
	ConstraintOrder     = "order"
	ConstraintUnique    = "unique"
)

// Rule names reported by BusinessRuleError.
const (
	RuleMaxConcurrentReads    = "max_concurrent_reads"
	RuleFinishRequiresReading = "finish_requires_reading"
)

// ValidationError describes a single violated constraint on a field.
type ValidationError struct {
	Field      string
	Constraint string
	Message    string
}

// NewValidationError creates a ValidationError for the given field and constraint.
func NewValidationError(field, constraint, message string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// TransitionError is returned when an entity operation is attempted from a
// status that does not allow it.
type TransitionError struct {
	Action string
	From   Status
	To     Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s: item status is %s", ErrInvalidTransition, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// BusinessRuleError is returned when an application policy rejects an operation.
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBusinessRule, e.Message)
}

func (e *BusinessRuleError) Unwrap() error {
	return ErrBusinessRule
}

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q %s", e.Entity, e.ID, ErrNotFound)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
