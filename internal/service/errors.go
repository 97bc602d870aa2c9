package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/store"
)

// readingItemEntity names reading items in NotFoundError values.
const readingItemEntity = "reading item"

// ReadingServiceError wraps unexpected failures from the reading service
// with the operation that hit them.
type ReadingServiceError struct {
	// Operation is the operation that failed (e.g., "start_reading")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ReadingServiceError.
func (e *ReadingServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reading service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("reading service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ReadingServiceError) Unwrap() error {
	return e.Err
}

// NewReadingServiceError wraps err for operation. Domain errors are returned
// unchanged so callers can match them directly.
func NewReadingServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	return &ReadingServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrBusinessRule) ||
		errors.Is(err, domain.ErrNotFound)
}

// mapStoreError turns a store not-found into a domain NotFoundError for id and
// wraps anything else.
func mapStoreError(operation, message, id string, err error) error {
	if store.IsNotFoundError(err) {
		return &domain.NotFoundError{Entity: readingItemEntity, ID: id}
	}
	return NewReadingServiceError(operation, message, err)
}
