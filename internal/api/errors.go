package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/readlist-api/internal/api/shared"
	"github.com/phrazzld/readlist-api/internal/domain"
)

// MapErrorToStatusCode maps errors to HTTP status codes by their domain
// classification. Anything unclassified is a 500.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrValidation), errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBusinessRule):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message that is safe to show clients.
// Domain errors carry messages written for users; anything else is replaced
// with a generic message.
func GetSafeErrorMessage(err error) string {
	var (
		validationErr *domain.ValidationError
		transitionErr *domain.TransitionError
		ruleErr       *domain.BusinessRuleError
		notFoundErr   *domain.NotFoundError
		verrs         validator.ValidationErrors
	)
	switch {
	case err == nil:
		return "An unexpected error occurred"
	case errors.As(err, &validationErr):
		if validationErr.Field == "" {
			return validationErr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.As(err, &verrs):
		return SanitizeValidationError(err)
	case errors.As(err, &transitionErr):
		return fmt.Sprintf("Cannot %s an item that is %s", transitionErr.Action, transitionErr.From)
	case errors.As(err, &ruleErr):
		return ruleErr.Message
	case errors.As(err, &notFoundErr):
		return "Reading item not found"
	case errors.Is(err, domain.ErrNotFound):
		return "Not found"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator errors into a message naming the
// first offending field. Struct and package names are never exposed.
func SanitizeValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Validation error"
	}
	fe := verrs[0]
	return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe.Field()), getValidationTagMessage(fe.Tag(), fe.Param()))
}

// errorField names the offending input of a validation failure, if any.
func errorField(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Field
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return jsonFieldName(verrs[0].Field())
	}
	return ""
}

// jsonFieldName lower-cases the first letter of a Go field name, which
// matches the camelCase JSON names of the request DTOs.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	b := []byte(field)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of: " + param
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the response for err: its mapped status and a safe
// message. Errors that map to a 500 use defaultMsg when it is non-empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, defaultMsg string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && defaultMsg != "" {
		message = defaultMsg
	}

	var opts []shared.ResponseOption
	if field := errorField(err); field != "" && status == http.StatusBadRequest {
		opts = append(opts, shared.WithField(field))
	}
	if status == http.StatusUnprocessableEntity {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
