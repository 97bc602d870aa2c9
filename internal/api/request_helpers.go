package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/platform/logger"
)

// maxIDLength bounds path identifiers accepted by the API.
const maxIDLength = 128

// getPathParam extracts a required, non-blank path parameter.
func getPathParam(r *http.Request, paramName string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, paramName))
	if value == "" {
		return "", domain.NewValidationError(paramName, domain.ConstraintRequired, "is required")
	}
	if len(value) > maxIDLength {
		return "", domain.NewValidationError(paramName, domain.ConstraintRange, "is too long")
	}
	return value, nil
}

// handlePathID extracts the {id} path parameter and writes a 400 response when
// it is missing. The second result reports whether the caller may continue.
func handlePathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := getPathParam(r, "id")
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("invalid path parameter", slog.String("param_name", "id"))
		HandleAPIError(w, r, err, "")
		return "", false
	}
	return id, true
}

// getQueryInt parses an optional non-negative integer query parameter. An
// absent parameter yields 0.
func getQueryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, domain.ConstraintInteger, "must be a whole number")
	}
	if v < 0 {
		return 0, domain.NewValidationError(name, domain.ConstraintRange, "must not be negative")
	}
	return v, nil
}
