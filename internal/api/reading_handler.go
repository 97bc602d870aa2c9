package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/readlist-api/internal/api/shared"
	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/platform/logger"
	"github.com/phrazzld/readlist-api/internal/service"
)

// ProgressRequest is the body of PUT /api/reading/{id}/progress. Fractional
// and out-of-range values are rejected while decoding.
type ProgressRequest struct {
	Progress *domain.Progress `json:"progress"`
}

// FinishRequest is the body of PUT /api/reading/{id}/finish.
type FinishRequest struct {
	Rating *domain.Rating `json:"rating,omitempty"`
	Notes  string         `json:"notes,omitempty"`
}

// ReadingHandler serves the reading list HTTP API.
type ReadingHandler struct {
	readingService service.ReadingService
	logger         *slog.Logger
}

// NewReadingHandler creates a new ReadingHandler.
func NewReadingHandler(readingService service.ReadingService, logger *slog.Logger) *ReadingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadingHandler{
		readingService: readingService,
		logger:         logger.With("component", "reading_handler"),
	}
}

// Routes mounts the handler under /api/reading on r.
func (h *ReadingHandler) Routes(r chi.Router) {
	r.Route("/api/reading", func(r chi.Router) {
		r.Get("/", h.ListItems)
		r.Post("/", h.CreateItem)
		r.Get("/stats", h.GetStatistics)
		r.Get("/suggestions", h.SuggestNextReads)
		r.Get("/balance", h.GetListBalance)
		r.Get("/goals", h.GetReadingGoals)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetItem)
			r.Delete("/", h.DeleteItem)
			r.Put("/start", h.StartReading)
			r.Put("/progress", h.UpdateProgress)
			r.Put("/finish", h.FinishReading)
			r.Put("/priority", h.UpdatePriority)
			r.Post("/tags", h.AddTag)
			r.Delete("/tags/{tag}", h.RemoveTag)
		})
	})
}

func (h *ReadingHandler) log(r *http.Request) *slog.Logger {
	return logger.FromContextOrDefault(r.Context(), h.logger)
}

// decode reads and validates a request body, writing a 400 on failure.
// Domain validation errors raised while decoding keep their message.
func (h *ReadingHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return h.decodeBody(w, r, v, false)
}

// decodeOptional is decode for endpoints whose body may be omitted.
func (h *ReadingHandler) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return h.decodeBody(w, r, v, true)
}

func (h *ReadingHandler) decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	if err := shared.DecodeJSON(w, r, v); err != nil {
		switch {
		case optional && errors.Is(err, shared.ErrEmptyBody):
			return true
		case errors.Is(err, domain.ErrValidation):
			HandleAPIError(w, r, err, "")
		default:
			h.log(r).Debug("malformed request body", "error", err)
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		}
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}

// ListItems handles GET /api/reading?status=&tag=&q=
func (h *ReadingHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.readingService.ListItems(r.Context(), service.ListItemsRequest{
		Status: q.Get("status"),
		Tag:    q.Get("tag"),
		Search: q.Get("q"),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list reading items")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// CreateItem handles POST /api/reading
func (h *ReadingHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req service.CreateReadingItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.readingService.CreateReadingItem(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create reading item")
		return
	}
	w.Header().Set("Location", "/api/reading/"+item.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, item)
}

// GetItem handles GET /api/reading/{id}
func (h *ReadingHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	item, err := h.readingService.GetItem(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get reading item")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/reading/{id}
func (h *ReadingHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	if err := h.readingService.DeleteItem(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete reading item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartReading handles PUT /api/reading/{id}/start
func (h *ReadingHandler) StartReading(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	item, err := h.readingService.StartReading(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start reading")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// UpdateProgress handles PUT /api/reading/{id}/progress
func (h *ReadingHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	var req ProgressRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Progress == nil {
		HandleAPIError(w, r, domain.NewValidationError("progress", domain.ConstraintRequired, "is required"), "")
		return
	}

	item, err := h.readingService.UpdateProgress(r.Context(), id, service.UpdateProgressRequest{
		Progress: req.Progress.Int(),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update progress")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// FinishReading handles PUT /api/reading/{id}/finish
func (h *ReadingHandler) FinishReading(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	var req FinishRequest
	if !h.decodeOptional(w, r, &req) {
		return
	}

	finish := service.FinishReadingRequest{Notes: req.Notes}
	if req.Rating != nil {
		rating := req.Rating.Int()
		finish.Rating = &rating
	}
	item, err := h.readingService.FinishReading(r.Context(), id, finish)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to finish reading")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// UpdatePriority handles PUT /api/reading/{id}/priority
func (h *ReadingHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	var req service.UpdatePriorityRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.readingService.UpdatePriority(r.Context(), id, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update priority")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// AddTag handles POST /api/reading/{id}/tags
func (h *ReadingHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	var req service.AddTagRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.readingService.AddTag(r.Context(), id, req)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to add tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// RemoveTag handles DELETE /api/reading/{id}/tags/{tag}
func (h *ReadingHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r)
	if !ok {
		return
	}
	tag, err := getPathParam(r, "tag")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	item, err := h.readingService.RemoveTag(r.Context(), id, tag)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to remove tag")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// GetStatistics handles GET /api/reading/stats
func (h *ReadingHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.readingService.GetStatistics(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// SuggestNextReads handles GET /api/reading/suggestions?max=
func (h *ReadingHandler) SuggestNextReads(w http.ResponseWriter, r *http.Request) {
	limit, err := getQueryInt(r, "max")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	items, err := h.readingService.SuggestNextReads(r.Context(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to suggest next reads")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// GetListBalance handles GET /api/reading/balance
func (h *ReadingHandler) GetListBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.readingService.GetListBalance(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to check list balance")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, balance)
}

// GetReadingGoals handles GET /api/reading/goals
func (h *ReadingHandler) GetReadingGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.readingService.GetReadingGoals(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute reading goals")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, goals)
}
