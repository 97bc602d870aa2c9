package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/readlist-api/internal/api"
	apiMiddleware "github.com/phrazzld/readlist-api/internal/api/middleware"
	"github.com/phrazzld/readlist-api/internal/api/shared"
	"github.com/phrazzld/readlist-api/internal/platform/metrics"
	"github.com/phrazzld/readlist-api/internal/store"
)

const healthCheckTimeout = 2 * time.Second

// setupRouter creates the router with all middleware and routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Metrics(app.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.API.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", shared.TraceIDHeader},
		ExposedHeaders:   []string{"Content-Length", "Location", shared.TraceIDHeader},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	}))

	readingHandler := api.NewReadingHandler(app.readingService, app.logger)
	r.Group(func(r chi.Router) {
		r.Use(app.rateLimiter.Middleware)
		readingHandler.Routes(r)
	})

	r.Get("/health", app.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(app.registry))

	return r
}

// handleHealth reports whether the store answers a trivial query.
func (app *application) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if _, err := app.store.Count(ctx, store.Filter{}); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]string{
		"status": "ok",
		"store":  app.config.Store.Driver,
	})
}
