package main

import (
	"context"
	"fmt"
	"log/slog"

	apiMiddleware "github.com/phrazzld/readlist-api/internal/api/middleware"
	"github.com/phrazzld/readlist-api/internal/config"
	"github.com/phrazzld/readlist-api/internal/domain/insights"
	"github.com/phrazzld/readlist-api/internal/events"
	"github.com/phrazzld/readlist-api/internal/platform/kv"
	"github.com/phrazzld/readlist-api/internal/platform/metrics"
	"github.com/phrazzld/readlist-api/internal/platform/postgres"
	"github.com/phrazzld/readlist-api/internal/service"
	"github.com/phrazzld/readlist-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"
)

// application holds the shared dependencies of the server and releases them
// on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Collector

	store      store.ReadingItemStore
	closeStore func() error

	eventEmitter   *events.InMemoryEventEmitter
	readingService service.ReadingService
	rateLimiter    *apiMiddleware.RateLimiter
}

// newApplication opens the configured store and wires the services on top of
// it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.registry)

	var err error
	app.store, app.closeStore, err = openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewActivityLogHandler(logger))
	app.eventEmitter.RegisterHandler(app.metrics)

	app.readingService, err = service.NewReadingService(
		app.store,
		insights.NewDefaultService(),
		app.eventEmitter,
		app.metrics,
		nil,
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create reading service: %w", err)
	}

	limits := apiMiddleware.DefaultRateLimiterConfig()
	limits.Rate = rate.Limit(cfg.API.RateLimit)
	limits.Burst = cfg.API.RateBurst
	app.rateLimiter = apiMiddleware.NewRateLimiter(limits)

	logger.Info("application initialized", "store_driver", cfg.Store.Driver)
	return app, nil
}

// openStore opens the adapter selected by store.driver. The returned function
// releases it.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (store.ReadingItemStore, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverBadger:
		s, err := kv.Open(kv.Options{Path: cfg.Local.Path, InMemory: cfg.Local.InMemory}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open local store: %w", err)
		}
		return s, s.Close, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := postgres.Migrate(ctx, db, logger); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		logger.Info("database connection established")
		return postgres.NewReadingItemStore(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// cleanup releases application resources. It is safe to call more than once.
func (app *application) cleanup() {
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}
	if app.closeStore != nil {
		if err := app.closeStore(); err != nil {
			app.logger.Error("error closing store", "error", err)
		}
		app.closeStore = nil
	}
	app.logger.Info("application shutdown completed")
}
