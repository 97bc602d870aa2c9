// Package metrics collects Prometheus metrics for use cases, HTTP responses,
// and reading item lifecycle events.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/phrazzld/readlist-api/internal/domain"
	"github.com/phrazzld/readlist-api/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels recorded for use-case calls.
const (
	OutcomeOK           = "ok"
	OutcomeValidation   = "validation"
	OutcomeTransition   = "transition"
	OutcomeBusinessRule = "business_rule"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// Recorder is the metrics surface used by the service and API layers.
type Recorder interface {
	RecordOperation(operation string, err error, duration time.Duration)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus implementation of Recorder. It also counts
// lifecycle events when registered as an events.EventHandler.
type Collector struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	httpStatus *prometheus.CounterVec
	events     *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlist_operations_total",
			Help: "Use-case invocations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "readlist_operation_duration_seconds",
			Help:    "Use-case latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlist_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "readlist_events_total",
			Help: "Reading item lifecycle events by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(c.operations, c.latency, c.httpStatus, c.events)
	return c
}

// RecordOperation counts a use-case call and observes its latency.
func (c *Collector) RecordOperation(operation string, err error, duration time.Duration) {
	c.operations.WithLabelValues(operation, Outcome(err)).Inc()
	c.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// HandleEvent implements events.EventHandler.
func (c *Collector) HandleEvent(_ context.Context, event *events.ReadingEvent) error {
	c.events.WithLabelValues(event.Type).Inc()
	return nil
}

// Outcome classifies err into one of the Outcome labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrInvalidTransition):
		return OutcomeTransition
	case errors.Is(err, domain.ErrBusinessRule):
		return OutcomeBusinessRule
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. It is used by the CLI, which exposes no metrics.
type Nop struct{}

func (Nop) RecordOperation(string, error, time.Duration) {}
func (Nop) RecordHTTPStatus(int)                         {}
