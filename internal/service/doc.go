// Package service contains the reading list use cases. It loads entities
// through the store port, applies domain rules and insights, persists the
// result, and publishes lifecycle events.
//
// Error handling:
//   - Domain errors (validation, transition, business rule, not found) are
//     returned unchanged so transports can map them to status codes.
//   - Store not-found errors become *domain.NotFoundError.
//   - Any other failure is wrapped in *ReadingServiceError with the
//     operation name.
//
// Every operation runs in an OpenTelemetry span and is counted by the
// metrics recorder with its outcome.
package service
