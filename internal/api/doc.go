// Package api exposes the reading list over HTTP. Handlers decode and
// validate JSON requests, call the reading service, and map domain errors
// onto status codes with client-safe messages.
package api
