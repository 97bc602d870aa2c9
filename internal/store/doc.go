// Package store defines the persistence port for reading items. Adapters
// live under internal/platform; the application core depends only on the
// interfaces and errors declared here.
package store
