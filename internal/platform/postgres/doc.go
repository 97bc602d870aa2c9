// Package postgres implements store.ReadingItemStore on PostgreSQL through
// the pgx database/sql driver. It owns the schema as embedded goose
// migrations and maps driver errors onto the store error values.
package postgres
