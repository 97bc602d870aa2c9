// Package domain contains the core reading-list entities, value objects, and
// error taxonomy. It is independent of any storage or delivery mechanism:
// every operation is pure and takes the current time as an argument.
package domain
