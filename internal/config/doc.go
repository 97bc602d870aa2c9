// Package config loads and validates application settings from defaults,
// an optional YAML file, and READLIST_* environment variables.
package config
