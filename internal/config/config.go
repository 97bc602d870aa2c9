package config

// Store drivers selectable through store.driver.
const (
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Local    LocalConfig    `mapstructure:"local"`
	API      APIConfig      `mapstructure:"api" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// StoreConfig selects the persistence adapter.
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres badger"`
}

// DatabaseConfig is required when the postgres driver is selected.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// LocalConfig is required when the badger driver is selected.
type LocalConfig struct {
	// Path is the Badger data directory.
	Path string `mapstructure:"path"`
	// InMemory keeps all data in memory; Path is ignored.
	InMemory bool `mapstructure:"in_memory"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"dive,required"`
	// RateLimit is the sustained requests per second allowed per client.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"gt=0"`
}
