package api

import (
	"fmt"
)

// Config holds server configuration.
type Config struct {
	Addr           string     // Listen address, e.g. ":8080"
	AllowedOrigins []string   // Allowed WebSocket origins (empty = same-host and non-browser clients only)
	MaxMessageSize int64      // Largest accepted command message in bytes
	MaxMessageRate int        // Commands per second per session (0 = unlimited)
	MaxRows        int        // Rows returned per select before truncating (0 = unlimited)
	Auth           AuthConfig // Authentication configuration
}

// DefaultConfig returns the configuration used when no flags override it.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		MaxMessageSize: 4096,
		MaxMessageRate: 10,
		MaxRows:        10000,
	}
}

// Validate checks the configuration before the server starts.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max message size must be positive (got %d)", c.MaxMessageSize)
	}
	if c.MaxMessageRate < 0 || c.MaxRows < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return ValidateAuthConfig(c.Auth)
}
