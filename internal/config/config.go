// Package config holds the configuration of the authkit CLI and the mock API.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/me/authkit/internal/store"
)

// DefaultServerURL is used when neither flags, env nor a config file name a server.
const DefaultServerURL = "http://localhost:8080"

// ClientConfig holds configuration for the authkit CLI.
type ClientConfig struct {
	ServerURL   string        `mapstructure:"server" validate:"required,http_url"`
	StoreDriver string        `mapstructure:"store" validate:"oneof=sqlite file memory"`
	StorePath   string        `mapstructure:"store_path" validate:"required_unless=StoreDriver memory"`
	Scope       string        `mapstructure:"scope"`                            // Store scope (default: scheme://host of ServerURL)
	StorageKey  string        `mapstructure:"storage_key" validate:"required"`  // Key holding the serialized session
	Timeout     time.Duration `mapstructure:"timeout" validate:"gte=0"`         // Per-request timeout, 0 keeps the transport default
	LogLevel    string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat   string        `mapstructure:"log_format" validate:"oneof=text json"`
}

// DefaultClientConfig returns sensible defaults. StorePath is left empty and
// resolved by SetDefaults once the driver is known.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ServerURL:   DefaultServerURL,
		StoreDriver: store.DriverSQLite,
		StorageKey:  "userData",
		Timeout:     30 * time.Second,
		LogLevel:    "info",
		LogFormat:   "text",
	}
}

// SetDefaults fills empty fields. The store path depends on the driver:
// ~/.authkit/authkit.db for sqlite and ~/.authkit/store.json for file.
func (c *ClientConfig) SetDefaults() {
	def := DefaultClientConfig()
	if c.ServerURL == "" {
		c.ServerURL = def.ServerURL
	}
	if c.StoreDriver == "" {
		c.StoreDriver = def.StoreDriver
	}
	if c.StorageKey == "" {
		c.StorageKey = def.StorageKey
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = def.LogFormat
	}
	if c.StorePath == "" {
		switch c.StoreDriver {
		case store.DriverSQLite:
			c.StorePath = filepath.Join(HomeDir(), "authkit.db")
		case store.DriverFile:
			c.StorePath = filepath.Join(HomeDir(), "store.json")
		}
	}
}

// StoreOptions returns the options for store.Open.
func (c ClientConfig) StoreOptions() store.Options {
	scope := c.Scope
	if scope == "" {
		scope = store.ScopeFromURL(c.ServerURL)
	}
	return store.Options{Driver: c.StoreDriver, Path: c.StorePath, Scope: scope}
}

// MockAPIConfig holds configuration for the mock auth API server.
type MockAPIConfig struct {
	Addr          string        `mapstructure:"addr" validate:"required"`           // Listen address (default ":8080")
	TokenTTL      time.Duration `mapstructure:"token_ttl" validate:"gt=0"`          // Lifetime of issued tokens
	AdminEmail    string        `mapstructure:"admin_email" validate:"omitempty,email"` // Seeded admin account, skipped when empty
	AdminPassword string        `mapstructure:"admin_password" validate:"required_with=AdminEmail"`
	LoginRate     float64       `mapstructure:"login_rate" validate:"gt=0"`  // Login attempts per second per email
	LoginBurst    int           `mapstructure:"login_burst" validate:"gt=0"` // Burst of login attempts per email
	LogLevel      string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat     string        `mapstructure:"log_format" validate:"oneof=text json"`
}

// DefaultMockAPIConfig returns sensible defaults.
func DefaultMockAPIConfig() MockAPIConfig {
	return MockAPIConfig{
		Addr:       ":8080",
		TokenTTL:   time.Hour,
		LoginRate:  1,
		LoginBurst: 5,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// HomeDir returns ~/.authkit, falling back to ./.authkit when the home
// directory cannot be determined.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".authkit"
	}
	return filepath.Join(home, ".authkit")
}
