package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Environment variable prefixes. AUTHKIT_SERVER overrides the "server" key,
// AUTHKIT_MOCKAPI_ADDR overrides the mock API "addr" key.
const (
	ClientEnvPrefix  = "AUTHKIT"
	MockAPIEnvPrefix = "AUTHKIT_MOCKAPI"
)

// NewClientViper returns a Viper instance for the CLI configuration. If
// configFile is empty it looks for authkit.yaml/.yml in the working
// directory and ~/.authkit.
func NewClientViper(configFile string) *viper.Viper {
	v := newViper("authkit", configFile, ClientEnvPrefix)
	def := DefaultClientConfig()
	v.SetDefault("server", def.ServerURL)
	v.SetDefault("store", def.StoreDriver)
	v.SetDefault("store_path", "")
	v.SetDefault("scope", "")
	v.SetDefault("storage_key", def.StorageKey)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	return v
}

// NewMockAPIViper returns a Viper instance for the mock API configuration,
// read from authkit-mockapi.yaml/.yml when present.
func NewMockAPIViper(configFile string) *viper.Viper {
	v := newViper("authkit-mockapi", configFile, MockAPIEnvPrefix)
	def := DefaultMockAPIConfig()
	v.SetDefault("addr", def.Addr)
	v.SetDefault("token_ttl", def.TokenTTL)
	v.SetDefault("admin_email", def.AdminEmail)
	v.SetDefault("admin_password", def.AdminPassword)
	v.SetDefault("login_rate", def.LoginRate)
	v.SetDefault("login_burst", def.LoginBurst)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	return v
}

func newViper(name, configFile, envPrefix string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if found := findConfigFile(name, []string{".", HomeDir()}); found != "" {
		v.SetConfigFile(found)
	} else {
		// No search paths: ReadInConfig reports ConfigFileNotFoundError.
		v.SetConfigName(name)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// findConfigFile returns the first <name>.yaml or <name>.yml found in dirs.
// The explicit extension keeps the binary itself from matching.
func findConfigFile(name string, dirs []string) string {
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	return nil
}

// LoadClientConfig reads the config file (if any), applies environment
// and bound-flag overrides, fills defaults and validates the result.
func LoadClientConfig(v *viper.Viper) (ClientConfig, error) {
	var cfg ClientConfig
	if err := readConfig(v); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadMockAPIConfig is LoadClientConfig for the mock API server.
func LoadMockAPIConfig(v *viper.Viper) (MockAPIConfig, error) {
	var cfg MockAPIConfig
	if err := readConfig(v); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
