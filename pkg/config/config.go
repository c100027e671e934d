// Package config loads, defaults, and validates the shelfd configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SHELFD_*)
//  2. Configuration file (YAML or TOML)
//  3. Default values
//
// The storage section carries a type and a type-specific options map; only
// the section matching the selected type is decoded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete shelfd configuration.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains dispatcher settings
	Server ServerConfig `mapstructure:"server"`

	// Storage specifies the resource store type and type-specific options
	Storage StorageConfig `mapstructure:"storage"`

	// Mapping configures the identifier-to-storage-path mapper
	Mapping MappingConfig `mapstructure:"mapping"`

	// Metrics configures the Prometheus metrics endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format: text or json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output is stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains request dispatcher settings.
type ServerConfig struct {
	// Port the dispatcher listens on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// RateLimit caps sustained requests per second; 0 means unlimited
	RateLimit uint `mapstructure:"rate_limit"`

	// Burst is the rate limiter bucket capacity
	Burst uint `mapstructure:"burst"`
}

// StorageConfig specifies resource store configuration.
//
// The Type field selects the store implementation; only the matching
// options section is decoded (by the factory in factories.go).
type StorageConfig struct {
	// Type of the resource store. Valid values: filesystem
	Type string `mapstructure:"type" validate:"required,oneof=filesystem"`

	// Filesystem options, used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`
}

// MappingConfig configures the identifier mapper.
type MappingConfig struct {
	// BaseAddress is the public URL prefix of all resources; must end with /
	BaseAddress string `mapstructure:"base_address" validate:"required,endswith=/"`

	// ContentTypes is the ordered supported type set; the first entry is
	// the default type
	ContentTypes []string `mapstructure:"content_types" validate:"required,min=1,dive,required"`

	// PathSuffix is appended to internal storage paths (optional)
	PathSuffix string `mapstructure:"path_suffix"`

	// URLSuffix is appended to public identifiers (optional)
	URLSuffix string `mapstructure:"url_suffix"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Enabled turns Prometheus collection and the /metrics server on
	Enabled bool `mapstructure:"enabled"`

	// Port the metrics server listens on
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses the default
//     location under the user config directory)
//
// Returns the loaded and validated configuration.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variables and the config file location.
func setupViper(v *viper.Viper, configPath string) {
	// Example: SHELFD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SHELFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable; defaults apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory: XDG_CONFIG_HOME if set,
// otherwise ~/.config, falling back to the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shelfd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "shelfd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
