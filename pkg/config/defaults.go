package config

import (
	"fmt"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyStorageDefaults(&cfg.Storage)
	applyMappingDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes the level.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.RateLimit > 0 && cfg.Burst == 0 {
		cfg.Burst = cfg.RateLimit * 2
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}
	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}
	if _, ok := cfg.Filesystem["root_path"]; !ok {
		cfg.Filesystem["root_path"] = "/var/lib/shelfd/"
	}
}

// applyMappingDefaults derives the base address from the server port when
// none is configured.
func applyMappingDefaults(cfg *Config) {
	if cfg.Mapping.BaseAddress == "" {
		cfg.Mapping.BaseAddress = defaultBaseAddress(cfg.Server.Port)
	}
	if len(cfg.Mapping.ContentTypes) == 0 {
		cfg.Mapping.ContentTypes = []string{"text/turtle"}
	}
}

func defaultBaseAddress(port int) string {
	if port == 80 {
		return "http://localhost/"
	}
	return fmt.Sprintf("http://localhost:%d/", port)
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}
