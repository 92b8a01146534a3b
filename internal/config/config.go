// Package config loads bereshit settings from an optional YAML file and
// BERESHIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AppName names the per-user config and data directories.
const AppName = "bereshit"

// Config holds the complete bereshit configuration.
type Config struct {
	Registry  RegistryConfig  `koanf:"registry" json:"registry" yaml:"registry"`
	Logging   LoggingConfig   `koanf:"logging" json:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry" json:"telemetry" yaml:"telemetry"`
	Opener    OpenerConfig    `koanf:"opener" json:"opener" yaml:"opener"`
}

// RegistryConfig locates the project registry.
type RegistryConfig struct {
	DataDir       string   `koanf:"data_dir" json:"data_dir" yaml:"data_dir"`
	WatchDebounce Duration `koanf:"watch_debounce" json:"watch_debounce" yaml:"watch_debounce"`
}

// LoggingConfig holds the user-facing logging knobs.
type LoggingConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// TelemetryConfig holds OpenTelemetry tracing settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled" json:"enabled" yaml:"enabled"`
	ServiceName string `koanf:"service_name" json:"service_name" yaml:"service_name"`
}

// OpenerConfig selects the folder-open launcher.
type OpenerConfig struct {
	// Platform is windows, darwin or linux. Empty autodetects.
	Platform string `koanf:"platform" json:"platform" yaml:"platform"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Registry.DataDir) == "" {
		errs = append(errs, errors.New("registry.data_dir is required"))
	}
	if c.Registry.WatchDebounce.Duration() > time.Minute {
		errs = append(errs, fmt.Errorf("registry.watch_debounce too large: %s (max 1m)", c.Registry.WatchDebounce.Duration()))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not a known level", c.Logging.Level))
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format))
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		errs = append(errs, errors.New("telemetry.service_name is required when telemetry is enabled"))
	}

	switch strings.ToLower(strings.TrimSpace(c.Opener.Platform)) {
	case "", "windows", "darwin", "macos", "linux", "posix":
	default:
		errs = append(errs, fmt.Errorf("opener.platform %q is not supported (want windows, darwin or linux)", c.Opener.Platform))
	}

	return errors.Join(errs...)
}
