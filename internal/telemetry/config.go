package telemetry

import (
	"fmt"
	"time"

	"github.com/BeFlock/bereshit/internal/config"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Sampling       SamplingConfig
	Metrics        MetricsConfig
	Logs           LogsConfig
	Shutdown       ShutdownConfig
}

// SamplingConfig controls trace sampling behavior.
type SamplingConfig struct {
	Rate float64 // 0.0-1.0, default 1.0
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Enabled bool
}

// LogsConfig controls export of zap records through the OTEL log bridge.
type LogsConfig struct {
	Enabled bool
}

// ShutdownConfig controls graceful shutdown behavior.
type ShutdownConfig struct {
	Timeout config.Duration
}

// NewDefaultConfig returns telemetry defaults. Telemetry is off unless
// telemetry.enabled is set.
func NewDefaultConfig() *Config {
	return &Config{
		Enabled:        false,
		ServiceName:    config.AppName,
		ServiceVersion: "dev",
		Sampling: SamplingConfig{
			Rate: 1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logs: LogsConfig{
			Enabled: false,
		},
		Shutdown: ShutdownConfig{
			Timeout: config.Duration(2 * time.Second),
		},
	}
}

// FromSettings builds telemetry config from the loaded application config.
func FromSettings(s config.TelemetryConfig, version string) *Config {
	cfg := NewDefaultConfig()
	cfg.Enabled = s.Enabled
	if s.ServiceName != "" {
		cfg.ServiceName = s.ServiceName
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required when telemetry is enabled")
	}
	if c.Sampling.Rate < 0 || c.Sampling.Rate > 1 {
		return fmt.Errorf("sampling rate must be between 0 and 1, got %v", c.Sampling.Rate)
	}
	if c.Shutdown.Timeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be > 0")
	}
	return nil
}
