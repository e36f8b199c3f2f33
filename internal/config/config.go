package config

import (
	"fmt"
	"time"
)

// Config represents the main redtrace configuration
type Config struct {
	// Store connection
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Application whose trace collection is read and written
	App string `json:"app" mapstructure:"app"`

	// Sink configuration
	Sink SinkConfig `json:"sink" mapstructure:"sink"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// StoreConfig holds backing-store connection settings
type StoreConfig struct {
	URL         string        `json:"url" mapstructure:"url"`
	MaxIdle     int           `json:"max_idle" mapstructure:"max_idle"`
	IdleTimeout time.Duration `json:"idle_timeout" mapstructure:"idle_timeout"`
}

// SinkConfig holds persistence queue settings
type SinkConfig struct {
	QueueSize int `json:"queue_size" mapstructure:"queue_size"`
	Workers   int `json:"workers" mapstructure:"workers"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			URL:     "redis://127.0.0.1:6379/0",
			MaxIdle: 8,
		},
		App: "default",
		Sink: SinkConfig{
			QueueSize: 256,
			Workers:   4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	if c.Store.URL == "" {
		return fmt.Errorf("store url cannot be empty")
	}
	if c.App == "" {
		return fmt.Errorf("app name cannot be empty")
	}
	if c.Sink.QueueSize < 0 {
		return fmt.Errorf("sink queue size cannot be negative")
	}
	if c.Sink.Workers < 0 {
		return fmt.Errorf("sink workers cannot be negative")
	}
	if c.Store.IdleTimeout < 0 {
		return fmt.Errorf("store idle timeout cannot be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
