package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "redis://127.0.0.1:6379/0", cfg.Store.URL)
	assert.Equal(t, "default", cfg.App)
	assert.Equal(t, 256, cfg.Sink.QueueSize)
	assert.Equal(t, 4, cfg.Sink.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EmptyStoreURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.URL = ""

	assert.Error(t, cfg.Validate())
}

func TestValidate_EmptyApp(t *testing.T) {
	cfg := DefaultConfig()
	cfg.App = ""

	assert.Error(t, cfg.Validate())
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink.QueueSize = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Sink.Workers = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Store.IdleTimeout = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestValidate_LogLevel(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		cfg := DefaultConfig()
		cfg.Logging.Level = level
		assert.NoError(t, cfg.Validate(), level)
	}

	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}
