package transport

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/realtime/errors"
)

func TestConfigValidate_RequiresURL(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestConfigValidate_RejectsNonSocketScheme(t *testing.T) {
	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{"ws", "ws://host/path", true},
		{"wss", "wss://host/path", true},
		{"http", "http://host/path", false},
		{"https", "https://host/path", false},
		{"bare host", "host:8080", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.URL = tt.url
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			}
		})
	}
}

func TestConfigValidate_FillsDefaults(t *testing.T) {
	cfg := Config{URL: "wss://host/ws", AutoReconnect: true}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, TokenTransportHeader, cfg.TokenTransport)
	assert.Equal(t, DefaultReconnectDelay, cfg.ReconnectDelay)
	assert.Equal(t, DefaultMaxReconnectAttempts, cfg.MaxReconnectAttempts)
	assert.Equal(t, DefaultHeartbeatInterval, cfg.HeartbeatInterval)
	assert.Equal(t, DefaultDialTimeout, cfg.DialTimeout)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Dialer)
}

func TestConfigValidate_NegativeHeartbeatDisables(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "wss://host/ws"
	cfg.HeartbeatInterval = -1
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Duration(0), cfg.HeartbeatInterval)
}

func TestConfigValidate_RejectsUnknownTokenTransport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "wss://host/ws"
	cfg.TokenTransport = "cookie"
	assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfig)
}

func TestConfigValidate_RejectsNegativeDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "wss://host/ws"
	cfg.ReconnectDelay = -time.Second
	assert.ErrorIs(t, cfg.Validate(), errors.ErrInvalidConfig)
}

func TestConfigValidate_KeepsProvidedValues(t *testing.T) {
	logger := slog.Default().With("component", "test")
	cfg := Config{
		URL:                  "wss://host/ws",
		ReconnectDelay:       time.Second,
		MaxReconnectAttempts: 3,
		HeartbeatInterval:    30 * time.Second,
		DialTimeout:          5 * time.Second,
		Logger:               logger,
	}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 3, cfg.MaxReconnectAttempts)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Same(t, logger, cfg.Logger)
}
