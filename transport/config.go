package transport

import (
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/realtime/errors"
	"github.com/c360/realtime/pkg/queue"
	"github.com/c360/realtime/token"
)

// TokenTransport selects how the bearer token reaches the server.
type TokenTransport string

const (
	// TokenTransportHeader sends the token in the STOMP CONNECT
	// Authorization header. Secure default.
	TokenTransportHeader TokenTransport = "header"

	// TokenTransportQuery appends the token to the socket URL as a query
	// parameter. Exists only for fallback transports that cannot set
	// headers; it exposes the token in URLs and server logs, so selecting
	// it with a token present logs a warning.
	TokenTransportQuery TokenTransport = "query"
)

// Default configuration values
const (
	DefaultReconnectDelay       = 3 * time.Second
	DefaultMaxReconnectAttempts = 10
	DefaultHeartbeatInterval    = 10 * time.Second
	DefaultDialTimeout          = 45 * time.Second
)

// Config holds configuration for a Transport.
type Config struct {
	// URL is the socket endpoint (ws:// or wss://). Required.
	URL string

	// AccessToken is the initial bearer credential. Mutable post-construction
	// via SetAccessToken. Ignored when TokenSource is set.
	AccessToken string

	// TokenSource, when set, supplies the bearer token at connection time
	// instead of AccessToken.
	TokenSource token.Source

	// TokenTransport selects header (default) or query token delivery.
	TokenTransport TokenTransport

	// AutoReconnect enables reconnection after unexpected connection loss.
	AutoReconnect bool

	// ReconnectDelay is the base backoff delay. The Nth attempt waits
	// ReconnectDelay * min(N, 5).
	ReconnectDelay time.Duration

	// MaxReconnectAttempts caps consecutive reconnection attempts.
	MaxReconnectAttempts int

	// HeartbeatInterval is the period between outbound heartbeats, also
	// advertised to the server in the CONNECT frame. Zero selects the
	// default; a negative value disables heartbeats.
	HeartbeatInterval time.Duration

	// DialTimeout bounds each socket dial during reconnection.
	DialTimeout time.Duration

	// QueueCapacity bounds the outbound queue used while disconnected.
	// Zero means unbounded, matching the historical behavior.
	QueueCapacity int

	// QueuePolicy selects overflow behavior for a bounded queue.
	QueuePolicy queue.Policy

	// Debug enables verbose diagnostic logging.
	Debug bool

	// Logger receives transport logs. Defaults to slog.Default().
	Logger *slog.Logger

	// Registerer, when set, receives the transport's Prometheus collectors.
	Registerer prometheus.Registerer

	// Dialer overrides socket construction. Defaults to a gorilla/websocket
	// dialer; tests inject fakes here.
	Dialer Dialer
}

// DefaultConfig returns a Config with production defaults. The URL must
// still be set by the caller.
func DefaultConfig() Config {
	return Config{
		TokenTransport:       TokenTransportHeader,
		AutoReconnect:        true,
		ReconnectDelay:       DefaultReconnectDelay,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		HeartbeatInterval:    DefaultHeartbeatInterval,
		DialTimeout:          DefaultDialTimeout,
	}
}

// Validate checks required fields and fills zero-valued knobs with defaults.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "check url")
	}
	if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "check url scheme")
	}

	switch c.TokenTransport {
	case "":
		c.TokenTransport = TokenTransportHeader
	case TokenTransportHeader, TokenTransportQuery:
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "check token transport")
	}

	if c.ReconnectDelay < 0 || c.DialTimeout < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate", "check durations")
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	} else if c.HeartbeatInterval < 0 {
		c.HeartbeatInterval = 0 // disabled
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Dialer == nil {
		c.Dialer = NewWebSocketDialer(c.DialTimeout)
	}
	return nil
}
