package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	URL             string
	Token           string
	QueryToken      bool
	Destination     string
	SendDestination string
	SendBody        string
	NoReconnect     bool
	ReconnectDelay  time.Duration
	MaxReconnects   int
	Heartbeat       time.Duration
	LogLevel        string
	LogFormat       string
	Debug           bool
	ShowVersion     bool
	ShowHelp        bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.URL, "url",
		getEnv("STOMP_PROBE_URL", ""),
		"Socket endpoint, ws:// or wss:// (env: STOMP_PROBE_URL)")

	flag.StringVar(&cfg.Token, "token",
		getEnv("STOMP_PROBE_TOKEN", ""),
		"Bearer token for authentication (env: STOMP_PROBE_TOKEN)")

	flag.BoolVar(&cfg.QueryToken, "query-token",
		getEnvBool("STOMP_PROBE_QUERY_TOKEN", false),
		"Deliver the token as a URL query parameter instead of a header (env: STOMP_PROBE_QUERY_TOKEN)")

	flag.StringVar(&cfg.Destination, "subscribe", "",
		"Destination to subscribe to, e.g. /topic/updates")

	flag.StringVar(&cfg.SendDestination, "send", "",
		"Destination to send one message to, e.g. /app/echo")

	flag.StringVar(&cfg.SendBody, "body", "",
		"Message body for -send; JSON is transmitted as-is")

	flag.BoolVar(&cfg.NoReconnect, "no-reconnect", false,
		"Disable automatic reconnection")

	flag.DurationVar(&cfg.ReconnectDelay, "reconnect-delay",
		getEnvDuration("STOMP_PROBE_RECONNECT_DELAY", 0),
		"Base reconnection delay, 0 for default (env: STOMP_PROBE_RECONNECT_DELAY)")

	flag.IntVar(&cfg.MaxReconnects, "max-reconnects",
		getEnvInt("STOMP_PROBE_MAX_RECONNECTS", 0),
		"Reconnection attempt cap, 0 for default (env: STOMP_PROBE_MAX_RECONNECTS)")

	flag.DurationVar(&cfg.Heartbeat, "heartbeat",
		getEnvDuration("STOMP_PROBE_HEARTBEAT", 0),
		"Heartbeat interval, 0 for default, negative to disable (env: STOMP_PROBE_HEARTBEAT)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("STOMP_PROBE_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: STOMP_PROBE_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("STOMP_PROBE_LOG_FORMAT", "text"),
		"Log format: json, text (env: STOMP_PROBE_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("STOMP_PROBE_DEBUG", false),
		"Enable debug mode (env: STOMP_PROBE_DEBUG)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")

	flag.Usage = printDetailedHelp

	flag.Parse()

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.URL == "" {
		return fmt.Errorf("missing -url (or STOMP_PROBE_URL)")
	}
	if !strings.HasPrefix(cfg.URL, "ws://") && !strings.HasPrefix(cfg.URL, "wss://") {
		return fmt.Errorf("url must be ws:// or wss://: %s", cfg.URL)
	}

	if cfg.SendDestination != "" && cfg.SendBody == "" {
		return fmt.Errorf("-send requires -body")
	}
	if cfg.SendDestination == "" && cfg.Destination == "" {
		return fmt.Errorf("nothing to do: pass -subscribe and/or -send")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Realtime Endpoint Probe

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Watch a topic
  %s -url wss://example.com/ws -token $TOKEN -subscribe /topic/updates

  # Send one message and exit
  %s -url wss://example.com/ws -send /app/echo -body '{"ping":true}'

  # Probe a server that only accepts query-parameter tokens
  %s -url wss://legacy.example.com/ws -token $TOKEN -query-token -subscribe /topic/a

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
