// Package main implements stomp-probe, a diagnostic client for realtime
// endpoints. It connects, optionally subscribes and sends, and prints every
// message and state change until interrupted.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/realtime/token"
	"github.com/c360/realtime/transport"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "stomp-probe"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Probe failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting probe",
		"version", Version,
		"url", cliCfg.URL,
		"destination", cliCfg.Destination)

	tr, err := buildTransport(cliCfg, logger)
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}
	defer tr.Disconnect()

	tr.OnStateChange(func(s transport.State) {
		slog.Info("Connection state changed", "state", s.String())
	})
	tr.OnError(func(err error) {
		slog.Warn("Transport error", "error", err)
	})

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := tr.Connect(signalCtx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if cliCfg.Destination != "" {
		unsubscribe, err := tr.Subscribe(cliCfg.Destination, printMessage)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", cliCfg.Destination, err)
		}
		defer unsubscribe()
		slog.Info("Subscribed", "destination", cliCfg.Destination)
	}

	if cliCfg.SendDestination != "" {
		if err := tr.Send(cliCfg.SendDestination, cliCfg.SendBody); err != nil {
			return fmt.Errorf("send to %s: %w", cliCfg.SendDestination, err)
		}
		slog.Info("Message sent", "destination", cliCfg.SendDestination)
		if cliCfg.Destination == "" {
			// Send-only invocation, nothing further to wait for.
			return nil
		}
	}

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")
	return nil
}

// buildTransport translates CLI flags into a transport configuration.
func buildTransport(cliCfg *CLIConfig, logger *slog.Logger) (*transport.Transport, error) {
	cfg := transport.DefaultConfig()
	cfg.URL = cliCfg.URL
	cfg.AutoReconnect = !cliCfg.NoReconnect
	cfg.Debug = cliCfg.Debug
	cfg.Logger = logger
	cfg.Registerer = prometheus.DefaultRegisterer

	if cliCfg.ReconnectDelay > 0 {
		cfg.ReconnectDelay = cliCfg.ReconnectDelay
	}
	if cliCfg.MaxReconnects > 0 {
		cfg.MaxReconnectAttempts = cliCfg.MaxReconnects
	}
	if cliCfg.Heartbeat != 0 {
		cfg.HeartbeatInterval = cliCfg.Heartbeat
	}
	if cliCfg.Token != "" {
		cfg.TokenSource = token.Static(cliCfg.Token)
	}
	if cliCfg.QueryToken {
		cfg.TokenTransport = transport.TokenTransportQuery
	}

	return transport.New(cfg)
}

// printMessage writes a received message to stdout, pretty-printing JSON
// payloads and passing raw text through.
func printMessage(v any) {
	switch payload := v.(type) {
	case string:
		fmt.Println(payload)
	default:
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			fmt.Printf("%v\n", payload)
			return
		}
		fmt.Println(string(out))
	}
}
