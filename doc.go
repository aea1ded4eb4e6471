// Package realtime provides a realtime messaging client built on STOMP 1.2
// over WebSocket, with automatic reconnection, subscription replay, and an
// offline send queue.
//
// # Architecture
//
// The module is organized around one long-lived connection per Transport:
//
//	┌─────────────────────────────────────┐
//	│           transport                 │  Connection state machine
//	│  (connect, reconnect, heartbeat)    │  Subscription registry
//	└─────────────────────────────────────┘  Outbound queue
//	           ↓ encodes via
//	┌─────────────────────────────────────┐
//	│             frame                   │  STOMP 1.2 frame codec
//	│       (Encode, Decode)              │
//	└─────────────────────────────────────┘
//	           ↓ travels over
//	┌─────────────────────────────────────┐
//	│             Socket                  │  gorilla/websocket in
//	│     (Dialer abstraction)            │  production, fakes in tests
//	└─────────────────────────────────────┘
//
// # Packages
//
// Core:
//   - transport: connection lifecycle, subscriptions, sending, heartbeats
//   - frame: STOMP 1.2 frame encoding and decoding
//   - httpapi: REST companion client with shared auth and retry
//
// Infrastructure:
//   - errors: classified error handling (transient, invalid, fatal)
//   - token: bearer token sources (static, mutable, refreshing)
//   - pkg/queue: bounded FIFO queue with overflow policies
//   - pkg/retry: exponential backoff for request-scoped operations
//   - pkg/redact: credential scrubbing for logs and errors
//
// # Usage
//
//	cfg := transport.DefaultConfig()
//	cfg.URL = "wss://example.com/ws"
//	cfg.AccessToken = token
//
//	tr, err := transport.New(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tr.Disconnect()
//
//	if err := tr.Connect(ctx); err != nil {
//	    return err
//	}
//
//	unsubscribe, _ := tr.Subscribe("/topic/updates", func(msg any) {
//	    // msg is a decoded JSON value, or a raw string for
//	    // non-JSON payloads
//	})
//	defer unsubscribe()
//
//	tr.Send("/app/echo", map[string]string{"text": "hello"})
//
// Subscriptions and queued sends survive connection loss: subscriptions are
// replayed after every successful reconnect and queued messages are flushed
// in order as soon as the connection is back.
package realtime
