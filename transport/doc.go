// Package transport implements the realtime STOMP 1.2 over WebSocket client.
//
// A Transport owns one underlying socket, the subscription registry, the
// outbound message queue, the heartbeat timer, and the reconnection policy.
// Callers connect once, subscribe to destinations, and send payloads; the
// transport survives transient connection loss by reconnecting with linear
// backoff and replaying live subscriptions on the fresh session.
//
// # Lifecycle
//
//	cfg := transport.DefaultConfig()
//	cfg.URL = "wss://api.example.com/ws"
//	t, err := transport.New(cfg)
//	if err != nil { ... }
//
//	remove := t.OnStateChange(func(s transport.State) { ... })
//	defer remove()
//
//	if err := t.Connect(ctx); err != nil { ... }
//
//	unsubscribe, _ := t.Subscribe("/topic/updates", func(v any) { ... })
//	defer unsubscribe()
//
//	_ = t.Send("/app/echo", map[string]any{"text": "hi"})
//	t.Disconnect()
//
// Connect is idempotent while a connection is in flight or established. A
// failed first Connect returns the error and schedules no retry; only a live
// connection that is subsequently lost triggers the reconnection policy.
// Subscriptions survive transient loss and are replayed after the server's
// CONNECTED frame; only an explicit Disconnect or unsubscribe clears them.
// Messages sent while disconnected queue in FIFO order and drain on the next
// connected transition, before any later sends.
//
// Network and protocol failures are delivered through OnError listeners, not
// thrown from steady-state operations. Server ERROR frame bodies are
// credential-redacted before they reach listeners.
package transport
