package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/realtime/errors"
	"github.com/c360/realtime/frame"
	"github.com/c360/realtime/pkg/queue"
	"github.com/c360/realtime/pkg/redact"
	"github.com/c360/realtime/token"
)

// MessageHandler receives one delivered message per invocation. The value is
// the JSON-decoded body, or the raw body string when decoding fails, so
// handlers must tolerate either.
type MessageHandler func(v any)

// StateHandler observes connection state changes.
type StateHandler func(s State)

// ErrorHandler observes transport and protocol errors.
type ErrorHandler func(err error)

// subscription is one logical interest in a destination. It lives in the
// registry until explicitly unsubscribed; transient connection loss does not
// remove it.
type subscription struct {
	id          string
	destination string
	handler     MessageHandler
}

// outboundMessage is a payload queued while disconnected.
type outboundMessage struct {
	destination string
	body        []byte
}

// Transport is a STOMP 1.2 over WebSocket client. At most one underlying
// socket is open at a time. All exported methods are safe for concurrent use.
type Transport struct {
	cfg     Config
	log     *slog.Logger
	dialer  Dialer
	tokens  token.Source
	store   *token.Store // non-nil when the transport owns the token
	metrics *Metrics

	mu             sync.Mutex
	state          State
	sock           Socket
	gen            uint64 // bumped by Disconnect to invalidate in-flight work
	subs           map[string]*subscription
	subOrder       []string // registry insertion order, used for replay
	outbox         *queue.Queue[outboundMessage]
	attempts       int
	reconnectTimer *time.Timer
	hbStop         chan struct{}

	handlerMu     sync.Mutex
	nextHandlerID int
	stateHandlers map[int]StateHandler
	errorHandlers map[int]ErrorHandler

	afterFunc func(time.Duration, func()) *time.Timer // injectable for tests
}

// New creates a Transport from cfg. The configuration is validated and
// zero-valued knobs are filled with defaults.
func New(cfg Config) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t := &Transport{
		cfg:           cfg,
		log:           cfg.Logger.With("component", "transport"),
		dialer:        cfg.Dialer,
		metrics:       newMetrics(cfg.Registerer),
		subs:          make(map[string]*subscription),
		stateHandlers: make(map[int]StateHandler),
		errorHandlers: make(map[int]ErrorHandler),
		afterFunc:     time.AfterFunc,
	}

	if cfg.TokenSource != nil {
		t.tokens = cfg.TokenSource
	} else {
		t.store = token.NewStore(cfg.AccessToken)
		t.tokens = t.store
	}

	if cfg.TokenTransport == TokenTransportQuery && (cfg.AccessToken != "" || cfg.TokenSource != nil) {
		t.log.Warn("token transport set to query; the access token will appear in URLs and server logs")
	}

	t.outbox = queue.New(cfg.QueueCapacity,
		queue.WithPolicy[outboundMessage](cfg.QueuePolicy),
		queue.WithDropCallback(func(m outboundMessage) {
			t.metrics.messageDropped()
			t.log.Warn("outbound message dropped by queue policy", "destination", m.destination)
		}),
	)

	return t, nil
}

// State returns the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetAccessToken replaces the bearer credential used on subsequent
// connections. Ignored with a warning when an external TokenSource is
// configured.
func (t *Transport) SetAccessToken(tok string) {
	if t.store == nil {
		t.log.Warn("SetAccessToken ignored; transport uses an external token source")
		return
	}
	t.store.Set(tok)
}

// OnStateChange registers a listener notified synchronously on every actual
// state change. The returned function removes the listener.
func (t *Transport) OnStateChange(h StateHandler) func() {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	id := t.nextHandlerID
	t.nextHandlerID++
	t.stateHandlers[id] = h
	return func() {
		t.handlerMu.Lock()
		defer t.handlerMu.Unlock()
		delete(t.stateHandlers, id)
	}
}

// OnError registers a listener for transport and protocol errors. The
// returned function removes the listener.
func (t *Transport) OnError(h ErrorHandler) func() {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	id := t.nextHandlerID
	t.nextHandlerID++
	t.errorHandlers[id] = h
	return func() {
		t.handlerMu.Lock()
		defer t.handlerMu.Unlock()
		delete(t.errorHandlers, id)
	}
}

// Connect establishes the connection. It is idempotent while a connection is
// in flight or established. A failed first attempt returns the error and
// schedules no retry; the reconnection policy only engages when a live
// connection is lost.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.state == StateConnecting || t.state == StateConnected {
		t.mu.Unlock()
		return nil
	}
	t.cancelReconnectLocked()
	gen := t.gen
	notify := t.transitionLocked(StateConnecting)
	t.mu.Unlock()
	notify()

	if err := t.establish(ctx, gen); err != nil {
		t.mu.Lock()
		settle := func() {}
		if t.gen == gen && t.state == StateConnecting {
			settle = t.transitionLocked(StateDisconnected)
		}
		t.mu.Unlock()
		settle()
		return err
	}
	return nil
}

// Disconnect tears the connection down: cancels any pending reconnect,
// stops the heartbeat, sends a STOMP DISCONNECT if the socket is open,
// closes the socket, clears the subscription registry, and resets the
// reconnect counter. This is the only path that clears subscriptions.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.gen++
	t.cancelReconnectLocked()
	t.stopHeartbeatLocked()
	if t.sock != nil {
		_ = t.writeFrameLocked(t.sock, frame.New(frame.CmdDisconnect, nil))
		_ = t.sock.Close()
		t.sock = nil
	}
	t.subs = make(map[string]*subscription)
	t.subOrder = nil
	t.attempts = 0
	notify := t.transitionLocked(StateDisconnected)
	t.mu.Unlock()
	notify()
}

// Subscribe registers interest in a destination and returns an unsubscribe
// function. Registration always succeeds regardless of connection state;
// when not connected the SUBSCRIBE frame is sent as part of the replay after
// the next CONNECTED frame. Subscription identifiers are never reused.
func (t *Transport) Subscribe(destination string, handler MessageHandler) (func(), error) {
	if destination == "" {
		return nil, errors.WrapInvalid(errors.New("destination required"), "Transport", "Subscribe", "validate destination")
	}
	if handler == nil {
		return nil, errors.WrapInvalid(errors.New("handler required"), "Transport", "Subscribe", "validate handler")
	}

	sub := &subscription{
		id:          uuid.NewString(),
		destination: destination,
		handler:     handler,
	}

	t.mu.Lock()
	t.subs[sub.id] = sub
	t.subOrder = append(t.subOrder, sub.id)
	if t.state == StateConnected && t.sock != nil {
		f := frame.New(frame.CmdSubscribe, nil,
			frame.HdrID, sub.id,
			frame.HdrDestination, destination,
		)
		if err := t.writeFrameLocked(t.sock, f); err != nil {
			// Registration stands; the read loop will notice the dead
			// socket and replay covers this subscription on reconnect.
			t.log.Warn("subscribe frame not sent", "destination", destination, "error", redact.Error(err))
		}
	}
	t.mu.Unlock()

	id := sub.id
	return func() { t.unsubscribe(id) }, nil
}

func (t *Transport) unsubscribe(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.subs[id]; !ok {
		return
	}
	delete(t.subs, id)
	for i, sid := range t.subOrder {
		if sid == id {
			t.subOrder = append(t.subOrder[:i], t.subOrder[i+1:]...)
			break
		}
	}
	// The server only knows about the subscription while connected.
	if t.state == StateConnected && t.sock != nil {
		_ = t.writeFrameLocked(t.sock, frame.New(frame.CmdUnsubscribe, nil, frame.HdrID, id))
	}
}

// Send transmits a payload to a destination. While connected the frame goes
// out immediately; otherwise the message joins the FIFO outbound queue and
// drains on the next connected transition. String and []byte payloads are
// sent verbatim, everything else is JSON-serialized.
func (t *Transport) Send(destination string, body any) error {
	if destination == "" {
		return errors.WrapInvalid(errors.New("destination required"), "Transport", "Send", "validate destination")
	}
	payload, err := encodeBody(body)
	if err != nil {
		return errors.WrapInvalid(err, "Transport", "Send", "encode body")
	}

	t.mu.Lock()
	if t.state == StateConnected && t.sock != nil {
		werr := t.writeFrameLocked(t.sock, sendFrame(destination, payload))
		t.mu.Unlock()
		return werr
	}
	perr := t.outbox.Push(outboundMessage{destination: destination, body: payload})
	t.metrics.setQueueDepth(t.outbox.Len())
	t.mu.Unlock()

	if perr != nil {
		return errors.Wrap(perr, "Transport", "Send", "queue message")
	}
	t.debugf("queued message while disconnected", "destination", destination)
	return nil
}

// QueueDepth reports how many outbound messages are waiting for the next
// connection.
func (t *Transport) QueueDepth() int {
	return t.outbox.Len()
}

// establish resolves the token, dials, sends CONNECT, and completes the
// connected transition. gen guards against a Disconnect racing the dial.
func (t *Transport) establish(ctx context.Context, gen uint64) error {
	tok, err := t.tokens.Token(ctx)
	if err != nil {
		return errors.WrapTransient(err, "Transport", "Connect", "resolve token")
	}

	dialURL := t.cfg.URL
	if t.cfg.TokenTransport == TokenTransportQuery && tok != "" {
		dialURL, err = appendTokenQuery(dialURL, tok)
		if err != nil {
			return errors.WrapInvalid(err, "Transport", "Connect", "build url")
		}
	}

	sock, err := t.dialer.Dial(ctx, dialURL)
	if err != nil {
		return errors.WrapTransient(err, "Transport", "Connect", "dial socket")
	}

	connect := frame.New(frame.CmdConnect, nil,
		frame.HdrAcceptVersion, "1.2",
		frame.HdrHeartBeat, heartbeatSpec(t.cfg.HeartbeatInterval),
	)
	if t.cfg.TokenTransport == TokenTransportHeader && tok != "" {
		connect = connect.AppendHeader(frame.HdrAuthorization, "Bearer "+tok)
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		_ = sock.Close()
		return errors.WrapTransient(errors.ErrTransportClosed, "Transport", "Connect", "finish handshake")
	}
	t.sock = sock
	if err := t.writeFrameLocked(sock, connect); err != nil {
		t.sock = nil
		t.mu.Unlock()
		_ = sock.Close()
		return err
	}
	t.attempts = 0
	t.startHeartbeatLocked(sock)
	t.drainOutboxLocked(sock)
	notify := t.transitionLocked(StateConnected)
	t.mu.Unlock()

	go t.readLoop(sock)
	notify()
	return nil
}

// readLoop pumps inbound messages until the socket dies.
func (t *Transport) readLoop(sock Socket) {
	for {
		data, err := sock.ReadMessage()
		if err != nil {
			t.handleSocketClosed(sock, err)
			return
		}
		t.handleIncoming(sock, data)
	}
}

// handleSocketClosed reacts to an unexpected close. Late events from a
// superseded socket are ignored: closing a socket does not synchronously
// suppress its in-flight callbacks.
func (t *Transport) handleSocketClosed(sock Socket, cause error) {
	t.mu.Lock()
	if t.sock != sock {
		t.mu.Unlock()
		return
	}
	t.sock = nil
	t.stopHeartbeatLocked()
	notify, exhausted := t.scheduleReconnectLocked()
	t.mu.Unlock()

	t.metrics.errorSurfaced("transport")
	t.notifyError(errors.WrapTransient(errors.ErrConnectionLost, "Transport", "readLoop", fmt.Sprintf("socket closed: %v", redact.Error(cause))))
	notify()
	if exhausted {
		t.metrics.errorSurfaced("reconnect_exhausted")
		t.notifyError(errors.WrapFatal(errors.ErrReconnectExhausted, "Transport", "reconnect", fmt.Sprintf("give up after %d attempts", t.cfg.MaxReconnectAttempts)))
	}
}

// scheduleReconnectLocked decides whether another reconnect attempt is
// permitted and, if so, schedules the single pending timer. The boolean
// reports that attempts are exhausted.
func (t *Transport) scheduleReconnectLocked() (func(), bool) {
	if !t.cfg.AutoReconnect {
		return t.transitionLocked(StateDisconnected), false
	}
	if t.attempts >= t.cfg.MaxReconnectAttempts {
		return t.transitionLocked(StateDisconnected), true
	}
	if t.reconnectTimer != nil {
		// Only one reconnect timer may be pending at a time.
		return func() {}, false
	}

	n := t.attempts + 1
	delay := t.reconnectDelayFor(n)
	t.debugf("scheduling reconnect", "attempt", n, "delay", delay)
	notify := t.transitionLocked(StateReconnecting)
	t.reconnectTimer = t.afterFunc(delay, t.reconnectAttempt)
	return notify, false
}

// reconnectDelayFor returns the backoff delay for the nth attempt
// (1-indexed): linear growth capped at five times the base delay.
func (t *Transport) reconnectDelayFor(n int) time.Duration {
	if n > 5 {
		n = 5
	}
	return t.cfg.ReconnectDelay * time.Duration(n)
}

// reconnectAttempt runs when the reconnect timer expires.
func (t *Transport) reconnectAttempt() {
	t.mu.Lock()
	t.reconnectTimer = nil
	if t.state != StateReconnecting {
		// Disconnect won the race with the timer.
		t.mu.Unlock()
		return
	}
	t.attempts++
	attempt := t.attempts
	gen := t.gen
	t.metrics.reconnectAttempt()
	notify := t.transitionLocked(StateConnecting)
	t.mu.Unlock()
	notify()

	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.DialTimeout)
	defer cancel()

	if err := t.establish(ctx, gen); err != nil {
		if errors.Is(err, errors.ErrTransportClosed) {
			return
		}
		t.log.Warn("reconnect attempt failed", "attempt", attempt, "error", redact.Error(err))
		t.notifyError(err)

		t.mu.Lock()
		post := func() {}
		var exhausted bool
		if t.gen == gen && t.state == StateConnecting {
			post, exhausted = t.scheduleReconnectLocked()
		}
		t.mu.Unlock()
		post()
		if exhausted {
			t.metrics.errorSurfaced("reconnect_exhausted")
			t.notifyError(errors.WrapFatal(errors.ErrReconnectExhausted, "Transport", "reconnect", fmt.Sprintf("give up after %d attempts", t.cfg.MaxReconnectAttempts)))
		}
		return
	}

	t.log.Info("reconnected", "attempt", attempt)
}

// handleIncoming decodes one inbound message and dispatches by command.
func (t *Transport) handleIncoming(sock Socket, data []byte) {
	if frame.IsHeartbeat(data) {
		return
	}

	f, err := frame.Decode(data)
	if err != nil {
		t.metrics.errorSurfaced("decode")
		t.notifyError(err)
		return
	}
	t.metrics.frameReceived(f.Command)

	switch f.Command {
	case frame.CmdConnected:
		t.debugf("handshake complete")
		t.replaySubscriptions(sock)
	case frame.CmdMessage:
		t.dispatchMessage(f)
	case frame.CmdError:
		t.handleServerError(f)
	case frame.CmdReceipt:
		t.debugf("receipt received")
	default:
		t.debugf("ignoring frame", "command", f.Command)
	}
}

// replaySubscriptions re-issues SUBSCRIBE for every live registry entry, in
// insertion order. A reconnect gets a fresh STOMP session with no server-side
// memory of prior subscriptions.
func (t *Transport) replaySubscriptions(sock Socket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sock != sock {
		return
	}
	for _, id := range t.subOrder {
		sub := t.subs[id]
		f := frame.New(frame.CmdSubscribe, nil,
			frame.HdrID, sub.id,
			frame.HdrDestination, sub.destination,
		)
		if err := t.writeFrameLocked(sock, f); err != nil {
			t.log.Warn("subscription replay interrupted", "destination", sub.destination, "error", redact.Error(err))
			return
		}
	}
}

// dispatchMessage routes a MESSAGE frame to its subscription handler.
func (t *Transport) dispatchMessage(f frame.Frame) {
	subID, ok := f.Header(frame.HdrSubscription)
	if !ok {
		t.debugf("message frame without subscription header")
		return
	}

	t.mu.Lock()
	sub, found := t.subs[subID]
	t.mu.Unlock()
	if !found {
		t.debugf("message for unknown subscription", "subscription", subID)
		return
	}

	var v any
	if err := json.Unmarshal(f.Body, &v); err != nil {
		// Non-JSON bodies pass through as raw text.
		v = string(f.Body)
	}
	sub.handler(v)
}

// handleServerError surfaces a STOMP ERROR frame to error listeners with
// credential-shaped substrings redacted.
func (t *Transport) handleServerError(f frame.Frame) {
	msg := string(f.Body)
	if msg == "" {
		if hdr, ok := f.Header(frame.HdrMessage); ok {
			msg = hdr
		}
	}
	t.metrics.errorSurfaced("server")
	t.notifyError(fmt.Errorf("%w: %s", errors.ErrServerError, redact.String(msg)))
}

// transitionLocked changes state and returns the listener notification,
// which the caller invokes after releasing the lock. No-op transitions do
// not notify.
func (t *Transport) transitionLocked(next State) func() {
	if t.state == next {
		return func() {}
	}
	t.state = next
	t.metrics.stateChanged(next)
	t.debugf("state changed", "state", next.String())

	t.handlerMu.Lock()
	handlers := make([]StateHandler, 0, len(t.stateHandlers))
	for _, h := range t.stateHandlers {
		handlers = append(handlers, h)
	}
	t.handlerMu.Unlock()

	return func() {
		for _, h := range handlers {
			h(next)
		}
	}
}

// notifyError delivers err to a snapshot of the error listeners.
func (t *Transport) notifyError(err error) {
	t.handlerMu.Lock()
	handlers := make([]ErrorHandler, 0, len(t.errorHandlers))
	for _, h := range t.errorHandlers {
		handlers = append(handlers, h)
	}
	t.handlerMu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

// drainOutboxLocked flushes queued messages oldest-first. Runs inside the
// connected transition, so queued sends hit the wire before any send issued
// after Connect returns.
func (t *Transport) drainOutboxLocked(sock Socket) {
	msgs := t.outbox.Drain()
	t.metrics.setQueueDepth(0)
	for _, m := range msgs {
		if err := t.writeFrameLocked(sock, sendFrame(m.destination, m.body)); err != nil {
			t.log.Warn("queued message not flushed", "destination", m.destination, "error", redact.Error(err))
		}
	}
}

// writeFrameLocked encodes and sends one frame on sock. Callers hold t.mu,
// which serializes all socket writes.
func (t *Transport) writeFrameLocked(sock Socket, f frame.Frame) error {
	if err := sock.WriteMessage(frame.Encode(f)); err != nil {
		return errors.WrapTransient(err, "Transport", "writeFrame", "send "+f.Command)
	}
	t.metrics.frameSent(f.Command)
	t.debugf("frame sent", "command", f.Command)
	return nil
}

// startHeartbeatLocked launches the heartbeat ticker for sock.
func (t *Transport) startHeartbeatLocked(sock Socket) {
	t.stopHeartbeatLocked()
	if t.cfg.HeartbeatInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	t.hbStop = stop
	go t.heartbeatLoop(sock, stop)
}

func (t *Transport) heartbeatLoop(sock Socket, stop chan struct{}) {
	ticker := time.NewTicker(t.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.sock == sock && t.state == StateConnected {
				// Best-effort: a dead socket is detected by the read loop.
				_ = sock.WriteMessage(frame.Heartbeat())
			}
			t.mu.Unlock()
		}
	}
}

// stopHeartbeatLocked is idempotent: stopping a never-started heartbeat is
// a no-op.
func (t *Transport) stopHeartbeatLocked() {
	if t.hbStop != nil {
		close(t.hbStop)
		t.hbStop = nil
	}
}

// cancelReconnectLocked is idempotent: cancelling a never-scheduled timer is
// a no-op.
func (t *Transport) cancelReconnectLocked() {
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
}

func (t *Transport) debugf(msg string, args ...any) {
	if t.cfg.Debug {
		t.log.Debug(msg, args...)
	}
}

// encodeBody serializes a payload for the SEND frame body. Strings and byte
// slices go verbatim, everything else is JSON.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

func sendFrame(destination string, body []byte) frame.Frame {
	return frame.New(frame.CmdSend, body,
		frame.HdrDestination, destination,
		frame.HdrContentType, "application/json",
	)
}

// heartbeatSpec renders the CONNECT heart-beat header value.
func heartbeatSpec(interval time.Duration) string {
	ms := interval.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d,%d", ms, ms)
}

// appendTokenQuery adds the access token as a URL query parameter. Fallback
// for transports that cannot set headers.
func appendTokenQuery(rawURL, tok string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("access_token", tok)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
