package transport

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/realtime/errors"
)

// Socket is the narrow contract the transport needs from an underlying
// connection: blocking reads, text writes, close. Production sockets wrap
// gorilla/websocket; tests substitute fakes.
type Socket interface {
	// ReadMessage blocks until the next inbound message or a read error.
	// A read error means the socket is dead.
	ReadMessage() ([]byte, error)

	// WriteMessage sends one text message.
	WriteMessage(data []byte) error

	// Close tears down the connection. Safe to call more than once.
	Close() error
}

// Dialer constructs sockets. The transport holds exactly one live socket at
// a time; every reconnection attempt goes through the dialer again.
type Dialer interface {
	Dial(ctx context.Context, url string) (Socket, error)
}

// WebSocketDialer dials gorilla/websocket connections.
type WebSocketDialer struct {
	dialer *websocket.Dialer
}

// NewWebSocketDialer creates a dialer with the given handshake timeout.
func NewWebSocketDialer(handshakeTimeout time.Duration) *WebSocketDialer {
	return &WebSocketDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Socket, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.WrapTransient(err, "WebSocketDialer", "Dial", "open socket")
	}
	return &wsSocket{conn: conn}, nil
}

// wsSocket adapts *websocket.Conn to the Socket interface.
type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) ReadMessage() ([]byte, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		return nil, errors.WrapTransient(err, "Socket", "ReadMessage", "read socket")
	}
	return data, nil
}

func (s *wsSocket) WriteMessage(data []byte) error {
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.WrapTransient(err, "Socket", "WriteMessage", "write socket")
	}
	return nil
}

func (s *wsSocket) Close() error {
	// Best-effort close frame before tearing down the TCP connection.
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}
