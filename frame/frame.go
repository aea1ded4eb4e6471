package frame

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/c360/realtime/errors"
)

// STOMP command tokens. Client frames are sent by the transport, server
// frames are received and dispatched.
const (
	// Client commands
	CmdConnect     = "CONNECT"
	CmdStomp       = "STOMP"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdSend        = "SEND"
	CmdDisconnect  = "DISCONNECT"
	CmdAck         = "ACK"
	CmdNack        = "NACK"

	// Server commands
	CmdConnected = "CONNECTED"
	CmdMessage   = "MESSAGE"
	CmdError     = "ERROR"
	CmdReceipt   = "RECEIPT"
)

// Common header names used by the transport.
const (
	HdrAcceptVersion = "accept-version"
	HdrHeartBeat     = "heart-beat"
	HdrAuthorization = "Authorization"
	HdrID            = "id"
	HdrDestination   = "destination"
	HdrSubscription  = "subscription"
	HdrContentType   = "content-type"
	HdrMessage       = "message"
)

// nul terminates every encoded frame on the wire.
const nul = "\x00"

var knownCommands = map[string]bool{
	CmdConnect:     true,
	CmdStomp:       true,
	CmdSubscribe:   true,
	CmdUnsubscribe: true,
	CmdSend:        true,
	CmdDisconnect:  true,
	CmdAck:         true,
	CmdNack:        true,
	CmdConnected:   true,
	CmdMessage:     true,
	CmdError:       true,
	CmdReceipt:     true,
}

// Header is a single name/value pair. Order is preserved on the wire.
type Header struct {
	Name  string
	Value string
}

// Frame is one STOMP protocol unit.
type Frame struct {
	Command string
	Headers []Header
	Body    []byte
}

// New constructs a frame from alternating header name/value pairs.
// Panics if the pair count is odd; callers pass literals.
func New(command string, body []byte, headerPairs ...string) Frame {
	if len(headerPairs)%2 != 0 {
		panic("frame.New: header pairs must come in name/value couples")
	}
	headers := make([]Header, 0, len(headerPairs)/2)
	for i := 0; i < len(headerPairs); i += 2 {
		headers = append(headers, Header{Name: headerPairs[i], Value: headerPairs[i+1]})
	}
	return Frame{Command: command, Headers: headers, Body: body}
}

// Header returns the value of the first header with the given name.
func (f Frame) Header(name string) (string, bool) {
	for _, h := range f.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}
	return "", false
}

// AppendHeader returns a copy of the frame with one more header appended.
func (f Frame) AppendHeader(name, value string) Frame {
	headers := make([]Header, len(f.Headers), len(f.Headers)+1)
	copy(headers, f.Headers)
	f.Headers = append(headers, Header{Name: name, Value: value})
	return f
}

// Encode serializes a frame to its wire representation:
// command line, headers in insertion order, blank line, body, NUL terminator.
func Encode(f Frame) []byte {
	var b bytes.Buffer
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for _, h := range f.Headers {
		b.WriteString(h.Name)
		b.WriteByte(':')
		b.WriteString(h.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.Write(f.Body)
	b.WriteString(nul)
	return b.Bytes()
}

// Heartbeat returns the outbound heartbeat frame, a single newline.
func Heartbeat() []byte {
	return []byte("\n")
}

// IsHeartbeat reports whether raw socket data is a heartbeat rather than a
// command frame.
func IsHeartbeat(data []byte) bool {
	trimmed := bytes.Trim(data, "\r\n")
	return len(trimmed) == 0
}

// Decode parses raw socket text into a frame.
//
// Line 0 is the command. Subsequent lines up to the first blank line are
// headers, split on the first colon. The remainder, joined, with a trailing
// NUL stripped, is the body. Trailing carriage returns on command and header
// lines are tolerated for servers that emit CRLF line endings.
func Decode(data []byte) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, errors.WrapInvalid(errors.ErrInvalidFrame, "Frame", "Decode", "parse empty input")
	}
	if IsHeartbeat(data) {
		return Frame{}, errors.WrapInvalid(errors.ErrInvalidFrame, "Frame", "Decode", "parse heartbeat as frame")
	}

	lines := strings.Split(string(data), "\n")
	command := strings.TrimSuffix(lines[0], "\r")
	if !knownCommands[command] {
		return Frame{}, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownCommand, command),
			"Frame", "Decode", "parse command")
	}

	f := Frame{Command: command}

	// Headers run until the first blank line.
	i := 1
	for ; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if line == "" {
			i++
			break
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return Frame{}, errors.WrapInvalid(
				fmt.Errorf("%w: header line %q has no colon", errors.ErrInvalidFrame, line),
				"Frame", "Decode", "parse headers")
		}
		f.Headers = append(f.Headers, Header{Name: name, Value: value})
	}

	if i < len(lines) {
		body := strings.Join(lines[i:], "\n")
		body = strings.TrimSuffix(body, nul)
		if body != "" {
			f.Body = []byte(body)
		}
	}

	return f, nil
}
