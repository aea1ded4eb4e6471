package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection timeout", ErrConnectionTimeout, true},
		{"connection lost", ErrConnectionLost, true},
		{"not connected", ErrNotConnected, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"context cancelled", context.Canceled, true},
		{"wrapped connection lost", fmt.Errorf("outer: %w", ErrConnectionLost), true},
		{"message pattern timeout", errors.New("operation timeout after 5s"), true},
		{"message pattern network", errors.New("network unreachable"), true},
		{"invalid config", ErrInvalidConfig, false},
		{"invalid frame", ErrInvalidFrame, false},
		{"unrelated error", errors.New("something broke"), false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsTransient(test.err); got != test.expected {
				t.Errorf("IsTransient(%v) = %v, want %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"reconnect exhausted", ErrReconnectExhausted, true},
		{"connection lost", ErrConnectionLost, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsFatal(test.err); got != test.expected {
				t.Errorf("IsFatal(%v) = %v, want %v", test.err, got, test.expected)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid frame", ErrInvalidFrame, true},
		{"unknown command", ErrUnknownCommand, true},
		{"missing header", ErrMissingHeader, true},
		{"wrapped invalid", WrapInvalid(ErrInvalidFrame, "Codec", "Decode", "parse"), true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsInvalid(test.err); got != test.expected {
				t.Errorf("IsInvalid(%v) = %v, want %v", test.err, got, test.expected)
			}
		})
	}
}

func TestWrap_Format(t *testing.T) {
	base := errors.New("socket closed")
	wrapped := Wrap(base, "Transport", "Connect", "dial socket")

	expected := "Transport.Connect: dial socket failed: socket closed"
	if wrapped.Error() != expected {
		t.Errorf("expected %q, got %q", expected, wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
}

func TestWrap_NilPassthrough(t *testing.T) {
	if Wrap(nil, "C", "M", "a") != nil {
		t.Error("Wrap(nil) should return nil")
	}
	if WrapTransient(nil, "C", "M", "a") != nil {
		t.Error("WrapTransient(nil) should return nil")
	}
	if WrapInvalid(nil, "C", "M", "a") != nil {
		t.Error("WrapInvalid(nil) should return nil")
	}
	if WrapFatal(nil, "C", "M", "a") != nil {
		t.Error("WrapFatal(nil) should return nil")
	}
}

func TestWrapClassification_PreservedThroughChain(t *testing.T) {
	base := errors.New("boom")

	transient := WrapTransient(base, "Transport", "Connect", "dial")
	if !IsTransient(transient) {
		t.Error("WrapTransient result should classify as transient")
	}

	// Another fmt.Errorf layer must not lose the classification
	rewrapped := fmt.Errorf("retry context: %w", transient)
	if !IsTransient(rewrapped) {
		t.Error("classification should survive further wrapping")
	}

	fatal := WrapFatal(base, "Transport", "Send", "encode")
	if !IsFatal(fatal) || IsTransient(fatal) {
		t.Error("WrapFatal result should classify as fatal only")
	}
}

func TestClassifiedError_Fields(t *testing.T) {
	err := WrapInvalid(ErrInvalidFrame, "Codec", "Decode", "parse headers")

	var ce *ClassifiedError
	if !errors.As(err, &ce) {
		t.Fatal("expected a ClassifiedError in the chain")
	}
	if ce.Component != "Codec" {
		t.Errorf("expected component Codec, got %s", ce.Component)
	}
	if ce.Operation != "Decode" {
		t.Errorf("expected operation Decode, got %s", ce.Operation)
	}
	if ce.Class != ErrorInvalid {
		t.Errorf("expected class invalid, got %s", ce.Class)
	}
	if !strings.Contains(ce.Error(), "parse headers failed") {
		t.Errorf("unexpected message: %s", ce.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil defaults transient", nil, ErrorTransient},
		{"transient", ErrConnectionLost, ErrorTransient},
		{"fatal", ErrInvalidConfig, ErrorFatal},
		{"invalid", ErrInvalidFrame, ErrorInvalid},
		{"unknown defaults transient", errors.New("mystery"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("Classify(%v) = %s, want %s", test.err, got, test.expected)
			}
		})
	}
}
