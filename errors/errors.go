package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Connection lifecycle errors
	ErrNotConnected       = stderrors.New("not connected")
	ErrAlreadyConnected   = stderrors.New("already connected")
	ErrConnectionLost     = stderrors.New("connection lost")
	ErrConnectionTimeout  = stderrors.New("connection timeout")
	ErrTransportClosed    = stderrors.New("transport closed")
	ErrReconnectExhausted = stderrors.New("reconnect attempts exhausted")

	// Protocol errors
	ErrInvalidFrame    = stderrors.New("invalid STOMP frame")
	ErrUnknownCommand  = stderrors.New("unknown STOMP command")
	ErrServerError     = stderrors.New("server reported error")
	ErrMissingHeader   = stderrors.New("missing required header")
	ErrSubscribeFailed = stderrors.New("subscription failed")

	// Queue and resource errors
	ErrQueueFull = stderrors.New("outbound queue full")

	// Configuration errors
	ErrInvalidConfig = stderrors.New("invalid configuration")
	ErrMissingConfig = stderrors.New("missing required configuration")

	// Authentication errors
	ErrNoToken      = stderrors.New("no access token available")
	ErrTokenExpired = stderrors.New("access token expired")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if stderrors.Is(err, ErrConnectionTimeout) ||
		stderrors.Is(err, ErrConnectionLost) ||
		stderrors.Is(err, ErrNotConnected) ||
		stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, context.Canceled) {
		return true
	}

	// Fall back to common transient patterns in the message
	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"unavailable",
		"retry",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return stderrors.Is(err, ErrInvalidConfig) ||
		stderrors.Is(err, ErrMissingConfig) ||
		stderrors.Is(err, ErrReconnectExhausted)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return stderrors.Is(err, ErrInvalidFrame) ||
		stderrors.Is(err, ErrUnknownCommand) ||
		stderrors.Is(err, ErrMissingHeader)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}
	if IsTransient(err) {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}
	// Default to transient for unknown errors to allow retry
	return ErrorTransient
}

// newClassified creates a new classified error.
// Internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// Is reports whether any error in err's chain matches target.
// Re-exported so transport callers don't need two errors imports.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return stderrors.New(text)
}
