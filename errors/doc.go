// Package errors provides standardized error handling for the realtime client.
//
// It implements a three-class error classification system: Transient
// (temporary, retryable), Invalid (bad input or configuration, non-retryable),
// and Fatal (unrecoverable). Classification lets the transport and the HTTP
// client make retry decisions without error string matching.
//
// All error wrapping follows the format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions set classification while wrapping:
//
//	errors.WrapTransient(err, "Transport", "Connect", "dial socket")
//	errors.WrapInvalid(err, "Config", "Validate", "check url")
//	errors.WrapFatal(err, "Transport", "Send", "encode frame")
//
// The package interoperates with the standard library: errors.Is, errors.As
// and Unwrap all work across wrapped chains, and context cancellation errors
// classify as transient.
package errors
