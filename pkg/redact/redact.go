// Package redact scrubs credential-shaped substrings from text before it is
// logged or surfaced to error listeners. Server ERROR frames sometimes echo
// request headers back, which would otherwise leak bearer tokens into logs
// and UI surfaces.
package redact

import (
	"regexp"
)

// Marker replaces each redacted substring.
const Marker = "[REDACTED]"

var patterns = []*regexp.Regexp{
	// Authorization header / bearer token values
	regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`),
	// key=value and key: value pairs for sensitive keys
	regexp.MustCompile(`(?i)\b(password|passcode|token|secret|api[_-]?key|access[_-]?token)\s*[=:]\s*[^\s&"',;]+`),
}

// String returns s with all credential-shaped substrings replaced by Marker.
// For key/value pairs the key is preserved so the message stays diagnosable.
func String(s string) string {
	if s == "" {
		return s
	}
	out := patterns[0].ReplaceAllString(s, Marker)
	out = patterns[1].ReplaceAllString(out, "${1}="+Marker)
	return out
}

// Error returns the redacted message of err, or "" for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// URL scrubs token-bearing query parameters from a URL string. Used when the
// transport falls back to query-parameter token delivery and needs to log the
// endpoint it dialed.
func URL(u string) string {
	return String(u)
}
