// Package token supplies bearer credentials to the realtime transport and
// the HTTP API client.
//
// A Source abstracts where tokens come from: a fixed string, an in-memory
// value swapped by the application on login, or a refreshing source that
// fetches a new token before the current one expires.
package token

import (
	"context"
	"sync"
	"time"

	"github.com/c360/realtime/errors"
)

// Source provides the current bearer token. Implementations must be safe for
// concurrent use.
type Source interface {
	// Token returns a valid bearer token, refreshing it first if needed.
	// An empty token with a nil error means "no credential configured" and
	// callers proceed unauthenticated.
	Token(ctx context.Context) (string, error)
}

// Static is a fixed token that never refreshes.
type Static string

// Token implements Source.
func (s Static) Token(context.Context) (string, error) {
	return string(s), nil
}

// Store holds a mutable token, swapped by the application when the user
// logs in, logs out, or the backend rotates credentials.
type Store struct {
	mu    sync.RWMutex
	value string
}

// NewStore creates a Store with an optional initial token.
func NewStore(initial string) *Store {
	return &Store{value: initial}
}

// Token implements Source.
func (s *Store) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, nil
}

// Set replaces the stored token. An empty string clears it.
func (s *Store) Set(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = tok
}

// RefreshFunc fetches a fresh token and reports how long it remains valid.
type RefreshFunc func(ctx context.Context) (tok string, ttl time.Duration, err error)

// Refreshing caches a token and calls its refresh function once the cached
// value is within the expiry margin. Concurrent callers share one refresh.
type Refreshing struct {
	refresh RefreshFunc
	margin  time.Duration

	mu      sync.Mutex
	cached  string
	expires time.Time
	now     func() time.Time // injectable for tests
}

// NewRefreshing creates a refreshing source. margin is subtracted from each
// token's TTL so refresh happens before actual expiry; zero means 30s.
func NewRefreshing(refresh RefreshFunc, margin time.Duration) *Refreshing {
	if margin <= 0 {
		margin = 30 * time.Second
	}
	return &Refreshing{
		refresh: refresh,
		margin:  margin,
		now:     time.Now,
	}
}

// Token implements Source.
func (r *Refreshing) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != "" && r.now().Before(r.expires) {
		return r.cached, nil
	}

	tok, ttl, err := r.refresh(ctx)
	if err != nil {
		return "", errors.WrapTransient(err, "Token", "Token", "refresh credential")
	}
	if tok == "" {
		return "", errors.ErrNoToken
	}

	r.cached = tok
	r.expires = r.now().Add(ttl - r.margin)
	return tok, nil
}

// Invalidate drops the cached token so the next call refreshes.
func (r *Refreshing) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = ""
	r.expires = time.Time{}
}
