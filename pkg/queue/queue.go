// Package queue provides a thread-safe generic FIFO queue with optional
// capacity bounds and configurable overflow policies.
//
// The realtime transport uses it to hold outbound messages while
// disconnected. The default queue is unbounded; a capacity plus an overflow
// policy turns it into a bounded buffer that either evicts the oldest entry
// or rejects new ones. Statistics are always collected for observability.
package queue

import (
	"sync"

	"github.com/c360/realtime/errors"
)

// Policy defines behavior when a bounded queue is full.
type Policy int

const (
	// DropOldest evicts the oldest item to make room for new items.
	DropOldest Policy = iota

	// DropNewest silently discards the incoming item.
	DropNewest

	// Reject refuses the incoming item with ErrQueueFull.
	Reject
)

// String returns a human-readable representation of the policy.
func (p Policy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	case Reject:
		return "Reject"
	default:
		return "Unknown"
	}
}

// Stats holds cumulative queue counters.
type Stats struct {
	Enqueued uint64
	Dequeued uint64
	Dropped  uint64
}

// Option configures a Queue.
type Option[T any] func(*Queue[T])

// WithPolicy sets the overflow policy for a bounded queue.
func WithPolicy[T any](p Policy) Option[T] {
	return func(q *Queue[T]) { q.policy = p }
}

// WithDropCallback registers a callback invoked with each dropped item.
func WithDropCallback[T any](fn func(T)) Option[T] {
	return func(q *Queue[T]) { q.onDrop = fn }
}

// Queue is a FIFO queue. The zero capacity means unbounded growth.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	policy   Policy
	onDrop   func(T)
	stats    Stats
}

// New creates a queue. capacity <= 0 means unbounded.
func New[T any](capacity int, opts ...Option[T]) *Queue[T] {
	q := &Queue[T]{capacity: capacity}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends an item. On a full bounded queue the overflow policy decides:
// DropOldest evicts the head, DropNewest discards the item, Reject returns
// ErrQueueFull. Only Reject ever returns an error.
func (q *Queue[T]) Push(item T) error {
	var droppedItem T
	var dropped bool

	q.mu.Lock()
	if q.capacity > 0 && len(q.items) >= q.capacity {
		switch q.policy {
		case DropOldest:
			droppedItem = q.items[0]
			dropped = true
			q.items = q.items[1:]
			q.stats.Dropped++
		case DropNewest:
			droppedItem = item
			dropped = true
			q.stats.Dropped++
			q.mu.Unlock()
			q.notifyDrop(droppedItem)
			return nil
		case Reject:
			q.stats.Dropped++
			q.mu.Unlock()
			return errors.ErrQueueFull
		}
	}
	q.items = append(q.items, item)
	q.stats.Enqueued++
	q.mu.Unlock()

	if dropped {
		q.notifyDrop(droppedItem)
	}
	return nil
}

// Pop removes and returns the oldest item.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero // release reference
	q.items = q.items[1:]
	q.stats.Dequeued++
	return item, true
}

// Drain removes and returns all items in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	q.stats.Dequeued += uint64(len(out))
	return out
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Capacity returns the configured bound, 0 for unbounded.
func (q *Queue[T]) Capacity() int {
	return q.capacity
}

// Clear discards all queued items without counting them as dequeued.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Stats returns a snapshot of the cumulative counters.
func (q *Queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// notifyDrop runs the drop callback with the lock released so callbacks may
// touch the queue without deadlocking.
func (q *Queue[T]) notifyDrop(item T) {
	if q.onDrop != nil {
		q.onDrop(item)
	}
}
