package util

import (
	"sync"
)

// AtomicEvent holds the latest value sent and a pending flag. Senders
// never block; a slow reader only ever sees the newest value.
type AtomicEvent[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{} // capacity 1
}

func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send stores event as the latest value and marks it pending.
func (ae *AtomicEvent[T]) Send(event T) {
	ae.mu.Lock()
	defer ae.mu.Unlock()

	ae.value = event

	select {
	case ae.notify <- struct{}{}:
	default:
		// already pending
	}
}

// Channel receives once per batch of Sends, for use in select statements.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the latest value without consuming the notification.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}

// HasPending reports whether a notification waits to be received.
func (ae *AtomicEvent[T]) HasPending() bool {
	return len(ae.notify) > 0
}

// Consume clears a pending notification and returns the latest value and
// whether there was one pending.
func (ae *AtomicEvent[T]) Consume() (T, bool) {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	select {
	case <-ae.notify:
		return ae.value, true
	default:
		return ae.value, false
	}
}
