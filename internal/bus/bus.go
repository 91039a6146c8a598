// Package bus provides the cells that connect the booth loops: append-only
// event buffers drained once per tick, and single-slot command channels.
package bus

import "sync"

// Buffer is an unbounded append-only buffer safe for concurrent producers
// and a single draining consumer.
type Buffer[T any] struct {
	mu    sync.Mutex
	items []T
}

// Push appends items to the buffer.
func (b *Buffer[T]) Push(items ...T) {
	if len(items) == 0 {
		return
	}
	b.mu.Lock()
	b.items = append(b.items, items...)
	b.mu.Unlock()
}

// Drain atomically takes everything pushed so far. Returns nil when empty.
func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := b.items
	b.items = nil
	return items
}

// Len returns the number of undrained items.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Latest is a channel of capacity one where a new value replaces an
// unconsumed one. Intended for one sender and one receiver.
type Latest[T any] struct {
	ch chan T
}

// NewLatest creates an empty Latest.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Send stores v, discarding any value not yet received.
func (l *Latest[T]) Send(v T) {
	for {
		select {
		case l.ch <- v:
			return
		default:
		}
		select {
		case <-l.ch:
		default:
		}
	}
}

// Receive returns the pending value, if any, without blocking.
func (l *Latest[T]) Receive() (T, bool) {
	select {
	case v := <-l.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}
