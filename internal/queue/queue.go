// Package queue provides the FIFO used by the write and eviction pipelines:
// non-blocking Push for producers, blocking Pop for a consumer, and in-flight
// accounting so callers can tell when everything pushed has been handled.
package queue

import (
	"context"
	"errors"
	"sync"
)

// Overflow selects what Push does when a bounded queue is full.
type Overflow int

const (
	Reject     Overflow = iota // refuse the new item
	DropOldest                 // discard the head to make room
)

var ErrFull = errors.New("queue: full")

type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	inflight int

	limit    int // <= 0 => unbounded
	overflow Overflow

	// ready holds at most one wakeup; consumers re-arm it when items remain.
	ready chan struct{}
}

func New[T any](limit int, overflow Overflow) *Queue[T] {
	return &Queue[T]{
		limit:    limit,
		overflow: overflow,
		ready:    make(chan struct{}, 1),
	}
}

// Push appends v. It never blocks. When the queue is bounded and full it either
// returns ErrFull (Reject) or drops and returns the oldest item (DropOldest).
func (q *Queue[T]) Push(v T) (dropped T, didDrop bool, err error) {
	q.mu.Lock()
	if q.limit > 0 && len(q.items) >= q.limit {
		if q.overflow != DropOldest {
			q.mu.Unlock()
			return dropped, false, ErrFull
		}
		dropped, didDrop = q.shift(), true
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	q.signal()
	return dropped, didDrop, nil
}

// Pop blocks until an item is available or ctx is done. Every successful Pop
// must be paired with Done once the item has been handled.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.shift()
			q.inflight++
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal() // another consumer may be waiting
			}
			return v, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-q.ready:
		}
	}
}

// Done marks one popped item as handled.
func (q *Queue[T]) Done() {
	q.mu.Lock()
	if q.inflight > 0 {
		q.inflight--
	}
	q.mu.Unlock()
}

// Len returns the number of queued (not yet popped) items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns queued plus in-flight items.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) + q.inflight
}

// shift removes the head; q.mu must be held.
func (q *Queue[T]) shift() T {
	var zero T
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
