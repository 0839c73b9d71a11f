// Package queue provides the unbounded blocking queue shared by the executor
// loop and the worker pool. Producers never block; consumers block until an
// item is available, the queue is closed, or their context is done.
package queue

import (
	"context"
	"sync"

	gferrors "github.com/vnykmshr/fiberflow/pkg/common/errors"
)

// Queue is an unbounded FIFO queue safe for any number of producers and consumers.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	// ready holds at most one wake-up token. A consumer that leaves items
	// behind passes the token on so that no waiter sleeps on a non-empty queue.
	ready chan struct{}
	done  chan struct{}
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Put appends item. It never blocks. Returns ErrClosed after Close.
func (q *Queue[T]) Put(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return gferrors.ErrClosed
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	q.signal()
	return nil
}

// Take removes and returns the oldest item, blocking while the queue is empty.
// Once the queue is closed, remaining items are still handed out; after that
// Take returns ErrClosed.
func (q *Queue[T]) Take(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return item, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return zero, gferrors.ErrClosed
		}
		if err := q.wait(ctx); err != nil {
			return zero, err
		}
	}
}

// TakeAll blocks until at least one item is available and then removes every
// item currently queued, in arrival order.
func (q *Queue[T]) TakeAll(ctx context.Context) ([]T, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			batch := q.items
			q.items = nil
			q.mu.Unlock()
			return batch, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, gferrors.ErrClosed
		}
		if err := q.wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Close stops accepting items and wakes every blocked consumer.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) wait(ctx context.Context) error {
	select {
	case <-q.ready:
		return nil
	case <-q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
