package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"ibgw/pkg/exception"
)

// Queue is a bounded FIFO handing items from producers to one consumer loop.
type Queue[T any] struct {
	ch     chan T
	done   chan struct{}
	once   sync.Once
	closed atomic.Bool
}

// NewQueue allocates a queue with the given capacity.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// TryPublish enqueues an item without blocking.
func (q *Queue[T]) TryPublish(item T) error {
	if q.closed.Load() {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	default:
		return exception.ErrQueueFull
	}
}

// Publish enqueues an item, waiting for room until ctx is done or the queue closes.
func (q *Queue[T]) Publish(ctx context.Context, item T) error {
	if q.closed.Load() {
		return exception.ErrQueueClosed
	}
	select {
	case q.ch <- item:
		return nil
	case <-q.done:
		return exception.ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}

// Close stops the queue from accepting new items. Items already queued are
// still handed to Run before it returns.
func (q *Queue[T]) Close() {
	q.once.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}

// Run consumes items until the context is done or the queue is closed and drained.
func (q *Queue[T]) Run(ctx context.Context, handler func(T)) {
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.ch:
			handler(item)
		case <-q.done:
			for {
				select {
				case item := <-q.ch:
					handler(item)
				default:
					return
				}
			}
		}
	}
}
