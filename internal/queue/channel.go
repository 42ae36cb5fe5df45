package queue

import (
	"context"
	"errors"
	"sync"
)

var ErrClosed = errors.New("queue closed")

// Channel is a bounded FIFO. Enqueue blocks while the channel is full; items
// are never dropped by the channel itself.
type Channel[T any] struct {
	items     chan T
	closed    chan struct{}
	closeOnce sync.Once
}

func NewChannel[T any](capacity int) *Channel[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Channel[T]{
		items:  make(chan T, capacity),
		closed: make(chan struct{}),
	}
}

// Enqueue waits for free space. It returns ctx.Err() if the producer gives up
// first, and ErrClosed once the channel no longer accepts items.
func (c *Channel[T]) Enqueue(ctx context.Context, item T) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}

	select {
	case c.items <- item:
		return nil
	case <-c.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue waits for the next item or for ctx to end. Cancellation wins over
// a ready item.
func (c *Channel[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	select {
	case item := <-c.items:
		return item, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops accepting items. Items already buffered stay unread.
func (c *Channel[T]) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

func (c *Channel[T]) Len() int {
	return len(c.items)
}

func (c *Channel[T]) Cap() int {
	return cap(c.items)
}
