package cache

import (
	"slices"
	"sync"
	"time"
)

type queued[T any] struct {
	value     T
	expiresAt time.Time
}

// Queue is a rolling window of the most recent items, bounded by count and
// by per-item age. Items expire in insertion order, so purging only ever
// removes a prefix. Expiration happens on Enqueue and GetAll; there is no
// background timer.
type Queue[T any] struct {
	mu      sync.Mutex
	items   []queued[T]
	maxSize int
	maxAge  time.Duration
	now     Clock
}

// NewQueue creates a queue keeping at most maxSize items, each for maxAge.
// A non-positive maxAge disables age-based expiration.
func NewQueue[T any](maxSize int, maxAge time.Duration, opts ...Option) *Queue[T] {
	o := buildOptions(opts)
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Queue[T]{
		items:   make([]queued[T], 0, maxSize),
		maxSize: maxSize,
		maxAge:  maxAge,
		now:     o.clock,
	}
}

func (q *Queue[T]) Enqueue(value T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	q.purge(now)
	if len(q.items) >= q.maxSize {
		q.items = slices.Delete(q.items, 0, len(q.items)-q.maxSize+1)
	}

	var expiresAt time.Time
	if q.maxAge > 0 {
		expiresAt = now.Add(q.maxAge)
	}
	q.items = append(q.items, queued[T]{value: value, expiresAt: expiresAt})
}

// GetAll returns the live items, oldest first.
func (q *Queue[T]) GetAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.purge(q.now())
	result := make([]T, len(q.items))
	for i, it := range q.items {
		result[i] = it.value
	}
	return result
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.purge(q.now())
	return len(q.items)
}

func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	clear(q.items)
	q.items = q.items[:0]
}

// purge must be called with q.mu held.
func (q *Queue[T]) purge(now time.Time) {
	if q.maxAge <= 0 {
		return
	}
	n := 0
	for n < len(q.items) && !now.Before(q.items[n].expiresAt) {
		n++
	}
	if n > 0 {
		q.items = slices.Delete(q.items, 0, n)
	}
}
