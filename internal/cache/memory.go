package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

var ErrLoaderPanic = errors.New("cache loader panicked")

type item[V any] struct {
	value V
	// zero means the entry never expires on its own
	absolute  time.Time
	sliding   time.Duration
	expiresAt time.Time
}

func (i *item[V]) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

func (i *item[V]) touch(now time.Time) {
	if i.sliding <= 0 {
		return
	}
	next := now.Add(i.sliding)
	if !i.absolute.IsZero() && next.After(i.absolute) {
		next = i.absolute
	}
	i.expiresAt = next
}

type Memory[V any] struct {
	mu         sync.Mutex
	items      map[string]*item[V]
	maxEntries int
	defaultTTL time.Duration
	now        Clock
	loads      singleflight.Group
	// bumped by Flush and Clear; a load that started before a bump must not
	// store its result
	generation uint64
}

var _ Cache[struct{}] = (*Memory[struct{}])(nil)

// NewMemory creates a cache holding at most maxEntries entries. A non-positive
// ttl passed to Set falls back to defaultTTL; a non-positive defaultTTL means
// such entries never expire.
func NewMemory[V any](maxEntries int, defaultTTL time.Duration, opts ...Option) *Memory[V] {
	o := buildOptions(opts)
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &Memory[V]{
		items:      make(map[string]*item[V]),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        o.clock,
	}
}

func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	it, exists := c.items[key]
	if !exists {
		var zero V
		return zero, false
	}
	if it.expired(now) {
		delete(c.items, key)
		var zero V
		return zero, false
	}

	it.touch(now)
	return it.value, true
}

func (c *Memory[V]) Set(key string, value V, ttl time.Duration) {
	c.SetSliding(key, value, ttl, 0)
}

// SetSliding stores value so that it expires after sliding without reads, but
// never later than ttl from now. With a sliding window, a non-positive ttl
// means no absolute cap; defaultTTL only applies to entries without one.
func (c *Memory[V]) SetSliding(key string, value V, ttl, sliding time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store(key, value, ttl, sliding)
}

// store must be called with c.mu held.
func (c *Memory[V]) store(key string, value V, ttl, sliding time.Duration) {
	now := c.now()
	if ttl <= 0 && sliding <= 0 {
		ttl = c.defaultTTL
	}

	it := &item[V]{value: value, sliding: sliding}
	if ttl > 0 {
		it.absolute = now.Add(ttl)
		it.expiresAt = it.absolute
	}
	it.touch(now)

	if _, exists := c.items[key]; !exists {
		c.makeRoom(now)
	}
	c.items[key] = it
}

func (c *Memory[V]) Flush(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	c.generation++
	c.loads.Forget(key)
}

// GetOrLoad returns the cached value or runs loader and caches its result for
// ttl. Concurrent misses for the same key share one loader call and its
// result. The loader runs detached from the caller's cancellation; each caller
// stops waiting when its own ctx ends. A load overtaken by Flush or Clear
// returns its value without caching it. Loader errors are returned as is and
// nothing is cached.
func (c *Memory[V]) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader Loader[V]) (V, error) {
	var zero V
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	results := c.loads.DoChan(key, func() (any, error) {
		c.mu.Lock()
		generation := c.generation
		c.mu.Unlock()

		if value, ok := c.Get(key); ok {
			return value, nil
		}
		value, err := load(loadCtx, loader)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == generation {
			c.store(key, value, ttl, 0)
		}
		c.mu.Unlock()
		return value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(V)
		return value, nil
	}
}

// load runs loader off the caller's goroutine, so a panic is returned as an
// error instead of crashing the process.
func load[V any](ctx context.Context, loader Loader[V]) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrLoaderPanic, r)
		}
	}()
	return loader(ctx)
}

func (c *Memory[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*item[V])
	c.generation++
}

// Len reports stored entries, including expired ones not yet observed.
func (c *Memory[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}

// makeRoom must be called with c.mu held.
func (c *Memory[V]) makeRoom(now time.Time) {
	if len(c.items) < c.maxEntries {
		return
	}

	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
		}
	}

	for len(c.items) >= c.maxEntries {
		var (
			victim   string
			earliest time.Time
			found    bool
		)
		for key, it := range c.items {
			if it.expiresAt.IsZero() {
				if !found {
					victim, found = key, true
				}
				continue
			}
			if !found || earliest.IsZero() || it.expiresAt.Before(earliest) {
				victim, earliest, found = key, it.expiresAt, true
			}
		}
		delete(c.items, victim)
	}
}
