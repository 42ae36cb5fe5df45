package cache

import (
	"context"
	"time"
)

// Cache is a keyed in-memory store with absolute and sliding expiration.
// Expired entries are removed lazily by the call that observes them.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	SetSliding(key string, value V, ttl, sliding time.Duration)
	Flush(key string)
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader Loader[V]) (V, error)
	Clear()
	Len() int
}

// Loader produces the value for a missing key.
type Loader[V any] func(ctx context.Context) (V, error)

// Clock returns the current time. Tests replace it to control expiration.
type Clock func() time.Time

type options struct {
	clock Clock
}

type Option func(*options)

func WithClock(clock Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
