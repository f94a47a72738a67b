package geometry

import (
	"sync/atomic"

	"github.com/maypok86/otter/v2"
)

const (
	defaultCacheSize    = 100_000
	defaultInitialCache = 10_000
)

type cachedPosition struct {
	pos Position
	ok  bool
}

// Cached memoises an underlying Lookup. Negative answers are cached too,
// so a noisy unknown channel costs one upstream call.
type Cached struct {
	next   Lookup
	cache  *otter.Cache[DetID, cachedPosition]
	hits   atomic.Int64
	misses atomic.Int64
}

// CacheOption applies a configuration option to NewCached.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	size int
}

// WithCacheSize bounds the number of memoised cells.
func WithCacheSize(size int) CacheOption {
	return func(c *cacheConfig) {
		if size > 0 {
			c.size = size
		}
	}
}

// NewCached wraps next with a bounded cache.
func NewCached(next Lookup, opts ...CacheOption) *Cached {
	cfg := cacheConfig{size: defaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	initial := defaultInitialCache
	if initial > cfg.size {
		initial = cfg.size
	}

	return &Cached{
		next: next,
		cache: otter.Must(&otter.Options[DetID, cachedPosition]{
			MaximumSize:     cfg.size,
			InitialCapacity: initial,
		}),
	}
}

// Position implements Lookup.
func (c *Cached) Position(id DetID) (Position, bool) {
	if v, found := c.cache.GetIfPresent(id); found {
		c.hits.Add(1)
		return v.pos, v.ok
	}
	c.misses.Add(1)
	pos, ok := c.next.Position(id)
	c.cache.Set(id, cachedPosition{pos: pos, ok: ok})
	return pos, ok
}

// Stats returns the cumulative hit and miss counts.
func (c *Cached) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the approximate number of cached cells.
func (c *Cached) Size() int {
	return c.cache.EstimatedSize()
}
