package proxy

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Clock reports the current time. Tests inject a manual clock to drive expiry.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type cacheEntry[V any] struct {
	value   V
	expires time.Time
}

// Cache is a size-bounded memo whose entries expire after a fixed TTL.
// Expired entries are dropped on read; the LRU evicts the coldest keys once
// the size bound is reached.
type Cache[V any] struct {
	ttl     time.Duration
	clock   Clock
	entries *lru.Cache[string, cacheEntry[V]]
}

// NewCache builds a cache. A nil clock uses the wall clock.
func NewCache[V any](ttl time.Duration, size int, clock Clock) (*Cache[V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	entries, err := lru.New[string, cacheEntry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Cache[V]{ttl: ttl, clock: clock, entries: entries}, nil
}

// Get returns the cached value for key while it is fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil || c.ttl <= 0 {
		return zero, false
	}
	entry, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(entry.expires) {
		c.entries.Remove(key)
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key until the TTL elapses.
func (c *Cache[V]) Set(key string, value V) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.entries.Add(key, cacheEntry[V]{value: value, expires: c.clock.Now().Add(c.ttl)})
}

// Len reports the number of stored entries, including ones not yet purged.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	if c == nil {
		return
	}
	c.entries.Purge()
}
