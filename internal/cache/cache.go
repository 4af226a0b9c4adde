package cache

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultCapacity = 512

// Expiry computes an entry's expiration instant from the time it was stored.
type Expiry func(now time.Time) time.Time

// UntilNextHour expires entries at the next top of the hour in loc.
// Scans run hourly, so results stay valid until the next scan can have landed.
func UntilNextHour(loc *time.Location) Expiry {
	if loc == nil {
		loc = time.UTC
	}
	return func(now time.Time) time.Time {
		local := now.In(loc)
		return time.Date(local.Year(), local.Month(), local.Day(), local.Hour()+1, 0, 0, 0, loc)
	}
}

// For expires entries a fixed duration after they were stored.
func For(ttl time.Duration) Expiry {
	return func(now time.Time) time.Time {
		return now.Add(ttl)
	}
}

// Cache is a thread-safe LRU of computed results with per-entry expiry and tag invalidation.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
	tags     map[string]map[string]struct{}

	// generation changes on every invalidation so loads started before it are not stored.
	generation uint64

	group   singleflight.Group
	nowFn   func() time.Time
	enabled bool
}

type cacheEntry struct {
	key       string
	value     any
	expiresAt time.Time
	tags      []string
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity bounds the number of entries; the least recently used is evicted first.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(nowFn func() time.Time) Option {
	return func(c *Cache) { c.nowFn = nowFn }
}

// Disabled turns the cache into a pass-through; every GetOrLoad calls its loader.
func Disabled() Option {
	return func(c *Cache) { c.enabled = false }
}

func New(opts ...Option) *Cache {
	c := &Cache{
		capacity: defaultCapacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		tags:     make(map[string]map[string]struct{}),
		nowFn:    time.Now,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a live entry and marks it recently used. Expired entries are dropped.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if !c.nowFn().Before(entry.expiresAt) {
		c.removeElement(elem)
		return nil, false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key until expiresAt, indexed by tags.
func (c *Cache) Set(key string, value any, expiresAt time.Time, tags ...string) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, expiresAt, tags)
}

func (c *Cache) setLocked(key string, value any, expiresAt time.Time, tags []string) {
	if elem, ok := c.entries[key]; ok {
		c.removeElement(elem)
	}

	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}

	entry := &cacheEntry{key: key, value: value, expiresAt: expiresAt, tags: tags}
	c.entries[key] = c.order.PushFront(entry)
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
	for _, tag := range entry.tags {
		if keys, ok := c.tags[tag]; ok {
			delete(keys, entry.key)
			if len(keys) == 0 {
				delete(c.tags, tag)
			}
		}
	}
}

// Invalidate drops every entry carrying any of tags and returns how many were removed.
// Loads already in flight when Invalidate runs are not stored.
func (c *Cache) Invalidate(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	removed := 0
	for _, tag := range tags {
		for key := range c.tags[tag] {
			if elem, ok := c.entries[key]; ok {
				c.removeElement(elem)
				removed++
			}
		}
	}

	slog.Debug("[Cache] Invalidated", "tags", tags, "removed", removed)
	return removed
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// GetOrLoad returns the cached value for key or computes it with load.
// Concurrent callers for the same key share one load. Errors are never cached.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, expiry Expiry, tags []string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled {
		return load(ctx)
	}

	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.Lock()
		gen := c.generation
		c.mu.Unlock()

		// Shared by every waiter on key; one caller going away must not fail the rest.
		value, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.setLocked(key, value, expiry(c.nowFn()), tags)
		}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %q holds %T", key, v)
	}
	return typed, nil
}
