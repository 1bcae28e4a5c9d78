package health

import (
	"sync"
	"time"
)

// DefaultSoftSizeLimit is the entry count above which Set triggers a full
// sweep of expired entries.
const DefaultSoftSizeLimit = 100

type cacheEntry[T any] struct {
	value    T
	storedAt time.Time
}

// CacheStats are cumulative counters, exposed for observability only.
type CacheStats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Lookups   uint64 `json:"lookups"`
	Size      int    `json:"size"`
}

// Cache is a TTL-bounded cache. An entry is valid iff now - storedAt < ttl;
// stale entries are evicted lazily on lookup, and swept in one pass when the
// cache grows past the soft size limit on Set.
type Cache[T any] struct {
	mu        sync.Mutex
	ttl       time.Duration
	softLimit int
	entries   map[string]cacheEntry[T]

	hits      uint64
	misses    uint64
	evictions uint64
	lookups   uint64

	now func() time.Time // injectable for tests
}

// NewCache creates a cache with the given TTL and soft size limit.
// softLimit <= 0 falls back to DefaultSoftSizeLimit.
func NewCache[T any](ttl time.Duration, softLimit int) *Cache[T] {
	if softLimit <= 0 {
		softLimit = DefaultSoftSizeLimit
	}
	return &Cache[T]{
		ttl:       ttl,
		softLimit: softLimit,
		entries:   make(map[string]cacheEntry[T]),
		now:       time.Now,
	}
}

// Get returns the cached value for key if it is still fresh.
// A stale entry is evicted and reported as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}

	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.evictions++
		c.misses++
		var zero T
		return zero, false
	}

	c.hits++
	return entry.value, true
}

// Set stores value under key with the current timestamp. When the cache
// exceeds the soft size limit, every expired entry is removed in one pass.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry[T]{value: value, storedAt: now}

	if len(c.entries) > c.softLimit {
		c.sweepLocked(now)
	}
}

// sweepLocked removes all expired entries. Caller holds c.mu.
func (c *Cache[T]) sweepLocked(now time.Time) {
	for key, entry := range c.entries {
		if now.Sub(entry.storedAt) >= c.ttl {
			delete(c.entries, key)
			c.evictions++
		}
	}
}

// Stats returns a snapshot of the cumulative counters.
func (c *Cache[T]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Lookups:   c.lookups,
		Size:      len(c.entries),
	}
}
