package health

import (
	"fmt"
	"testing"
	"time"
)

func TestCacheGetWithinTTL(t *testing.T) {
	now := time.Now()
	cache := NewCache[string](30*time.Second, 0)
	cache.now = func() time.Time { return now }

	cache.Set("beacon-stt", "record")

	now = now.Add(29 * time.Second)
	got, ok := cache.Get("beacon-stt")
	if !ok {
		t.Fatal("Get() within TTL should hit")
	}
	if got != "record" {
		t.Errorf("Get() = %q, want %q", got, "record")
	}
}

func TestCacheGetAtTTLBoundary(t *testing.T) {
	now := time.Now()
	cache := NewCache[string](30*time.Second, 0)
	cache.now = func() time.Time { return now }

	cache.Set("beacon-stt", "record")

	// An entry is valid iff age < ttl, so exactly ttl is a miss.
	now = now.Add(30 * time.Second)
	if _, ok := cache.Get("beacon-stt"); ok {
		t.Error("Get() at TTL boundary should miss")
	}

	stats := cache.Stats()
	if stats.Evictions != 1 {
		t.Errorf("stale lookup should evict, evictions = %d, want 1", stats.Evictions)
	}
}

func TestCacheMissOnUnknownKey(t *testing.T) {
	cache := NewCache[string](time.Minute, 0)

	if _, ok := cache.Get("nope"); ok {
		t.Error("Get() on unknown key should miss")
	}
}

func TestCacheCounters(t *testing.T) {
	now := time.Now()
	cache := NewCache[int](time.Minute, 0)
	cache.now = func() time.Time { return now }

	cache.Set("a", 1)
	cache.Get("a")    // hit
	cache.Get("b")    // miss
	cache.Get("a")    // hit
	cache.Get("gone") // miss

	stats := cache.Stats()
	if stats.Hits != 2 {
		t.Errorf("hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 2 {
		t.Errorf("misses = %d, want 2", stats.Misses)
	}
	if stats.Lookups != 4 {
		t.Errorf("lookups = %d, want 4", stats.Lookups)
	}
}

func TestCacheSweepOverSoftLimit(t *testing.T) {
	now := time.Now()
	cache := NewCache[int](time.Minute, 10)
	cache.now = func() time.Time { return now }

	// Fill with entries that will all be expired by the time the limit trips.
	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("old-%d", i), i)
	}

	now = now.Add(2 * time.Minute)
	cache.Set("fresh", 42)

	stats := cache.Stats()
	if stats.Size != 1 {
		t.Errorf("size after sweep = %d, want 1 (only the fresh entry)", stats.Size)
	}
	if stats.Evictions != 10 {
		t.Errorf("evictions = %d, want 10", stats.Evictions)
	}

	if _, ok := cache.Get("fresh"); !ok {
		t.Error("fresh entry should survive the sweep")
	}
}

func TestCacheSetOverwrites(t *testing.T) {
	cache := NewCache[string](time.Minute, 0)

	cache.Set("k", "first")
	cache.Set("k", "second")

	got, ok := cache.Get("k")
	if !ok || got != "second" {
		t.Errorf("Get() = %q, %v, want %q, true", got, ok, "second")
	}
}
