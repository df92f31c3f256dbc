package backend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Cache holds GET responses for a short time, keyed by token and path so
// one admin never sees another's data. A nil *Cache disables caching.
type Cache struct {
	store *ristretto.Cache[string, []byte]
	ttl   time.Duration
	paths map[string]bool
}

// NewCache creates a response cache. It returns nil when ttl is zero.
func NewCache(ttl time.Duration, paths []string) (*Cache, error) {
	if ttl <= 0 || len(paths) == 0 {
		return nil, nil
	}

	store, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 1e5,
		MaxCost:     64 << 20,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("create response cache: %w", err)
	}

	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return &Cache{store: store, ttl: ttl, paths: set}, nil
}

// Cacheable reports whether responses for path may be cached.
func (c *Cache) Cacheable(path string) bool {
	return c != nil && c.paths[path]
}

// Get returns a cached body.
func (c *Cache) Get(token, target string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	return c.store.Get(cacheKey(token, target))
}

// Set stores body and waits for the write to become visible.
func (c *Cache) Set(token, target string, body []byte) {
	if c == nil {
		return
	}
	c.store.SetWithTTL(cacheKey(token, target), body, int64(len(body))+1, c.ttl)
	c.store.Wait()
}

// CacheStats is a point-in-time view of cache effectiveness.
type CacheStats struct {
	Hits   uint64  `json:"hits"`
	Misses uint64  `json:"misses"`
	Ratio  float64 `json:"hit_ratio"`
}

// Stats reports hit counters. ok is false when caching is disabled.
func (c *Cache) Stats() (stats CacheStats, ok bool) {
	if c == nil || c.store.Metrics == nil {
		return CacheStats{}, false
	}
	m := c.store.Metrics
	return CacheStats{Hits: m.Hits(), Misses: m.Misses(), Ratio: m.Ratio()}, true
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	if c != nil {
		c.store.Close()
	}
}

func cacheKey(token, target string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + " " + target
}
