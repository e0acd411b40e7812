// SPDX-License-Identifier: MIT

// Package cache stores resource sizes keyed by backing file key.
// Sizes are the only thing the delivery path caches; bytes are always re-read.
package cache

import (
	"sync"
	"time"
)

// SizeCache provides thread-safe caching of resource sizes with expiration.
type SizeCache interface {
	// Get returns the cached size. ok is false if missing or expired.
	Get(key string) (size int64, ok bool)
	// Set stores a size with the given TTL.
	Set(key string, size int64, ttl time.Duration)
	// Delete removes a key.
	Delete(key string)
	// Stats returns cache statistics.
	Stats() Stats
}

// Stats holds cache performance counters.
type Stats struct {
	Hits        int64 // Number of successful Get operations
	Misses      int64 // Number of failed Get operations (not found or expired)
	Sets        int64 // Number of Set operations
	Evictions   int64 // Number of expired entries cleaned up
	CurrentSize int   // Current number of cached entries
}

type entry struct {
	size       int64
	expiration time.Time
}

func (e *entry) isExpired(now time.Time) bool {
	return now.After(e.expiration)
}

// MemoryCache is an in-process SizeCache with a background janitor.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   Stats
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewMemoryCache creates an in-memory cache. A positive cleanupInterval
// starts a janitor goroutine; call Close to stop it.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}
	return c
}

// Get retrieves a size from the cache.
func (c *MemoryCache) Get(key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.isExpired(c.now()) {
		c.stats.Misses++
		return 0, false
	}
	c.stats.Hits++
	return e.size, true
}

// Set stores a size in the cache.
func (c *MemoryCache) Set(key string, size int64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{size: size, expiration: c.now().Add(ttl)}
	c.stats.Sets++
}

// Delete removes a size from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// Close stops the janitor. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

func (c *MemoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if e.isExpired(now) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

func (c *MemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

// noOpCache disables caching.
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() SizeCache {
	return noOpCache{}
}

func (noOpCache) Get(string) (int64, bool)          { return 0, false }
func (noOpCache) Set(string, int64, time.Duration) {}
func (noOpCache) Delete(string)                    {}
func (noOpCache) Stats() Stats                     { return Stats{} }
