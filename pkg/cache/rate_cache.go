// Package cache provides an in-memory LRU cache for resolved unit rates.
//
// Resolving a rate walks the unit graph breadth-first. Recipes ask for the
// same handful of unit pairs over and over, so the resolver keeps answers in
// a bounded cache.
//
// Features:
// - LRU eviction for bounded memory
// - TTL expiration (0 = never expire)
// - Thread-safe operations
// - Hit/miss/eviction statistics
//
// Usage:
//
//	rates := cache.NewRateCache(1000, 0)
//	resolver := unitgraph.NewResolver(g, unitgraph.WithRateCache(rates))
package cache

import (
	"container/list"
	"hash/fnv"
	"sync"
	"time"
)

// DefaultMaxSize is used when NewRateCache gets a non-positive size.
const DefaultMaxSize = 1000

// RateCache is a thread-safe LRU cache of unit-pair rates.
//
// The cache uses:
// - Hash map for O(1) lookups
// - Doubly-linked list for LRU ordering
// - TTL for automatic expiration
//
// It satisfies unitgraph.RateCache.
type RateCache struct {
	mu sync.Mutex

	// Configuration
	maxSize int
	ttl     time.Duration
	enabled bool

	// LRU list and map
	list  *list.List
	items map[uint64]*list.Element

	// Statistics
	hits      uint64
	misses    uint64
	evictions uint64

	now func() time.Time
}

type rateEntry struct {
	key       uint64
	from, to  string
	rate      float64
	expiresAt time.Time
}

// NewRateCache creates a rate cache.
//
// Parameters:
//   - maxSize: Maximum number of cached pairs (LRU eviction when exceeded)
//   - ttl: Time-to-live for cached entries (0 = no expiration)
func NewRateCache(maxSize int, ttl time.Duration) *RateCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &RateCache{
		maxSize: maxSize,
		ttl:     ttl,
		enabled: true,
		list:    list.New(),
		items:   make(map[uint64]*list.Element, maxSize),
		now:     time.Now,
	}
}

// Key hashes a unit pair. Order matters: (cup, tablespoon) and
// (tablespoon, cup) are different keys.
func Key(from, to string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(from))
	h.Write([]byte{0})
	h.Write([]byte(to))
	return h.Sum64()
}

// GetRate returns the cached rate for from→to.
//
// Returns (rate, true) on a hit. Expired entries are dropped and count as a
// miss. A hit moves the entry to the front of the LRU list.
func (c *RateCache) GetRate(from, to string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		c.misses++
		return 0, false
	}

	elem, ok := c.items[Key(from, to)]
	if !ok {
		c.misses++
		return 0, false
	}
	entry := elem.Value.(*rateEntry)

	// Hash collision: a different pair owns this slot.
	if entry.from != from || entry.to != to {
		c.misses++
		return 0, false
	}

	if c.ttl > 0 && c.now().After(entry.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return 0, false
	}

	c.list.MoveToFront(elem)
	c.hits++
	return entry.rate, true
}

// PutRate stores the rate for from→to, evicting the least recently used
// entry when the cache is full.
func (c *RateCache) PutRate(from, to string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}

	key := Key(from, to)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*rateEntry)
		entry.from, entry.to, entry.rate = from, to, rate
		if c.ttl > 0 {
			entry.expiresAt = c.now().Add(c.ttl)
		}
		c.list.MoveToFront(elem)
		return
	}

	for c.list.Len() >= c.maxSize {
		c.evictOldest()
	}

	entry := &rateEntry{key: key, from: from, to: to, rate: rate}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.items[key] = c.list.PushFront(entry)
}

// Remove drops the entry for from→to.
func (c *RateCache) Remove(from, to string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[Key(from, to)]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries. Statistics are kept.
func (c *RateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.list.Init()
	c.items = make(map[uint64]*list.Element, c.maxSize)
}

// Len returns the number of cached entries.
func (c *RateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Len()
}

// Stats returns cache statistics.
func (c *RateCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}

	return Stats{
		Size:      c.list.Len(),
		MaxSize:   c.maxSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}

// Stats holds cache performance statistics.
type Stats struct {
	Size      int     // Current number of entries
	MaxSize   int     // Maximum capacity
	Hits      uint64  // Number of cache hits
	Misses    uint64  // Number of cache misses
	Evictions uint64  // Entries dropped to make room
	HitRate   float64 // Hit rate percentage (0-100)
}

// SetEnabled enables or disables the cache. Disabling also empties it.
func (c *RateCache) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled

	if !enabled {
		c.list.Init()
		c.items = make(map[uint64]*list.Element, c.maxSize)
	}
}

// evictOldest removes the least recently used entry.
// Caller must hold the lock.
func (c *RateCache) evictOldest() {
	if elem := c.list.Back(); elem != nil {
		c.removeElement(elem)
		c.evictions++
	}
}

// removeElement removes an element from the cache.
// Caller must hold the lock.
func (c *RateCache) removeElement(elem *list.Element) {
	c.list.Remove(elem)
	delete(c.items, elem.Value.(*rateEntry).key)
}
