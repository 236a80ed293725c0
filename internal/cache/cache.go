// Package cache provides a small in-memory TTL cache for stock data results.
package cache

import (
	"sync"
	"time"

	"github.com/bobmcallan/stockdeck/internal/models"
)

// DefaultMaxEntries bounds the number of cached results.
const DefaultMaxEntries = 100

type entry struct {
	result   models.StockDataResult
	storedAt time.Time
	ttl      time.Duration
}

func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.storedAt) < e.ttl
}

// Cache is a mutex-guarded TTL cache for stock data results, keyed by the
// raw request parameters via Key.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	maxEntries int
	now        func() time.Time // injectable clock for testing
}

// New creates an empty cache bounded to DefaultMaxEntries.
func New() *Cache {
	return &Cache{
		entries:    make(map[string]entry),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
}

// Key builds the cache key for a stock data request. Date bounds are not
// part of the key: results are shared per (symbols, range) tuple exactly
// as requested.
func Key(symbols, rangeToken string) string {
	return symbols + "|" + rangeToken
}

// Get returns the cached result for key when present and not expired.
// Expired entries are dropped on access.
func (c *Cache) Get(key string) (models.StockDataResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.fresh(c.now()) {
		delete(c.entries, key)
		return nil, false
	}
	return e.result, true
}

// Set stores a result under key for ttl, evicting when at capacity.
func (c *Cache) Set(key string, result models.StockDataResult, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}
	c.entries[key] = entry{result: result, storedAt: c.now(), ttl: ttl}
}

// evictLocked drops expired entries, then the oldest remaining entry if the
// cache is still full. Caller must hold mu.
func (c *Cache) evictLocked() {
	now := c.now()
	for k, e := range c.entries {
		if !e.fresh(now) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.storedAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.storedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Len reports the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
