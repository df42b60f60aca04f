package server

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

// lruCache keeps recent responses keyed by request fields.
type lruCache struct {
	entries     map[string]any
	accessTime  map[string]int64
	accessCount int64
	hits        int
	maxEntries  int
	mu          sync.Mutex
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		entries:    make(map[string]any, maxEntries),
		accessTime: make(map[string]int64, maxEntries),
		maxEntries: maxEntries,
	}
}

func (c *lruCache) get(key string) (any, bool) {
	if c.maxEntries <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries[key]
	if ok {
		c.hits++
		c.accessTime[key] = c.nextAccessTime()
	}
	return v, ok
}

func (c *lruCache) put(key string, v any) {
	if c.maxEntries <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	c.entries[key] = v
	c.accessTime[key] = c.nextAccessTime()
}

func (c *lruCache) stats() (size, hits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries), c.hits
}

func (c *lruCache) nextAccessTime() int64 {
	c.accessCount++
	return c.accessCount
}

func (c *lruCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, t := range c.accessTime {
		if t < oldestTime {
			oldestTime = t
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		delete(c.accessTime, oldestKey)
		log.Debugf("Evicted %q from response cache", oldestKey)
	}
}
