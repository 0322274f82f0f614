package pager

import (
	"github.com/FocuswithJustin/sqlitescan/core/cache"
)

// DefaultCacheSize is the default number of pages kept by a PageCache.
const DefaultCacheSize = 2000

// PageCache keeps recently read pages, evicting the least recently used.
// Pages are immutable once read, so there is no dirty tracking.
type PageCache struct {
	lru      cache.Cache[uint32, []byte]
	disabled bool
}

// NewPageCache creates a new page cache holding at most maxPages pages.
// A non-positive maxPages disables caching.
func NewPageCache(maxPages int) *PageCache {
	if maxPages <= 0 {
		return &PageCache{disabled: true}
	}
	return &PageCache{lru: cache.NewLRUCache[uint32, []byte](cache.Config{MaxSize: maxPages})}
}

// Get retrieves a page from the cache.
func (c *PageCache) Get(pgno uint32) ([]byte, bool) {
	if c.disabled {
		return nil, false
	}
	return c.lru.Get(pgno)
}

// Put adds a page to the cache.
func (c *PageCache) Put(pgno uint32, data []byte) {
	if c.disabled {
		return
	}
	c.lru.Put(pgno, data)
}

// Size returns the number of cached pages.
func (c *PageCache) Size() int {
	if c.disabled {
		return 0
	}
	return c.lru.Len()
}

// Stats returns the hit and miss counters.
func (c *PageCache) Stats() (hits, misses uint64) {
	if c.disabled {
		return 0, 0
	}
	s := c.lru.Stats()
	return uint64(s.Hits), uint64(s.Misses)
}
