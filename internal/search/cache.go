package search

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/titlesearch/internal/store"
)

// cacheKey identifies one query against one index generation. Entries for
// older generations are never looked up again and age out of the LRU.
type cacheKey struct {
	collection store.Collection
	language   store.Language
	generation uint64
	tokens     string
}

// CacheStats reports result cache usage.
type CacheStats struct {
	Enabled bool   `json:"enabled"`
	Size    int    `json:"size"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
}

// resultCache is an LRU of search results. A nil cache is valid and
// caches nothing.
type resultCache struct {
	lru    *lru.Cache[cacheKey, []uint64]
	hits   atomic.Uint64
	misses atomic.Uint64
}

func newResultCache(size int) *resultCache {
	if size <= 0 {
		return nil
	}
	c, err := lru.New[cacheKey, []uint64](size)
	if err != nil {
		return nil
	}
	return &resultCache{lru: c}
}

func (c *resultCache) get(key cacheKey) ([]uint64, bool) {
	if c == nil {
		return nil, false
	}
	ids, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ids, ok
}

func (c *resultCache) add(key cacheKey, ids []uint64) {
	if c == nil {
		return
	}
	c.lru.Add(key, ids)
}

func (c *resultCache) stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	return CacheStats{
		Enabled: true,
		Size:    c.lru.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
