package code_analyzer

import (
	"sync"

	"github.com/openlovable/lovable/code_analyzer/models"
	"github.com/zeebo/xxh3"
)

const defaultCacheEntries = 512

// summaryCache keeps tree-sitter results keyed by a hash of path and
// content, so an edited file is re-parsed and an untouched one is not.
// The oldest entry is evicted once the cache is full.
type summaryCache struct {
	mu         sync.Mutex
	entries    map[uint64][]string
	order      []uint64
	maxEntries int
	hits       int
	misses     int
}

func newSummaryCache(maxEntries int) *summaryCache {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	return &summaryCache{
		entries:    make(map[uint64][]string),
		maxEntries: maxEntries,
	}
}

func cacheKey(relativePath string, content []byte) uint64 {
	hasher := xxh3.New()
	_, _ = hasher.WriteString(relativePath)
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write(content)
	return hasher.Sum64()
}

func (c *summaryCache) Get(key uint64) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts, found := c.entries[key]
	if found {
		c.hits++
	} else {
		c.misses++
	}
	return parts, found
}

func (c *summaryCache) Set(key uint64, parts []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = parts
		return
	}
	if len(c.order) >= c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = parts
	c.order = append(c.order, key)
}

func (c *summaryCache) Stats() models.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CacheStats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses}
}

func (c *summaryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64][]string)
	c.order = nil
	c.hits = 0
	c.misses = 0
}
