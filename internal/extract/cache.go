package extract

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/dextract/internal/languages"
	"github.com/standardbeagle/dextract/internal/types"
)

// DefaultCacheEntries bounds a cache created with NewCache(0)
const DefaultCacheEntries = 16384

type cacheKey struct {
	sum    uint64
	rule   *languages.Rule
	strict bool
}

// Cache memoises Extract results by content hash, for repeated scans of the
// same tree. Results are identical with or without a cache.
type Cache struct {
	mu         sync.RWMutex
	entries    map[cacheKey][]string
	maxEntries int

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache holding at most maxEntries results
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &Cache{
		entries:    make(map[cacheKey][]string),
		maxEntries: maxEntries,
	}
}

// Extract behaves like the package-level Extract, consulting the cache first.
// A nil cache extracts directly.
func (c *Cache) Extract(content []byte, rule *languages.Rule, strict bool) types.DependencySet {
	if c == nil || rule == nil {
		return Extract(content, rule, strict)
	}

	key := cacheKey{
		sum:    xxhash.Sum64(content),
		rule:   rule,
		strict: strict && rule.HasStrict(),
	}

	c.mu.RLock()
	names, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return types.NewDependencySet(names...)
	}

	c.misses.Add(1)
	deps := Extract(content, rule, strict)

	c.mu.Lock()
	if len(c.entries) >= c.maxEntries {
		c.entries = make(map[cacheKey][]string, c.maxEntries)
	}
	c.entries[key] = deps.Sorted()
	c.mu.Unlock()

	return deps
}

// Stats returns the hit and miss counts
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached results
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
