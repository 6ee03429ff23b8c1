package autoinclude

import (
	"sync"
	"sync/atomic"
)

// Cache holds the derived rule list until it is invalidated. Population and
// invalidation are serialised by one mutex; reads of a populated cache only
// load an atomic pointer.
type Cache struct {
	mu    sync.Mutex
	rules atomic.Pointer[[]Rule]
}

// NewCache returns an empty cache
func NewCache() *Cache {
	return &Cache{}
}

// GetOrBuild returns the cached rules, calling build to populate the cache
// when it is empty. Concurrent first callers build once.
func (c *Cache) GetOrBuild(build func() []Rule) []Rule {
	if rules := c.rules.Load(); rules != nil {
		return *rules
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if rules := c.rules.Load(); rules != nil {
		return *rules
	}

	rules := build()
	if rules == nil {
		rules = []Rule{}
	}
	c.rules.Store(&rules)
	return rules
}

// Invalidate drops the cached rules; the next GetOrBuild rebuilds them
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules.Store(nil)
}

// Populated reports whether rules are cached
func (c *Cache) Populated() bool {
	return c.rules.Load() != nil
}
