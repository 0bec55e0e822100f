package tileset

import "sync"

// Cache holds parsed rule files by path for the life of the process. Only
// non-empty results are kept, so a file that failed to load is tried again on
// the next Get.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Rules
	load    func(path string) Rules
}

// NewCache creates an empty cache reading files with LoadFile.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Rules),
		load:    LoadFile,
	}
}

var defaultCache = NewCache()

// Default returns the process-wide cache.
func Default() *Cache {
	return defaultCache
}

// Get returns the rules for path, loading them on first use.
func (c *Cache) Get(path string) Rules {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rules, ok := c.entries[path]; ok {
		return rules
	}

	rules := c.load(path)
	if len(rules) > 0 {
		c.entries[path] = rules
	}

	return rules
}

// Reset forgets every cached rule set.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Rules)
}
