package convert

import (
	"sync"

	"github.com/Faultbox/egm-tools/pkg/egm"
)

// Cache keeps decoded models by path.
type Cache struct {
	models map[string]*egm.Model
	mu     sync.RWMutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		models: make(map[string]*egm.Model),
	}
}

// Get retrieves a model from cache.
func (c *Cache) Get(path string) (*egm.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.models[path]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return m, ok
}

// Set stores a model in cache.
func (c *Cache) Set(path string, m *egm.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[path] = m
}

// Forget drops a path, e.g. after it has been rewritten.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.models, path)
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
