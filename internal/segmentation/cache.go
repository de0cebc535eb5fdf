package segmentation

import (
	"sync"
	"time"
)

// Cache holds recently used segmentations keyed by image ID, with
// timestamp-based expiry. It is an injected, session-scoped object rather
// than a package singleton so tests and editor sessions never share state.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	data    *Data
	savedAt time.Time
}

// DefaultCacheTTL bounds how long a cached segmentation stays valid.
const DefaultCacheTTL = 5 * time.Minute

// NewCache creates a cache with the given expiry. A non-positive ttl uses
// DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a clone of the cached segmentation for the image, if present
// and not expired. Cloning keeps cached snapshots isolated from edits.
func (c *Cache) Get(imageID string) (*Data, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[imageID]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.savedAt) > c.ttl {
		delete(c.entries, imageID)
		return nil, false
	}
	return e.data.Clone(), true
}

// Set stores a clone of the segmentation for the image.
func (c *Cache) Set(imageID string, d *Data) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[imageID] = cacheEntry{data: d.Clone(), savedAt: c.now()}
}

// Invalidate drops the cached segmentation for the image.
func (c *Cache) Invalidate(imageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, imageID)
}

// Len reports the number of live entries, counting out anything expired.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, e := range c.entries {
		if c.now().Sub(e.savedAt) > c.ttl {
			delete(c.entries, id)
			continue
		}
		n++
	}
	return n
}
