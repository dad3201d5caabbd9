package geo

import "sync"

// DefaultCacheSize bounds the geocode cache when no size is configured.
const DefaultCacheSize = 512

// Cache is a mutex-guarded address cache with a fixed capacity. When full,
// the oldest entry is evicted first.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]Coordinates
	order    []string
}

// NewCache creates a cache holding at most capacity entries. Non-positive
// capacities fall back to the default size.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]Coordinates, capacity),
	}
}

// Get returns the cached coordinates for an address, if present.
func (c *Cache) Get(address string) (Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	coords, ok := c.entries[address]
	return coords, ok
}

// Put stores coordinates for an address, evicting the oldest entry when the
// cache is at capacity. Re-putting an existing address updates it in place.
func (c *Cache) Put(address string, coords Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[address]; ok {
		c.entries[address] = coords
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[address] = coords
	c.order = append(c.order, address)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
