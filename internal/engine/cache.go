package engine

import (
	"sync"

	"github.com/ssdsyncer/ssd-syncer/internal/snapshot"
)

// Cache holds in-memory baseline snapshots for the lifetime of one CLI
// invocation, grounded on the Rust original's sync_one_mapping_cached:
// a `sync` call spanning several mappings should not re-read the same
// snapshot file twice.
type Cache struct {
	mu    sync.Mutex
	byKey map[string]*snapshot.Snapshot
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{byKey: make(map[string]*snapshot.Snapshot)}
}

func cacheKey(machine, mapping string) string {
	return machine + "/" + mapping
}

// Load returns the cached snapshot for (machine, mapping), falling back
// to store.Load on a miss and populating the cache with the result.
func (c *Cache) Load(store *snapshot.Store, machine, mapping string) (*snapshot.Snapshot, error) {
	key := cacheKey(machine, mapping)

	c.mu.Lock()
	if s, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	s, err := store.Load(machine, mapping)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byKey[key] = s
	c.mu.Unlock()
	return s, nil
}

// Invalidate drops a cached entry after a successful write, so a
// subsequent Load within the same invocation sees the fresh baseline.
func (c *Cache) Invalidate(machine, mapping string) {
	c.mu.Lock()
	delete(c.byKey, cacheKey(machine, mapping))
	c.mu.Unlock()
}
