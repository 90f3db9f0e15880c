package registry

import "sync"

// vectorCache is the in-process vector cache. Entries are keyed by image
// reference and only served while the storage fingerprint is unchanged.
type vectorCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	fingerprint string
	vector      []float32
}

func newVectorCache() *vectorCache {
	return &vectorCache{entries: make(map[string]cacheEntry)}
}

func (c *vectorCache) get(ref, fingerprint string) ([]float32, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[ref]
	if !ok || e.fingerprint != fingerprint {
		return nil, false
	}
	return e.vector, true
}

func (c *vectorCache) put(ref, fingerprint string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ref] = cacheEntry{fingerprint: fingerprint, vector: vector}
}

func (c *vectorCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
