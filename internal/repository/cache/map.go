package cache

import (
	"sync"
	"time"
)

// MapCache is a process-local, ephemeral tile cache. Entries expire after the
// configured TTL; nothing is ever written to disk.
type MapCache struct {
	m   *TypedSyncMap
	ttl time.Duration
}

type entry struct {
	value   TileCacheValue
	expires time.Time
}

type TypedSyncMap struct {
	m sync.Map
}

func (c *TypedSyncMap) Load(k TileCacheKey) (entry, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return entry{}, false
	}
	return v.(entry), exists
}

func (c *TypedSyncMap) Store(k TileCacheKey, v entry) {
	c.m.Store(k, v)
}

func (c *TypedSyncMap) Delete(k TileCacheKey) {
	c.m.Delete(k)
}

// NewMapCache creates an in-memory cache. A zero TTL disables expiry.
func NewMapCache(ttl time.Duration) *MapCache {
	return &MapCache{
		m:   &TypedSyncMap{},
		ttl: ttl,
	}
}

var _ TileCache = (*MapCache)(nil)

func (c *MapCache) Get(k TileCacheKey) (TileCacheValue, bool, error) {
	e, exists := c.m.Load(k)
	if !exists {
		return TileCacheValue{}, false, nil
	}
	if c.ttl > 0 && time.Now().After(e.expires) {
		c.m.Delete(k)
		return TileCacheValue{}, false, nil
	}
	return e.value, true, nil
}

func (c *MapCache) Set(k TileCacheKey, v TileCacheValue) error {
	c.m.Store(k, entry{value: v, expires: time.Now().Add(c.ttl)})
	return nil
}
