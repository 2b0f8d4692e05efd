package cart

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a fetched snapshot is served without
// consulting the remote again.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	data Cart
	at   time.Time
}

// SnapshotCache holds per-user cart snapshots so that several UI
// components mounting in quick succession share one remote fetch.
// An entry is valid while now-at < ttl.
type SnapshotCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time
	m   map[string]cacheEntry
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &SnapshotCache{
		ttl: ttl,
		now: time.Now,
		m:   make(map[string]cacheEntry),
	}
}

func (c *SnapshotCache) Get(userID string) (Cart, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[userID]
	if !ok || c.now().Sub(e.at) >= c.ttl {
		return nil, false
	}
	return e.data.Clone(), true
}

func (c *SnapshotCache) Put(userID string, cart Cart) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[userID] = cacheEntry{data: cart.Clone(), at: c.now()}
}

func (c *SnapshotCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, userID)
}
