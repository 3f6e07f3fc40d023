package rbac

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type cacheEntry struct {
	res *Resolution
	// validUntil is the earliest expiry among the contributing assignments.
	validUntil *time.Time
}

// Cache keeps current resolutions per user.
// Every role or assignment mutation invalidates it before the mutating call
// returns. A generation counter stops a resolution computed before an
// invalidation from being stored after it.
type Cache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, cacheEntry]
	gen uint64
}

// NewCache creates a cache holding up to size users for at most ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{
		lru: expirable.NewLRU[string, cacheEntry](size, nil, ttl),
	}
}

// Generation returns the current invalidation generation.
func (c *Cache) Generation() uint64 {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

func (c *Cache) get(userID string, now time.Time) (*Resolution, bool) {
	if c == nil {
		return nil, false
	}

	entry, ok := c.lru.Get(userID)
	if !ok {
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	if entry.validUntil != nil && !now.Before(*entry.validUntil) {
		c.lru.Remove(userID)
		cacheLookups.WithLabelValues("miss").Inc()

		return nil, false
	}

	cacheLookups.WithLabelValues("hit").Inc()

	return entry.res, true
}

// put stores res unless an invalidation happened since gen was read.
func (c *Cache) put(userID string, res *Resolution, gen uint64) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}

	c.lru.Add(userID, cacheEntry{res: res, validUntil: res.ValidUntil()})
}

// InvalidateUser drops the cached resolution of one user.
func (c *Cache) InvalidateUser(userIDs ...string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++

	for _, id := range userIDs {
		c.lru.Remove(id)
	}
}

// InvalidateAll drops every cached resolution.
func (c *Cache) InvalidateAll() {
	if c == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.lru.Purge()
}

// Len returns the number of cached users.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}

	return c.lru.Len()
}
