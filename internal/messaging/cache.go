package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/rentitout/backend/internal/models"
)

type cacheEntry struct {
	msgs    []models.ChatMessage
	version uint64
	expires time.Time
}

// MemoryCache is a process-local Cache with a fixed entry lifetime.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	entries   map[string]cacheEntry
	byListing map[uint]map[string]struct{}
	versions  map[uint]uint64
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:       ttl,
		now:       time.Now,
		entries:   make(map[string]cacheEntry),
		byListing: make(map[uint]map[string]struct{}),
		versions:  make(map[uint]uint64),
	}
}

func (c *MemoryCache) Version(_ context.Context, listingID uint) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[listingID], true
}

func (c *MemoryCache) Get(_ context.Context, q ThreadQuery, version uint64) ([]models.ChatMessage, bool) {
	key := q.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.version != version || e.version != c.versions[q.ListingID] || c.now().After(e.expires) {
		delete(c.entries, key)
		delete(c.byListing[q.ListingID], key)
		return nil, false
	}
	return cloneMessages(e.msgs), true
}

func (c *MemoryCache) Set(_ context.Context, q ThreadQuery, version uint64, msgs []models.ChatMessage) {
	if c.ttl <= 0 {
		return
	}
	key := q.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[q.ListingID] != version {
		return
	}
	c.entries[key] = cacheEntry{msgs: cloneMessages(msgs), version: version, expires: c.now().Add(c.ttl)}
	keys, ok := c.byListing[q.ListingID]
	if !ok {
		keys = make(map[string]struct{})
		c.byListing[q.ListingID] = keys
	}
	keys[key] = struct{}{}
}

func (c *MemoryCache) InvalidateListing(_ context.Context, listingID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[listingID]++
	for key := range c.byListing[listingID] {
		delete(c.entries, key)
	}
	delete(c.byListing, listingID)
}

func cloneMessages(msgs []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}
