package matcher

import (
	"context"
	"sync"
	"time"

	"videodrome/internal/catalog"
	"videodrome/internal/textutil"
)

// Cache stores raw catalog search results keyed by normalized query.
type Cache interface {
	Lookup(ctx context.Context, query catalog.Query) ([]catalog.Candidate, bool, error)
	Store(ctx context.Context, query catalog.Query, candidates []catalog.Candidate) error
}

// CacheKey normalizes a query so lookups ignore case and spacing differences
// in the title.
func CacheKey(query catalog.Query) catalog.Query {
	query.Title = textutil.NormalizeTitle(query.Title)
	if query.Year < 0 {
		query.Year = 0
	}
	return query
}

type memoryEntry struct {
	candidates []catalog.Candidate
	storedAt   time.Time
}

// MemoryCache is an in-process Cache with optional expiry.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[catalog.Query]memoryEntry
}

// NewMemoryCache returns a cache whose entries expire after ttl. A zero ttl
// keeps entries forever.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[catalog.Query]memoryEntry),
	}
}

// Lookup returns a copy of the cached candidates for query.
func (c *MemoryCache) Lookup(_ context.Context, query catalog.Query) ([]catalog.Candidate, bool, error) {
	key := CacheKey(query)
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]catalog.Candidate(nil), entry.candidates...), true, nil
}

// Store records candidates for query. Empty lists are not cached.
func (c *MemoryCache) Store(_ context.Context, query catalog.Query, candidates []catalog.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[CacheKey(query)] = memoryEntry{
		candidates: append([]catalog.Candidate(nil), candidates...),
		storedAt:   c.now(),
	}
	return nil
}

// Len reports how many queries are cached.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
