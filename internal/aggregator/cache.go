package aggregator

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pable/valmetrics/internal/model"
)

// cacheNamespace seeds the name-based UUIDs of cache keys. Changing it
// orphans every stored entry.
var cacheNamespace = uuid.MustParse("8d6f1e52-4c0b-4f0e-9a57-1f2c3b7d9e41")

// CacheKey identifies one memoized result.
type CacheKey struct {
	MatchID string
	PUUID   string
	Filter  string // Filter.Signature()
}

func NewCacheKey(matchID, puuid string, f Filter) CacheKey {
	return CacheKey{MatchID: matchID, PUUID: puuid, Filter: f.Signature()}
}

func (k CacheKey) String() string {
	return k.MatchID + "|" + k.PUUID + "|" + k.Filter
}

// ID is a deterministic UUIDv5 of the key, suitable as a storage primary key.
func (k CacheKey) ID() uuid.UUID {
	return uuid.NewSHA1(cacheNamespace, []byte(k.String()))
}

// ResultCache stores per-match results. Implementations decide persistence;
// invalidation is always explicit.
type ResultCache interface {
	Get(key CacheKey) (model.PlayerMatchResult, bool, error)
	Put(key CacheKey, r model.PlayerMatchResult) error
	// Invalidate drops every entry of the match.
	Invalidate(matchID string) error
}

// MemoryCache is an in-process ResultCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[CacheKey]model.PlayerMatchResult
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[CacheKey]model.PlayerMatchResult)}
}

func (c *MemoryCache) Get(key CacheKey) (model.PlayerMatchResult, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.entries[key]
	return r, ok, nil
}

func (c *MemoryCache) Put(key CacheKey, r model.PlayerMatchResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = r
	return nil
}

func (c *MemoryCache) Invalidate(matchID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k.MatchID == matchID {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CachedAnalyzer memoizes AnalyzeMatch in a caller-owned cache.
type CachedAnalyzer struct {
	Cache  ResultCache
	Filter Filter
}

func NewCachedAnalyzer(cache ResultCache, f Filter) *CachedAnalyzer {
	return &CachedAnalyzer{Cache: cache, Filter: f}
}

// Analyze returns the cached result for (match, puuid, filter) or computes
// and stores it. Cache read failures fall through to a fresh computation.
func (a *CachedAnalyzer) Analyze(m model.Match, puuid string) (model.PlayerMatchResult, error) {
	key := NewCacheKey(m.MatchID, puuid, a.Filter)
	if r, ok, err := a.Cache.Get(key); err == nil && ok {
		return r, nil
	}
	r, err := AnalyzeMatch(m, puuid)
	if err != nil {
		return model.PlayerMatchResult{}, err
	}
	if err := a.Cache.Put(key, r); err != nil {
		return r, err
	}
	return r, nil
}

// Invalidate forgets every cached result of the match.
func (a *CachedAnalyzer) Invalidate(matchID string) error {
	return a.Cache.Invalidate(matchID)
}
