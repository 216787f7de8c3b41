package connector

import (
	"sync"
	"time"
)

// CacheEntry is a stored response.
type CacheEntry struct {
	Fingerprint int32
	StoredAt    time.Time
	Response    *Response
}

// Cache stores successful responses by request fingerprint. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Lookup returns the response stored under fp if it is younger than ttl.
	Lookup(fp int32, ttl time.Duration) (*Response, bool)
	// Store records resp under fp, replacing any previous entry.
	Store(fp int32, resp *Response)
	Delete(fp int32)
	Clear()
	Len() int
}

// DefaultCache is shared by every Client that is not given its own cache, so
// identical requests from different clients hit the same entry.
var DefaultCache Cache = NewInMemoryCache()

const defaultCacheShards = 16

// InMemoryCache is a sharded map. Expired entries are dropped when read.
type InMemoryCache struct {
	shards    []*cacheShard
	numShards int
	now       func() time.Time
}

type cacheShard struct {
	mu    sync.RWMutex
	store map[int32]*CacheEntry
}

// NewInMemoryCache returns an empty cache using the wall clock.
func NewInMemoryCache() *InMemoryCache {
	return NewInMemoryCacheWithClock(time.Now)
}

// NewInMemoryCacheWithClock returns an empty cache that reads time from now.
func NewInMemoryCacheWithClock(now func() time.Time) *InMemoryCache {
	shards := make([]*cacheShard, defaultCacheShards)
	for i := range shards {
		shards[i] = &cacheShard{store: make(map[int32]*CacheEntry)}
	}
	return &InMemoryCache{
		shards:    shards,
		numShards: defaultCacheShards,
		now:       now,
	}
}

func (c *InMemoryCache) getShard(fp int32) *cacheShard {
	return c.shards[uint32(fp)%uint32(c.numShards)]
}

// Lookup implements Cache.
func (c *InMemoryCache) Lookup(fp int32, ttl time.Duration) (*Response, bool) {
	if ttl <= 0 {
		return nil, false
	}
	shard := c.getShard(fp)
	shard.mu.RLock()
	entry, exists := shard.store[fp]
	shard.mu.RUnlock()
	if !exists {
		return nil, false
	}

	if c.now().Sub(entry.StoredAt) >= ttl {
		shard.mu.Lock()
		if shard.store[fp] == entry {
			delete(shard.store, fp)
		}
		shard.mu.Unlock()
		return nil, false
	}

	return entry.Response.clone(), true
}

// Store implements Cache.
func (c *InMemoryCache) Store(fp int32, resp *Response) {
	if resp == nil {
		return
	}
	entry := &CacheEntry{
		Fingerprint: fp,
		StoredAt:    c.now(),
		Response:    resp.clone(),
	}
	shard := c.getShard(fp)
	shard.mu.Lock()
	shard.store[fp] = entry
	shard.mu.Unlock()
}

// Delete implements Cache.
func (c *InMemoryCache) Delete(fp int32) {
	shard := c.getShard(fp)
	shard.mu.Lock()
	delete(shard.store, fp)
	shard.mu.Unlock()
}

// Clear implements Cache.
func (c *InMemoryCache) Clear() {
	for _, shard := range c.shards {
		shard.mu.Lock()
		shard.store = make(map[int32]*CacheEntry)
		shard.mu.Unlock()
	}
}

// Len implements Cache. Expired entries that were never read again are
// still counted.
func (c *InMemoryCache) Len() int {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.store)
		shard.mu.RUnlock()
	}
	return total
}
