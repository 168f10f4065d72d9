package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
)

// snapshotCache is an LRU-backed blocklist.SnapshotCache keyed by list id.
// It tracks hits, misses and evictions.
type snapshotCache struct {
	lru       *lru.Cache[string, blocklist.Snapshot]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a SnapshotCache holding up to size lists. size <= 0 returns
// nil, which the repository reads as "prefilter disabled".
func New(size int) (blocklist.SnapshotCache, error) {
	if size <= 0 {
		return nil, nil
	}
	sc := &snapshotCache{capacity: size}
	cache, err := lru.NewWithEvict(size, func(_ string, _ blocklist.Snapshot) {
		sc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	sc.lru = cache
	return sc, nil
}

func (c *snapshotCache) Get(listID string) (blocklist.Snapshot, bool) {
	if s, ok := c.lru.Get(listID); ok {
		c.hits.Add(1)
		return s, true
	}
	c.misses.Add(1)
	return blocklist.Snapshot{}, false
}

// Put stores s unless a snapshot of a newer version is already present.
func (c *snapshotCache) Put(listID string, s blocklist.Snapshot) {
	if cur, ok := c.lru.Peek(listID); ok && cur.Version > s.Version {
		return
	}
	c.lru.Add(listID, s)
}

func (c *snapshotCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *snapshotCache) Purge() { c.lru.Purge() }

func (c *snapshotCache) Stats() blocklist.CacheStats {
	return blocklist.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

var _ blocklist.SnapshotCache = (*snapshotCache)(nil)
