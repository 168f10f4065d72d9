package lru

import (
	"testing"

	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
)

func TestNew_DisabledForNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -3} {
		c, err := New(size)
		if err != nil || c != nil {
			t.Fatalf("New(%d) = %v, %v; want nil, nil", size, c, err)
		}
	}
}

func TestSnapshotCache_HitMissAndStats(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := c.Get("acme"); ok {
		t.Fatalf("expected miss before put")
	}
	c.Put("acme", blocklist.Snapshot{Version: 3, Size: 5})
	got, ok := c.Get("acme")
	if !ok || got.Version != 3 || got.Size != 5 {
		t.Fatalf("unexpected get: ok=%v got=%+v", ok, got)
	}

	st := c.Stats()
	if st.Capacity != 2 || st.Size != 1 || st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestSnapshotCache_KeepsNewerVersion(t *testing.T) {
	c, _ := New(2)
	c.Put("acme", blocklist.Snapshot{Version: 5})
	c.Put("acme", blocklist.Snapshot{Version: 4})
	if got, _ := c.Get("acme"); got.Version != 5 {
		t.Fatalf("older snapshot replaced newer one: version=%d", got.Version)
	}
	c.Put("acme", blocklist.Snapshot{Version: 6})
	if got, _ := c.Get("acme"); got.Version != 6 {
		t.Fatalf("newer snapshot not stored: version=%d", got.Version)
	}
}

func TestSnapshotCache_EvictionAndPurge(t *testing.T) {
	c, _ := New(2)
	c.Put("a", blocklist.Snapshot{Version: 1})
	c.Put("b", blocklist.Snapshot{Version: 1})
	c.Put("c", blocklist.Snapshot{Version: 1})
	if c.Len() != 2 {
		t.Fatalf("len=%d want=2", c.Len())
	}
	if _, ok := c.Get("a"); ok {
		t.Fatalf("least recently used entry not evicted")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("len=%d after purge", c.Len())
	}
	if ev := c.Stats().Evictions; ev != 3 {
		t.Fatalf("evictions=%d want=3", ev)
	}
}
