package blocklist

// CacheStats reports lightweight snapshot cache metrics.
// All fields are best-effort snapshots and may be updated concurrently.
type CacheStats struct {
	Capacity  int    `json:"capacity"`  // configured capacity (0 for disabled cache)
	Size      int    `json:"size"`      // current number of entries
	Hits      uint64 `json:"hits"`      // total cache hits since construction
	Misses    uint64 `json:"misses"`    // total cache misses since construction
	Evictions uint64 `json:"evictions"` // total evictions since construction
}

// StoreStats reports pattern counts across all lists.
type StoreStats struct {
	Lists    uint64 `json:"lists"`    // number of lists with at least one row
	Active   uint64 `json:"active"`   // active patterns
	Deleted  uint64 `json:"deleted"`  // soft-deleted patterns kept for audit
	Wildcard uint64 `json:"wildcard"` // active wildcard patterns
}

// RepoStats exposes repository-level counters and underlying stats.
type RepoStats struct {
	Checks         uint64     `json:"checks"`          // Check calls that extracted a domain
	Blocked        uint64     `json:"blocked"`         // checks that matched a pattern
	PrefilterSkips uint64     `json:"prefilter_skips"` // checks answered by the prefilter without loading rows
	Cache          CacheStats `json:"cache"`
	Store          StoreStats `json:"store"`
}
