package blocklist

import (
	"context"
	"errors"
	"time"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/parsers"
)

var (
	// ErrDuplicatePattern is returned when an active pattern with the same
	// normalized value already exists in the list.
	ErrDuplicatePattern = errors.New("pattern already exists in list")
	// ErrPatternNotFound is returned when no active pattern has the given id in the list.
	ErrPatternNotFound = errors.New("pattern not found")
)

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for capacity entries at fpRate.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// Snapshot is an immutable prefilter built from one version of a list.
type Snapshot struct {
	Version   uint64
	Plain     BloomFilter // non-wildcard normalized patterns
	Wildcards int         // number of wildcard patterns; any wildcard disables the prefilter
	Size      int         // number of active patterns
}

// SnapshotCache keeps prefilter snapshots by list id.
type SnapshotCache interface {
	Get(listID string) (Snapshot, bool)
	Put(listID string, s Snapshot)
	Len() int
	Purge()
	Stats() CacheStats
}

// Store persists blocklist patterns per list.
//
// - Add assigns the id, enforces (list, normalized) uniqueness among active rows and bumps the list version
// - Delete soft-deletes and bumps the list version
// - Active returns active rows most recently created first
// - Snapshot is Active plus the version it was read at, in one transaction
type Store interface {
	Add(ctx context.Context, p domain.BlocklistPattern) (domain.BlocklistPattern, error)
	Delete(ctx context.Context, listID string, id uint64, at time.Time) error
	Active(ctx context.Context, listID string) ([]domain.BlocklistPattern, error)
	Snapshot(ctx context.Context, listID string) (uint64, []domain.BlocklistPattern, error)
	Version(ctx context.Context, listID string) (uint64, error)
	Stats() StoreStats
}

// Repository is the composition layer that wires store → prefilter → matcher.
type Repository interface {
	Add(ctx context.Context, listID, raw string) (domain.BlocklistPattern, error)
	Import(ctx context.Context, listID string, entries []parsers.Entry) (ImportResult, error)
	Delete(ctx context.Context, listID string, id uint64) error
	List(ctx context.Context, listID string) ([]domain.BlocklistPattern, error)
	Check(ctx context.Context, listID, rawURL string) (domain.BlockDecision, error)
	RepoStats() RepoStats
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Added      int               `json:"added"`
	Duplicates int               `json:"duplicates"`
	Rejected   []ImportRejection `json:"rejected"`
}

// ImportRejection is an entry that failed pattern normalization.
type ImportRejection struct {
	Line  int    `json:"line"`
	Input string `json:"input"`
	Code  string `json:"code"`
}
