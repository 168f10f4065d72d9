package blocklist

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/haukened/outreach-gate/internal/outreach/common/clock"
	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/common/utils"
	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist/parsers"
)

// repository implements Repository by composing a Store, a Bloom factory and
// a SnapshotCache. Reads go version → prefilter → store → matcher; verdicts
// themselves are never cached.
type repository struct {
	store   Store
	cache   SnapshotCache // nil disables the prefilter
	factory BloomFactory
	fpRate  float64
	clock   clock.Clock
	logger  log.Logger

	checks  atomic.Uint64
	blocked atomic.Uint64
	skips   atomic.Uint64
}

// Options configures NewRepository. Cache and Factory may both be nil to
// disable the prefilter.
type Options struct {
	Store   Store
	Cache   SnapshotCache
	Factory BloomFactory
	FPRate  float64
	Clock   clock.Clock
	Logger  log.Logger
}

// NewRepository constructs a Repository.
func NewRepository(opts Options) Repository {
	r := &repository{
		store:   opts.Store,
		cache:   opts.Cache,
		factory: opts.Factory,
		fpRate:  opts.FPRate,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	if r.cache == nil || r.factory == nil {
		r.cache, r.factory = nil, nil
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.logger == nil {
		r.logger = log.NewNoopLogger()
	}
	return r
}

// Add normalizes raw and stores it in listID.
func (r *repository) Add(ctx context.Context, listID, raw string) (domain.BlocklistPattern, error) {
	stored, err := r.add(ctx, listID, raw)
	if err != nil {
		return domain.BlocklistPattern{}, err
	}
	r.logger.Info(map[string]any{
		"list_id":  stored.ListID,
		"id":       stored.ID,
		"pattern":  stored.Normalized,
		"wildcard": stored.Wildcard,
	}, "blocklist pattern added")
	return stored, nil
}

func (r *repository) add(ctx context.Context, listID, raw string) (domain.BlocklistPattern, error) {
	p, err := domain.NewBlocklistPattern(listID, raw, r.clock.Now())
	if err != nil {
		return domain.BlocklistPattern{}, err
	}
	return r.store.Add(ctx, p)
}

// Import adds every entry to listID in order. Invalid and duplicate entries
// are counted and skipped; any other error stops the import and is returned
// with the partial result.
func (r *repository) Import(ctx context.Context, listID string, entries []parsers.Entry) (ImportResult, error) {
	res := ImportResult{Rejected: []ImportRejection{}}
	for _, e := range entries {
		_, err := r.add(ctx, listID, e.Raw)
		var perr *domain.PatternError
		switch {
		case err == nil:
			res.Added++
		case errors.As(err, &perr):
			res.Rejected = append(res.Rejected, ImportRejection{Line: e.Line, Input: e.Raw, Code: perr.Code()})
		case errors.Is(err, ErrDuplicatePattern):
			res.Duplicates++
		default:
			r.logger.Error(map[string]any{"list_id": listID, "line": e.Line, "error": err}, "blocklist import aborted")
			return res, err
		}
	}
	r.logger.Info(map[string]any{
		"list_id":    listID,
		"added":      res.Added,
		"duplicates": res.Duplicates,
		"rejected":   len(res.Rejected),
	}, "blocklist import finished")
	return res, nil
}

// Delete soft-deletes a pattern from listID.
func (r *repository) Delete(ctx context.Context, listID string, id uint64) error {
	if err := r.store.Delete(ctx, listID, id, r.clock.Now()); err != nil {
		return err
	}
	r.logger.Info(map[string]any{"list_id": listID, "id": id}, "blocklist pattern deleted")
	return nil
}

// List returns the active patterns of listID, most recently created first.
func (r *repository) List(ctx context.Context, listID string) ([]domain.BlocklistPattern, error) {
	return r.store.Active(ctx, listID)
}

// Check extracts the domain of rawURL and matches it against listID.
// A URL without an extractable domain is never blocked.
func (r *repository) Check(ctx context.Context, listID, rawURL string) (domain.BlockDecision, error) {
	dom, ok := utils.ExtractDomain(rawURL)
	if !ok {
		r.logger.Debug(map[string]any{"list_id": listID, "url": rawURL}, "no domain extracted")
		return domain.AllowDecision(""), nil
	}
	r.checks.Add(1)

	// 1) prefilter: a current snapshot without wildcards can prove a miss
	if r.cache != nil {
		ver, err := r.store.Version(ctx, listID)
		if err != nil {
			return domain.BlockDecision{}, err
		}
		if snap, ok := r.cache.Get(listID); ok && snap.Version == ver && !snap.mightMatch(dom) {
			r.skips.Add(1)
			return domain.AllowDecision(dom), nil
		}
	}

	// 2) load the rows fresh
	ver, patterns, err := r.store.Snapshot(ctx, listID)
	if err != nil {
		return domain.BlockDecision{}, err
	}

	// 3) refresh the prefilter for this version
	if r.cache != nil {
		if snap, ok := r.cache.Get(listID); !ok || snap.Version != ver {
			r.cache.Put(listID, r.buildSnapshot(ver, patterns))
		}
	}

	// 4) match in store order
	dec := decide(dom, patterns)
	if dec.Blocked {
		r.blocked.Add(1)
		r.logger.Debug(map[string]any{
			"list_id": listID,
			"domain":  dom,
			"pattern": dec.MatchedPattern,
		}, "domain blocked")
	}
	return dec, nil
}

// RepoStats returns counters from the repository, cache and store.
func (r *repository) RepoStats() RepoStats {
	st := RepoStats{
		Checks:         r.checks.Load(),
		Blocked:        r.blocked.Load(),
		PrefilterSkips: r.skips.Load(),
		Store:          r.store.Stats(),
	}
	if r.cache != nil {
		st.Cache = r.cache.Stats()
	}
	return st
}

// decide runs the matcher over patterns and materializes a decision.
func decide(dom string, patterns []domain.BlocklistPattern) domain.BlockDecision {
	np := make([]domain.NormalizedPattern, len(patterns))
	for i, p := range patterns {
		np[i] = p.Pattern()
	}
	i := domain.FirstMatch(dom, np)
	if i < 0 {
		return domain.AllowDecision(dom)
	}
	return domain.BlockDecision{
		Blocked:        true,
		Domain:         dom,
		MatchedPattern: patterns[i].Normalized,
		PatternID:      patterns[i].ID,
	}
}

// buildSnapshot fills a Bloom filter with the plain patterns of one list version.
func (r *repository) buildSnapshot(ver uint64, patterns []domain.BlocklistPattern) Snapshot {
	snap := Snapshot{Version: ver, Size: len(patterns)}
	var plain uint64
	for _, p := range patterns {
		if p.Wildcard {
			snap.Wildcards++
		} else {
			plain++
		}
	}
	snap.Plain = r.factory.New(plain, r.fpRate)
	for _, p := range patterns {
		if !p.Wildcard {
			snap.Plain.Add([]byte(p.Normalized))
		}
	}
	return snap
}

// mightMatch reports whether any pattern of the snapshot could match dom.
// A plain pattern matches only dom itself or one of its parent suffixes, so
// those anchors are the only keys to test, most-specific → apex.
func (s Snapshot) mightMatch(dom string) bool {
	if s.Wildcards > 0 || s.Plain == nil {
		return true
	}
	a := dom
	for a != "" {
		if s.Plain.MightContain([]byte(a)) {
			return true
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			break
		}
		a = a[i+1:]
	}
	return false
}
