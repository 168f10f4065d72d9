package domain

// BlockDecision represents the outcome of checking a URL against a list's blocklist.
// Pure value type, no external dependencies.
type BlockDecision struct {
	Blocked        bool   // true if a pattern matched
	Domain         string // extracted domain; empty when the URL yielded none
	MatchedPattern string // normalized pattern that matched
	PatternID      uint64 // id of the matched stored pattern, 0 when unknown
}

// IsBlocked is a convenience accessor.
func (d BlockDecision) IsBlocked() bool { return d.Blocked }

// AllowDecision returns a not-blocked decision for the given extracted domain.
func AllowDecision(domain string) BlockDecision { return BlockDecision{Domain: domain} }
