package domain

import (
	"path"
	"strings"
)

// MatchDomain returns the first pattern, in the order given, that matches domain.
//
// Wildcard patterns use glob semantics over the whole domain, so "*.example.com"
// matches "a.example.com" and "a.b.example.com" but not "example.com".
// Plain patterns match the domain itself and any of its subdomains.
//
// The order of patterns decides which one is reported; callers supply a
// documented order (most recently created first for stored patterns).
func MatchDomain(domain string, patterns []NormalizedPattern) (NormalizedPattern, bool) {
	i := FirstMatch(domain, patterns)
	if i < 0 {
		return NormalizedPattern{}, false
	}
	return patterns[i], true
}

// FirstMatch is MatchDomain reporting the index of the matching pattern, or -1.
func FirstMatch(domain string, patterns []NormalizedPattern) int {
	if domain == "" {
		return -1
	}
	for i, p := range patterns {
		if p.Matches(domain) {
			return i
		}
	}
	return -1
}

// Matches reports whether the single pattern matches domain.
func (p NormalizedPattern) Matches(domain string) bool {
	if p.Value == "" {
		return false
	}
	if p.Wildcard {
		ok, err := path.Match(p.Value, domain)
		return err == nil && ok
	}
	return domain == p.Value || strings.HasSuffix(domain, "."+p.Value)
}
