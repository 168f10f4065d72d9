package domain

import "time"

// Verdict is the outcome of evaluating send rules at a point in time.
type Verdict struct {
	Allowed bool
	Label   string // label of the rule that denied; empty when allowed
	RuleID  uint64
}

// Allow returns the permissive verdict.
func Allow() Verdict { return Verdict{Allowed: true} }

// CanSend evaluates rules in order against now and returns a deny verdict for
// the first active rule whose restriction matches, or Allow when none does.
//
// Time-of-day, weekday and date are all taken in now's location; callers
// convert to the tenant's zone first.
func CanSend(now time.Time, rules []SendRule) Verdict {
	for _, r := range rules {
		if !r.Active() {
			continue
		}
		if r.Restriction.Restricts(now) {
			return Verdict{Allowed: false, Label: r.Label, RuleID: r.ID}
		}
	}
	return Allow()
}
