package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Pattern validation failures. Each one wraps ErrInvalidPattern.
var (
	ErrInvalidPattern    = errors.New("invalid blocklist pattern")
	ErrEmptyPattern      = fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	ErrInvalidCharacter  = fmt.Errorf("%w: invalid character", ErrInvalidPattern)
	ErrMisplacedWildcard = fmt.Errorf("%w: wildcard is only allowed as a leading \"*.\"", ErrInvalidPattern)
	ErrEmptyWildcard     = fmt.Errorf("%w: wildcard without a suffix", ErrInvalidPattern)
)

// PatternError reports which input failed normalization and why.
type PatternError struct {
	Input string
	Err   error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern %q: %v", e.Input, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Code returns a stable machine-readable name for the failure.
func (e *PatternError) Code() string {
	switch {
	case errors.Is(e.Err, ErrEmptyPattern):
		return "empty_pattern"
	case errors.Is(e.Err, ErrInvalidCharacter):
		return "invalid_character"
	case errors.Is(e.Err, ErrMisplacedWildcard):
		return "misplaced_wildcard"
	case errors.Is(e.Err, ErrEmptyWildcard):
		return "empty_wildcard"
	default:
		return "invalid_pattern"
	}
}

const wildcardPrefix = "*."

// NormalizedPattern is the canonical form used for matching.
type NormalizedPattern struct {
	Value    string // lowercase, www.-stripped unless wildcarded
	Wildcard bool   // Value starts with "*."
}

// NormalizePattern validates and canonicalizes a user supplied blocklist pattern.
//
// Rules:
//   - whitespace and non-printable runes are removed, the rest is lowercased
//   - only a-z, 0-9, '.', '-' and '*' are allowed
//   - '*' may only appear as the leading "*." and "*." alone is rejected
//   - a leading "www." is dropped from non-wildcard patterns; "*.www.x" is kept as is
func NormalizePattern(input string) (NormalizedPattern, error) {
	s := strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, input))

	if s == "" {
		return NormalizedPattern{}, &PatternError{Input: input, Err: ErrEmptyPattern}
	}
	for _, r := range s {
		if !isPatternRune(r) {
			return NormalizedPattern{}, &PatternError{Input: input, Err: fmt.Errorf("%w: %q", ErrInvalidCharacter, r)}
		}
	}

	if strings.Contains(s, "*") {
		if !strings.HasPrefix(s, wildcardPrefix) || strings.Contains(s[1:], "*") {
			return NormalizedPattern{}, &PatternError{Input: input, Err: ErrMisplacedWildcard}
		}
		if s == wildcardPrefix {
			return NormalizedPattern{}, &PatternError{Input: input, Err: ErrEmptyWildcard}
		}
		return NormalizedPattern{Value: s, Wildcard: true}, nil
	}

	s = strings.TrimPrefix(s, "www.")
	if s == "" {
		return NormalizedPattern{}, &PatternError{Input: input, Err: ErrEmptyPattern}
	}
	return NormalizedPattern{Value: s}, nil
}

func isPatternRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '*'
}

// BlocklistPattern is a persisted, tenant scoped blocklist entry.
//
// Notes:
// - ListID is the tenant scope; patterns never match across lists.
// - Raw is kept for display, Normalized is what MatchDomain sees.
// - DeletedAt is set on soft delete; deleted patterns are kept for audit only.
type BlocklistPattern struct {
	ID         uint64     `json:"id"`
	ListID     string     `json:"list_id"`
	Raw        string     `json:"raw"`
	Normalized string     `json:"normalized"`
	Wildcard   bool       `json:"is_wildcard"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// NewBlocklistPattern normalizes raw and builds a pattern scoped to listID.
func NewBlocklistPattern(listID, raw string, createdAt time.Time) (BlocklistPattern, error) {
	listID = strings.TrimSpace(listID)
	if listID == "" {
		return BlocklistPattern{}, fmt.Errorf("list id must not be empty")
	}
	np, err := NormalizePattern(raw)
	if err != nil {
		return BlocklistPattern{}, err
	}
	return BlocklistPattern{
		ListID:     listID,
		Raw:        raw,
		Normalized: np.Value,
		Wildcard:   np.Wildcard,
		CreatedAt:  createdAt,
	}, nil
}

// IsDeleted reports whether the pattern was soft deleted.
func (p BlocklistPattern) IsDeleted() bool { return p.DeletedAt != nil }

// Pattern returns the matcher view of the stored pattern.
func (p BlocklistPattern) Pattern() NormalizedPattern {
	return NormalizedPattern{Value: p.Normalized, Wildcard: p.Wildcard}
}
