package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidSendRule is wrapped by every write-time send rule validation failure.
var ErrInvalidSendRule = errors.New("invalid send rule")

// SendRuleRow is the persisted shape of a send rule: one kind discriminator and
// every payload column, most of which are empty for any given kind.
type SendRuleRow struct {
	ID           uint64     `json:"id"`
	ListID       string     `json:"list_id"`
	Label        string     `json:"label"`
	Kind         string     `json:"kind"`
	Enabled      bool       `json:"enabled"`
	Weekdays     []int      `json:"weekdays,omitempty"`
	TimeStart    *string    `json:"time_start,omitempty"`
	TimeEnd      *string    `json:"time_end,omitempty"`
	SpecificDate *string    `json:"specific_date,omitempty"`
	RangeStart   *string    `json:"range_start,omitempty"`
	RangeEnd     *string    `json:"range_end,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Validate rejects rows that would be inert or malformed. It runs when a rule
// is created so that only legacy or corrupted rows can reach ToRule incomplete.
func (r SendRuleRow) Validate() error {
	if strings.TrimSpace(r.ListID) == "" {
		return fmt.Errorf("%w: list id must not be empty", ErrInvalidSendRule)
	}
	if strings.TrimSpace(r.Label) == "" {
		return fmt.Errorf("%w: label must not be empty", ErrInvalidSendRule)
	}
	kind, err := ParseRuleKind(r.Kind)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
	}
	switch kind {
	case RuleKindWeekday:
		if _, err := NewWeekdaySet(r.Weekdays); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
		}
	case RuleKindTimeRange:
		if r.TimeStart == nil || r.TimeEnd == nil {
			return fmt.Errorf("%w: time range needs both time_start and time_end", ErrInvalidSendRule)
		}
		if _, err := ParseTimeOfDay(*r.TimeStart); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
		}
		if _, err := ParseTimeOfDay(*r.TimeEnd); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
		}
	case RuleKindDate:
		hasRange := r.RangeStart != nil || r.RangeEnd != nil
		if r.SpecificDate == nil && !hasRange {
			return fmt.Errorf("%w: date rule needs specific_date or range_start/range_end", ErrInvalidSendRule)
		}
		if r.SpecificDate != nil {
			if _, err := ParseDate(*r.SpecificDate); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
			}
		}
		if hasRange {
			if r.RangeStart == nil || r.RangeEnd == nil {
				return fmt.Errorf("%w: date range needs both range_start and range_end", ErrInvalidSendRule)
			}
			start, err := ParseDate(*r.RangeStart)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
			}
			end, err := ParseDate(*r.RangeEnd)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSendRule, err)
			}
			if end.Compare(start) < 0 {
				return fmt.Errorf("%w: range_end %s is before range_start %s", ErrInvalidSendRule, end, start)
			}
		}
	}
	return nil
}

// ToRule converts a stored row into a SendRule. Incomplete or unparsable
// payloads produce a rule with a nil Restriction instead of an error so one
// bad row cannot stop evaluation of the others.
func (r SendRuleRow) ToRule() SendRule {
	return SendRule{
		ID:          r.ID,
		ListID:      r.ListID,
		Label:       r.Label,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
		DeletedAt:   r.DeletedAt,
		Restriction: r.restriction(),
	}
}

func (r SendRuleRow) restriction() Restriction {
	kind, err := ParseRuleKind(r.Kind)
	if err != nil {
		return nil
	}
	switch kind {
	case RuleKindWeekday:
		ws, err := NewWeekdaySet(r.Weekdays)
		if err != nil {
			return nil
		}
		return ws
	case RuleKindTimeRange:
		start, ok := parseOptional(r.TimeStart, ParseTimeOfDay)
		if !ok {
			return nil
		}
		end, ok := parseOptional(r.TimeEnd, ParseTimeOfDay)
		if !ok {
			return nil
		}
		return TimeRange{Start: start, End: end}
	case RuleKindDate:
		var dr DateRule
		if d, ok := parseOptional(r.SpecificDate, ParseDate); ok {
			dr.Specific = &d
		}
		start, okStart := parseOptional(r.RangeStart, ParseDate)
		end, okEnd := parseOptional(r.RangeEnd, ParseDate)
		if okStart && okEnd {
			dr.Range = &DateRange{Start: start, End: end}
		}
		if dr.Specific == nil && dr.Range == nil {
			return nil
		}
		return dr
	}
	return nil
}

func parseOptional[T any](s *string, parse func(string) (T, error)) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, err := parse(*s)
	if err != nil {
		return zero, false
	}
	return v, true
}
