package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// RuleKind discriminates the payload carried by a send rule.
//
// weekday    - forbids sending on a set of ISO weekdays
// time_range - forbids sending during a time-of-day window, possibly overnight
// date       - forbids sending on a specific date and/or an inclusive date range
type RuleKind uint8

const (
	RuleKindWeekday RuleKind = iota + 1
	RuleKindTimeRange
	RuleKindDate
)

// String returns a stable string representation of the rule kind.
func (k RuleKind) String() string {
	switch k {
	case RuleKindWeekday:
		return "weekday"
	case RuleKindTimeRange:
		return "time_range"
	case RuleKindDate:
		return "date"
	default:
		return fmt.Sprintf("RuleKind(%d)", k)
	}
}

// ParseRuleKind converts a string into a RuleKind (case-insensitive).
func ParseRuleKind(s string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekday":
		return RuleKindWeekday, nil
	case "time_range", "time":
		return RuleKindTimeRange, nil
	case "date":
		return RuleKindDate, nil
	default:
		return 0, fmt.Errorf("unsupported RuleKind: %q", s)
	}
}

// Restriction is the payload of a send rule. The set of implementations is
// closed: WeekdaySet, TimeRange and DateRule.
type Restriction interface {
	Kind() RuleKind
	// Restricts reports whether sending at t is forbidden by this payload.
	Restricts(t time.Time) bool
	sealed()
}

// ISOWeekday returns the ISO-8601 weekday number of t, Monday=1 ... Sunday=7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekdaySet forbids sending on any of Days (ISO numbers 1-7).
type WeekdaySet struct {
	Days []int
}

// NewWeekdaySet validates days and returns them sorted and de-duplicated.
func NewWeekdaySet(days []int) (WeekdaySet, error) {
	if len(days) == 0 {
		return WeekdaySet{}, fmt.Errorf("weekday set must not be empty")
	}
	seen := make(map[int]struct{}, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 1 || d > 7 {
			return WeekdaySet{}, fmt.Errorf("weekday %d out of range 1-7", d)
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Ints(out)
	return WeekdaySet{Days: out}, nil
}

func (WeekdaySet) Kind() RuleKind { return RuleKindWeekday }
func (WeekdaySet) sealed()        {}

func (w WeekdaySet) Restricts(t time.Time) bool {
	wd := ISOWeekday(t)
	for _, d := range w.Days {
		if d == wd {
			return true
		}
	}
	return false
}

// TimeOfDay is a wall clock time with second precision.
type TimeOfDay struct {
	Hour, Minute, Second int
}

// ParseTimeOfDay accepts "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q, want HH:MM or HH:MM:SS", s)
}

// TimeOfDayOf returns the wall clock time of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) seconds() int { return t.Hour*3600 + t.Minute*60 + t.Second }

// Before reports whether t is strictly earlier in the day than o.
func (t TimeOfDay) Before(o TimeOfDay) bool { return t.seconds() < o.seconds() }

func (t TimeOfDay) String() string {
	if t.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// TimeRange forbids sending in the half-open window [Start, End).
// When Start is after End the window wraps past midnight.
type TimeRange struct {
	Start, End TimeOfDay
}

func (TimeRange) Kind() RuleKind { return RuleKindTimeRange }
func (TimeRange) sealed()        {}

// Overnight reports whether the window crosses midnight.
func (r TimeRange) Overnight() bool { return r.End.Before(r.Start) }

func (r TimeRange) Restricts(t time.Time) bool {
	now := TimeOfDayOf(t).seconds()
	start, end := r.Start.seconds(), r.End.seconds()
	if start <= end {
		return start <= now && now < end
	}
	return now >= start || now < end
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate accepts "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start, End Date
}

// Contains reports whether d is within the range, both ends inclusive.
func (r DateRange) Contains(d Date) bool {
	return r.Start.Compare(d) <= 0 && d.Compare(r.End) <= 0
}

// DateRule forbids sending on Specific and/or within Range. Each part is
// checked on its own; a rule with neither never matches.
type DateRule struct {
	Specific *Date
	Range    *DateRange
}

func (DateRule) Kind() RuleKind { return RuleKindDate }
func (DateRule) sealed()        {}

func (r DateRule) Restricts(t time.Time) bool {
	d := DateOf(t)
	if r.Specific != nil && d.Compare(*r.Specific) == 0 {
		return true
	}
	return r.Range != nil && r.Range.Contains(d)
}

// SendRule is a tenant scoped restriction on when outreach may be sent.
//
// A nil Restriction marks a rule whose stored payload was incomplete; such a
// rule is inert and never denies.
type SendRule struct {
	ID          uint64
	ListID      string
	Label       string
	Enabled     bool
	CreatedAt   time.Time
	DeletedAt   *time.Time
	Restriction Restriction
}

// Active reports whether the rule takes part in evaluation.
func (r SendRule) Active() bool {
	return r.Enabled && r.DeletedAt == nil && r.Restriction != nil
}
