package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestSendRuleRow_Validate(t *testing.T) {
	base := func(kind string) SendRuleRow {
		return SendRuleRow{ListID: "l1", Label: "rule", Kind: kind, Enabled: true}
	}
	tests := []struct {
		name string
		row  func() SendRuleRow
		ok   bool
	}{
		{"weekday ok", func() SendRuleRow { r := base("weekday"); r.Weekdays = []int{6, 7}; return r }, true},
		{"weekday empty", func() SendRuleRow { return base("weekday") }, false},
		{"weekday out of range", func() SendRuleRow { r := base("weekday"); r.Weekdays = []int{0}; return r }, false},
		{"time ok", func() SendRuleRow {
			r := base("time_range")
			r.TimeStart, r.TimeEnd = strp("22:00"), strp("06:00")
			return r
		}, true},
		{"time missing end", func() SendRuleRow { r := base("time_range"); r.TimeStart = strp("22:00"); return r }, false},
		{"time malformed", func() SendRuleRow {
			r := base("time_range")
			r.TimeStart, r.TimeEnd = strp("22"), strp("06:00")
			return r
		}, false},
		{"date specific", func() SendRuleRow { r := base("date"); r.SpecificDate = strp("2025-12-25"); return r }, true},
		{"date range", func() SendRuleRow {
			r := base("date")
			r.RangeStart, r.RangeEnd = strp("2025-12-24"), strp("2025-12-26")
			return r
		}, true},
		{"date neither", func() SendRuleRow { return base("date") }, false},
		{"date half range", func() SendRuleRow { r := base("date"); r.RangeStart = strp("2025-12-24"); return r }, false},
		{"date reversed range", func() SendRuleRow {
			r := base("date")
			r.RangeStart, r.RangeEnd = strp("2025-12-26"), strp("2025-12-24")
			return r
		}, false},
		{"unknown kind", func() SendRuleRow { return base("monthly") }, false},
		{"missing label", func() SendRuleRow { r := base("weekday"); r.Weekdays = []int{1}; r.Label = " "; return r }, false},
		{"missing list", func() SendRuleRow { r := base("weekday"); r.Weekdays = []int{1}; r.ListID = ""; return r }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.row().Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSendRule)
		})
	}
}

func TestSendRuleRow_ToRule(t *testing.T) {
	t.Run("weekday", func(t *testing.T) {
		r := SendRuleRow{ID: 3, ListID: "l1", Label: "weekend", Kind: "weekday", Enabled: true, Weekdays: []int{7, 6}}.ToRule()
		require.NotNil(t, r.Restriction)
		assert.Equal(t, RuleKindWeekday, r.Restriction.Kind())
		assert.Equal(t, WeekdaySet{Days: []int{6, 7}}, r.Restriction)
		assert.True(t, r.Active())
		assert.Equal(t, uint64(3), r.ID)
		assert.Equal(t, "weekend", r.Label)
	})
	t.Run("time range", func(t *testing.T) {
		r := SendRuleRow{Kind: "time_range", Enabled: true, TimeStart: strp("22:00"), TimeEnd: strp("06:00")}.ToRule()
		assert.Equal(t, TimeRange{Start: TimeOfDay{Hour: 22}, End: TimeOfDay{Hour: 6}}, r.Restriction)
	})
	t.Run("date both parts", func(t *testing.T) {
		r := SendRuleRow{
			Kind: "date", Enabled: true,
			SpecificDate: strp("2026-01-01"), RangeStart: strp("2025-12-24"), RangeEnd: strp("2025-12-26"),
		}.ToRule()
		dr, ok := r.Restriction.(DateRule)
		require.True(t, ok)
		require.NotNil(t, dr.Specific)
		require.NotNil(t, dr.Range)
		assert.Equal(t, "2026-01-01", dr.Specific.String())
		assert.Equal(t, "2025-12-24", dr.Range.Start.String())
	})
	t.Run("date keeps specific when range is partial", func(t *testing.T) {
		r := SendRuleRow{Kind: "date", Enabled: true, SpecificDate: strp("2026-01-01"), RangeStart: strp("2025-12-24")}.ToRule()
		dr, ok := r.Restriction.(DateRule)
		require.True(t, ok)
		assert.NotNil(t, dr.Specific)
		assert.Nil(t, dr.Range)
	})

	inert := []SendRuleRow{
		{Kind: "time_range", Enabled: true, TimeStart: strp("22:00")},
		{Kind: "time_range", Enabled: true, TimeEnd: strp("06:00")},
		{Kind: "time_range", Enabled: true, TimeStart: strp("bad"), TimeEnd: strp("06:00")},
		{Kind: "date", Enabled: true},
		{Kind: "date", Enabled: true, RangeEnd: strp("2025-12-26")},
		{Kind: "weekday", Enabled: true},
		{Kind: "weekday", Enabled: true, Weekdays: []int{9}},
		{Kind: "unknown", Enabled: true},
	}
	for i, row := range inert {
		r := row.ToRule()
		assert.Nil(t, r.Restriction, "row %d", i)
		assert.False(t, r.Active(), "row %d", i)
	}
}
