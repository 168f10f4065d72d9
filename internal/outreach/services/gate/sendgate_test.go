package gate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/outreach-gate/internal/outreach/common/clock"
	"github.com/haukened/outreach-gate/internal/outreach/domain"
)

// Saturday 2025-03-01 16:00 UTC is Sunday 01:00 in Tokyo.
var saturdayAfternoonUTC = time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC)

func newRules(t *testing.T, store *memRuleStore, clk clock.Clock) *SendRules {
	t.Helper()
	return NewSendRules(store, clk, nil)
}

func TestSendRules_CreateStampsAndValidates(t *testing.T) {
	ctx := context.Background()
	store := &memRuleStore{}
	clk := &clock.MockClock{CurrentTime: saturdayAfternoonUTC}
	svc := newRules(t, store, clk)

	row, err := svc.Create(ctx, domain.SendRuleRow{ID: 99, ListID: "acme", Label: "weekends", Kind: "weekday", Weekdays: []int{6, 7}})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), row.ID)
	assert.True(t, row.Enabled)
	assert.True(t, row.CreatedAt.Equal(saturdayAfternoonUTC))

	_, err = svc.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "broken", Kind: "time_range", TimeStart: strp("09:00")})
	assert.ErrorIs(t, err, domain.ErrInvalidSendRule)
	assert.Len(t, store.rows, 1)
}

func TestSendRules_SetEnabledAndDelete(t *testing.T) {
	ctx := context.Background()
	store := &memRuleStore{}
	clk := &clock.MockClock{CurrentTime: saturdayAfternoonUTC}
	svc := newRules(t, store, clk)
	row, err := svc.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "weekends", Kind: "weekday", Weekdays: []int{6, 7}})
	require.NoError(t, err)

	got, err := svc.SetEnabled(ctx, "acme", row.ID, false)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	require.NoError(t, svc.Delete(ctx, "acme", row.ID))
	require.NotNil(t, store.rows[0].DeletedAt)
	assert.True(t, store.rows[0].DeletedAt.Equal(saturdayAfternoonUTC))
	assert.ErrorIs(t, svc.Delete(ctx, "acme", row.ID), ErrRuleNotFound)

	rows, err := svc.List(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSendGate_CheckDeniesWithFirstMatchingRule(t *testing.T) {
	ctx := context.Background()
	store := &memRuleStore{}
	clk := &clock.MockClock{CurrentTime: saturdayAfternoonUTC}
	rules := newRules(t, store, clk)
	_, err := rules.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "weekends", Kind: "weekday", Weekdays: []int{6, 7}})
	require.NoError(t, err)
	_, err = rules.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "afternoon", Kind: "time_range", TimeStart: strp("12:00"), TimeEnd: strp("18:00")})
	require.NoError(t, err)

	g := NewSendGate(SendGateOptions{Rules: store, Clock: clk})
	err = g.Check(ctx, "acme")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendTimingViolation)

	var v *SendTimingViolation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "weekends", v.Label)
	assert.Equal(t, uint64(1), v.RuleID)
	assert.Equal(t, "acme", v.ListID)
	assert.Equal(t, "send timing violation: weekends", v.Error())

	assert.NoError(t, g.Check(ctx, "globex"), "lists without rules allow sending")
}

func TestSendGate_EvaluatesInConfiguredLocation(t *testing.T) {
	ctx := context.Background()
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	store := &memRuleStore{}
	clk := &clock.MockClock{CurrentTime: saturdayAfternoonUTC}
	rules := newRules(t, store, clk)
	_, err = rules.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "late night", Kind: "time_range", TimeStart: strp("00:00"), TimeEnd: strp("06:00")})
	require.NoError(t, err)

	utcGate := NewSendGate(SendGateOptions{Rules: store, Clock: clk})
	assert.NoError(t, utcGate.Check(ctx, "acme"))

	tokyoGate := NewSendGate(SendGateOptions{Rules: store, Clock: clk, Location: tokyo})
	v, now, err := tokyoGate.Evaluate(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, v.Allowed)
	assert.Equal(t, "late night", v.Label)
	assert.Equal(t, 1, now.Hour())
	assert.Equal(t, time.Sunday, now.Weekday())
}

func TestSendGate_SkipsDisabledAndInertRules(t *testing.T) {
	ctx := context.Background()
	store := &memRuleStore{rows: []domain.SendRuleRow{
		{ID: 1, ListID: "acme", Label: "disabled weekends", Kind: "weekday", Weekdays: []int{6, 7}, Enabled: false},
		{ID: 2, ListID: "acme", Label: "half a range", Kind: "time_range", TimeStart: strp("00:00"), Enabled: true},
		{ID: 3, ListID: "acme", Label: "unknown kind", Kind: "lunar", Enabled: true},
	}}
	g := NewSendGate(SendGateOptions{Rules: store, Clock: &clock.MockClock{CurrentTime: saturdayAfternoonUTC}})

	v, _, err := g.Evaluate(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, v.Allowed)
}

func TestSendGate_DateRules(t *testing.T) {
	ctx := context.Background()
	store := &memRuleStore{}
	clk := &clock.MockClock{CurrentTime: saturdayAfternoonUTC}
	rules := newRules(t, store, clk)
	_, err := rules.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "golden week", Kind: "date", RangeStart: strp("2025-04-29"), RangeEnd: strp("2025-05-06")})
	require.NoError(t, err)
	_, err = rules.Create(ctx, domain.SendRuleRow{ListID: "acme", Label: "new year", Kind: "date", SpecificDate: strp("2026-01-01")})
	require.NoError(t, err)

	g := NewSendGate(SendGateOptions{Rules: store, Clock: clk})
	assert.NoError(t, g.Check(ctx, "acme"))

	clk.Set(time.Date(2025, 5, 6, 23, 59, 59, 0, time.UTC))
	var v *SendTimingViolation
	require.ErrorAs(t, g.Check(ctx, "acme"), &v)
	assert.Equal(t, "golden week", v.Label)

	clk.Advance(time.Second)
	assert.NoError(t, g.Check(ctx, "acme"))

	clk.Set(time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	require.ErrorAs(t, g.Check(ctx, "acme"), &v)
	assert.Equal(t, "new year", v.Label)
}

func TestSendGate_StoreError(t *testing.T) {
	boom := errors.New("boom")
	g := NewSendGate(SendGateOptions{Rules: &memRuleStore{listErr: boom}})
	err := g.Check(context.Background(), "acme")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSendTimingViolation)
}
