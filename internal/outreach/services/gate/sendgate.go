package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/haukened/outreach-gate/internal/outreach/common/clock"
	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/domain"
)

// SendTimingViolation reports the rule that forbids sending right now.
type SendTimingViolation struct {
	ListID string
	Label  string
	RuleID uint64
	At     time.Time
}

func (e *SendTimingViolation) Error() string {
	return fmt.Sprintf("send timing violation: %s", e.Label)
}

func (e *SendTimingViolation) Unwrap() error { return ErrSendTimingViolation }

// SendGate decides whether outreach may be sent for a list at the current time.
type SendGate struct {
	rules    SendRuleStore
	clock    clock.Clock
	location *time.Location
	logger   log.Logger
}

// SendGateOptions configures NewSendGate. Location defaults to UTC.
type SendGateOptions struct {
	Rules    SendRuleStore
	Clock    clock.Clock
	Location *time.Location
	Logger   log.Logger
}

func NewSendGate(opts SendGateOptions) *SendGate {
	g := &SendGate{
		rules:    opts.Rules,
		clock:    opts.Clock,
		location: opts.Location,
		logger:   opts.Logger,
	}
	if g.clock == nil {
		g.clock = clock.RealClock{}
	}
	if g.location == nil {
		g.location = time.UTC
	}
	if g.logger == nil {
		g.logger = log.NewNoopLogger()
	}
	return g
}

// Evaluate loads the list's rules fresh and evaluates them at the current time.
func (g *SendGate) Evaluate(ctx context.Context, listID string) (domain.Verdict, time.Time, error) {
	rows, err := g.rules.List(ctx, listID)
	if err != nil {
		return domain.Verdict{}, time.Time{}, fmt.Errorf("load send rules: %w", err)
	}
	rules := make([]domain.SendRule, 0, len(rows))
	for _, row := range rows {
		r := row.ToRule()
		if r.Restriction == nil {
			g.logger.Warn(map[string]any{"list_id": listID, "rule_id": row.ID, "kind": row.Kind}, "inert send rule skipped")
		}
		rules = append(rules, r)
	}
	now := g.clock.Now().In(g.location)
	return domain.CanSend(now, rules), now, nil
}

// Check returns a *SendTimingViolation when sending is currently forbidden.
func (g *SendGate) Check(ctx context.Context, listID string) error {
	v, now, err := g.Evaluate(ctx, listID)
	if err != nil {
		return err
	}
	if v.Allowed {
		return nil
	}
	g.logger.Info(map[string]any{
		"list_id": listID,
		"rule_id": v.RuleID,
		"label":   v.Label,
		"at":      now.Format(time.RFC3339),
	}, "send denied by rule")
	return &SendTimingViolation{ListID: listID, Label: v.Label, RuleID: v.RuleID, At: now}
}
