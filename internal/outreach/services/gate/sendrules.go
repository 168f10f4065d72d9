package gate

import (
	"context"

	"github.com/haukened/outreach-gate/internal/outreach/common/clock"
	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/domain"
)

// SendRules manages the send rules of a list.
type SendRules struct {
	store  SendRuleStore
	clock  clock.Clock
	logger log.Logger
}

func NewSendRules(store SendRuleStore, clk clock.Clock, logger log.Logger) *SendRules {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &SendRules{store: store, clock: clk, logger: logger}
}

// Create validates and stores a new rule. New rules are enabled.
func (s *SendRules) Create(ctx context.Context, row domain.SendRuleRow) (domain.SendRuleRow, error) {
	row.ID = 0
	row.Enabled = true
	row.CreatedAt = s.clock.Now()
	row.DeletedAt = nil
	if err := row.Validate(); err != nil {
		return domain.SendRuleRow{}, err
	}
	out, err := s.store.Create(ctx, row)
	if err != nil {
		return domain.SendRuleRow{}, err
	}
	s.logger.Info(map[string]any{"list_id": out.ListID, "id": out.ID, "kind": out.Kind, "label": out.Label}, "send rule created")
	return out, nil
}

func (s *SendRules) List(ctx context.Context, listID string) ([]domain.SendRuleRow, error) {
	return s.store.List(ctx, listID)
}

func (s *SendRules) SetEnabled(ctx context.Context, listID string, id uint64, enabled bool) (domain.SendRuleRow, error) {
	out, err := s.store.SetEnabled(ctx, listID, id, enabled)
	if err != nil {
		return domain.SendRuleRow{}, err
	}
	s.logger.Info(map[string]any{"list_id": listID, "id": id, "enabled": enabled}, "send rule updated")
	return out, nil
}

func (s *SendRules) Delete(ctx context.Context, listID string, id uint64) error {
	if err := s.store.Delete(ctx, listID, id, s.clock.Now()); err != nil {
		return err
	}
	s.logger.Info(map[string]any{"list_id": listID, "id": id}, "send rule deleted")
	return nil
}
