package gate

import (
	"context"
	"errors"
	"time"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
)

var (
	// ErrRuleNotFound is returned when no live send rule has the given id in the list.
	ErrRuleNotFound = errors.New("send rule not found")
	// ErrSendTimingViolation is wrapped by SendTimingViolation.
	ErrSendTimingViolation = errors.New("send timing violation")
)

// SendRuleStore persists send rules per list.
//
// List returns every rule that is not soft-deleted, disabled ones included,
// in creation order. That order is the evaluation order of CanSend.
type SendRuleStore interface {
	Create(ctx context.Context, row domain.SendRuleRow) (domain.SendRuleRow, error)
	SetEnabled(ctx context.Context, listID string, id uint64, enabled bool) (domain.SendRuleRow, error)
	Delete(ctx context.Context, listID string, id uint64, at time.Time) error
	List(ctx context.Context, listID string) ([]domain.SendRuleRow, error)
}

// WorkRecordStore persists work records per list.
type WorkRecordStore interface {
	Create(ctx context.Context, rec domain.WorkRecord) (domain.WorkRecord, error)
	List(ctx context.Context, listID string) ([]domain.WorkRecord, error)
}

// Blocklist is the check side of the blocklist repository.
type Blocklist interface {
	Check(ctx context.Context, listID, rawURL string) (domain.BlockDecision, error)
}
