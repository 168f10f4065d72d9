package gate

import (
	"context"
	"fmt"

	"github.com/haukened/outreach-gate/internal/outreach/common/clock"
	"github.com/haukened/outreach-gate/internal/outreach/common/log"
	"github.com/haukened/outreach-gate/internal/outreach/domain"
)

// CreateWorkRecord is the input of WorkRecords.Create.
type CreateWorkRecord struct {
	ListID     string
	WorkerID   string
	CompanyURL string
	Status     string
	Note       string
}

// WorkRecords creates work records, running the send gate for "sent" ones.
type WorkRecords struct {
	store  WorkRecordStore
	gate   *SendGate
	clock  clock.Clock
	logger log.Logger
}

func NewWorkRecords(store WorkRecordStore, g *SendGate, clk clock.Clock, logger log.Logger) *WorkRecords {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &WorkRecords{store: store, gate: g, clock: clk, logger: logger}
}

// Create stores a work record. When the status is "sent" the list's send
// rules are evaluated first and a *SendTimingViolation aborts creation.
func (w *WorkRecords) Create(ctx context.Context, in CreateWorkRecord) (domain.WorkRecord, error) {
	status, err := domain.ParseWorkStatus(in.Status)
	if err != nil {
		return domain.WorkRecord{}, err
	}
	rec := domain.WorkRecord{
		ListID:     in.ListID,
		WorkerID:   in.WorkerID,
		CompanyURL: in.CompanyURL,
		Status:     status,
		Note:       in.Note,
		CreatedAt:  w.clock.Now(),
	}
	if err := rec.Validate(); err != nil {
		return domain.WorkRecord{}, err
	}
	if status == domain.WorkStatusSent {
		if err := w.gate.Check(ctx, rec.ListID); err != nil {
			return domain.WorkRecord{}, err
		}
	}
	out, err := w.store.Create(ctx, rec)
	if err != nil {
		return domain.WorkRecord{}, fmt.Errorf("create work record: %w", err)
	}
	w.logger.Debug(map[string]any{"list_id": out.ListID, "id": out.ID, "status": string(out.Status)}, "work record created")
	return out, nil
}

func (w *WorkRecords) List(ctx context.Context, listID string) ([]domain.WorkRecord, error) {
	return w.store.List(ctx, listID)
}
