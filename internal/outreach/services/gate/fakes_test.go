package gate

import (
	"context"
	"time"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
)

type memRuleStore struct {
	rows    []domain.SendRuleRow
	nextID  uint64
	listErr error
}

func (m *memRuleStore) Create(_ context.Context, row domain.SendRuleRow) (domain.SendRuleRow, error) {
	m.nextID++
	row.ID = m.nextID
	m.rows = append(m.rows, row)
	return row, nil
}

func (m *memRuleStore) SetEnabled(_ context.Context, listID string, id uint64, enabled bool) (domain.SendRuleRow, error) {
	for i := range m.rows {
		if m.rows[i].ListID == listID && m.rows[i].ID == id && m.rows[i].DeletedAt == nil {
			m.rows[i].Enabled = enabled
			return m.rows[i], nil
		}
	}
	return domain.SendRuleRow{}, ErrRuleNotFound
}

func (m *memRuleStore) Delete(_ context.Context, listID string, id uint64, at time.Time) error {
	for i := range m.rows {
		if m.rows[i].ListID == listID && m.rows[i].ID == id && m.rows[i].DeletedAt == nil {
			m.rows[i].DeletedAt = &at
			return nil
		}
	}
	return ErrRuleNotFound
}

func (m *memRuleStore) List(_ context.Context, listID string) ([]domain.SendRuleRow, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.SendRuleRow
	for _, r := range m.rows {
		if r.ListID == listID && r.DeletedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

type memRecordStore struct {
	recs      []domain.WorkRecord
	createErr error
}

func (m *memRecordStore) Create(_ context.Context, rec domain.WorkRecord) (domain.WorkRecord, error) {
	if m.createErr != nil {
		return domain.WorkRecord{}, m.createErr
	}
	rec.ID = uint64(len(m.recs) + 1)
	m.recs = append(m.recs, rec)
	return rec, nil
}

func (m *memRecordStore) List(_ context.Context, listID string) ([]domain.WorkRecord, error) {
	var out []domain.WorkRecord
	for _, r := range m.recs {
		if r.ListID == listID {
			out = append(out, r)
		}
	}
	return out, nil
}

func strp(s string) *string { return &s }
