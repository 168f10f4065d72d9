package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/boltdb"
	"github.com/haukened/outreach-gate/internal/outreach/services/gate"
)

// Layout under boltdb.BucketSendRules:
//
//	<list_id>/version     uint64 write counter
//	<list_id>/rows/<id>   JSON domain.SendRuleRow
type boltStore struct {
	db *bbolt.DB
}

// New wraps an open database. The caller owns db and closes it.
func New(db *bbolt.DB) gate.SendRuleStore {
	return &boltStore{db: db}
}

func (s *boltStore) Create(ctx context.Context, row domain.SendRuleRow) (domain.SendRuleRow, error) {
	if err := ctx.Err(); err != nil {
		return domain.SendRuleRow{}, err
	}
	if err := row.Validate(); err != nil {
		return domain.SendRuleRow{}, err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		lb, err := boltdb.EnsureListBucket(tx, boltdb.BucketSendRules, row.ListID)
		if err != nil {
			return err
		}
		id, err := boltdb.NextID(tx, boltdb.BucketSendRules)
		if err != nil {
			return err
		}
		row.ID = id
		row.DeletedAt = nil
		return putRow(lb, row)
	})
	if err != nil {
		return domain.SendRuleRow{}, err
	}
	return row, nil
}

func (s *boltStore) SetEnabled(ctx context.Context, listID string, id uint64, enabled bool) (domain.SendRuleRow, error) {
	if err := ctx.Err(); err != nil {
		return domain.SendRuleRow{}, err
	}
	var row domain.SendRuleRow
	err := s.db.Update(func(tx *bbolt.Tx) error {
		lb, r, err := liveRow(tx, listID, id)
		if err != nil {
			return err
		}
		r.Enabled = enabled
		row = r
		return putRow(lb, r)
	})
	return row, err
}

func (s *boltStore) Delete(ctx context.Context, listID string, id uint64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		lb, r, err := liveRow(tx, listID, id)
		if err != nil {
			return err
		}
		deletedAt := at
		r.DeletedAt = &deletedAt
		return putRow(lb, r)
	})
}

// List walks rows oldest → newest, skipping soft-deleted ones.
func (s *boltStore) List(ctx context.Context, listID string) ([]domain.SendRuleRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.SendRuleRow
	err := s.db.View(func(tx *bbolt.Tx) error {
		lb := boltdb.ListBucket(tx, boltdb.BucketSendRules, listID)
		if lb == nil {
			return nil
		}
		return lb.Bucket(boltdb.BucketRows).ForEach(func(k, v []byte) error {
			var r domain.SendRuleRow
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode send rule %d: %w", boltdb.Btoi(k), err)
			}
			if r.DeletedAt == nil {
				out = append(out, r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// liveRow loads a non-deleted row for update.
func liveRow(tx *bbolt.Tx, listID string, id uint64) (*bbolt.Bucket, domain.SendRuleRow, error) {
	lb := boltdb.ListBucket(tx, boltdb.BucketSendRules, listID)
	if lb == nil {
		return nil, domain.SendRuleRow{}, gate.ErrRuleNotFound
	}
	raw := lb.Bucket(boltdb.BucketRows).Get(boltdb.Itob(id))
	if raw == nil {
		return nil, domain.SendRuleRow{}, gate.ErrRuleNotFound
	}
	var r domain.SendRuleRow
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, domain.SendRuleRow{}, fmt.Errorf("decode send rule %d: %w", id, err)
	}
	if r.DeletedAt != nil {
		return nil, domain.SendRuleRow{}, gate.ErrRuleNotFound
	}
	return lb, r, nil
}

func putRow(lb *bbolt.Bucket, r domain.SendRuleRow) error {
	buf, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := lb.Bucket(boltdb.BucketRows).Put(boltdb.Itob(r.ID), buf); err != nil {
		return err
	}
	_, err = boltdb.BumpVersion(lb)
	return err
}

var _ gate.SendRuleStore = (*boltStore)(nil)
