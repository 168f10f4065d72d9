package bolt

import (
	"context"
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/boltdb"
	"github.com/haukened/outreach-gate/internal/outreach/services/gate"
)

// boltStore keeps work records under boltdb.BucketWorkRecords/<list_id>/rows/<id>.
type boltStore struct {
	db *bbolt.DB
}

// New wraps an open database. The caller owns db and closes it.
func New(db *bbolt.DB) gate.WorkRecordStore {
	return &boltStore{db: db}
}

func (s *boltStore) Create(ctx context.Context, rec domain.WorkRecord) (domain.WorkRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.WorkRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return domain.WorkRecord{}, err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		lb, err := boltdb.EnsureListBucket(tx, boltdb.BucketWorkRecords, rec.ListID)
		if err != nil {
			return err
		}
		id, err := boltdb.NextID(tx, boltdb.BucketWorkRecords)
		if err != nil {
			return err
		}
		rec.ID = id
		buf, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return lb.Bucket(boltdb.BucketRows).Put(boltdb.Itob(id), buf)
	})
	if err != nil {
		return domain.WorkRecord{}, err
	}
	return rec, nil
}

// List returns the records of listID, oldest first.
func (s *boltStore) List(ctx context.Context, listID string) ([]domain.WorkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.WorkRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		lb := boltdb.ListBucket(tx, boltdb.BucketWorkRecords, listID)
		if lb == nil {
			return nil
		}
		return lb.Bucket(boltdb.BucketRows).ForEach(func(k, v []byte) error {
			var r domain.WorkRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("decode work record %d: %w", boltdb.Btoi(k), err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ gate.WorkRecordStore = (*boltStore)(nil)
