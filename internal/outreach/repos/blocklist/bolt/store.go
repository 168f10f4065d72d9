package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/outreach-gate/internal/outreach/domain"
	"github.com/haukened/outreach-gate/internal/outreach/repos/blocklist"
	"github.com/haukened/outreach-gate/internal/outreach/repos/boltdb"
)

// Layout under boltdb.BucketPatterns:
//
//	<list_id>/version        uint64 write counter
//	<list_id>/rows/<id>      JSON domain.BlocklistPattern
//	<list_id>/index/<norm>   id of the active row holding that normalized value
type boltStore struct {
	db *bbolt.DB
}

// New wraps an open database. The caller owns db and closes it.
func New(db *bbolt.DB) blocklist.Store {
	return &boltStore{db: db}
}

func (s *boltStore) Add(ctx context.Context, p domain.BlocklistPattern) (domain.BlocklistPattern, error) {
	if err := ctx.Err(); err != nil {
		return domain.BlocklistPattern{}, err
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		lb, err := boltdb.EnsureListBucket(tx, boltdb.BucketPatterns, p.ListID)
		if err != nil {
			return err
		}
		idx := lb.Bucket(boltdb.BucketIndex)
		if idx.Get([]byte(p.Normalized)) != nil {
			return fmt.Errorf("%w: %q", blocklist.ErrDuplicatePattern, p.Normalized)
		}
		id, err := boltdb.NextID(tx, boltdb.BucketPatterns)
		if err != nil {
			return err
		}
		p.ID = id
		p.DeletedAt = nil
		buf, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if err := lb.Bucket(boltdb.BucketRows).Put(boltdb.Itob(id), buf); err != nil {
			return err
		}
		if err := idx.Put([]byte(p.Normalized), boltdb.Itob(id)); err != nil {
			return err
		}
		_, err = boltdb.BumpVersion(lb)
		return err
	})
	if err != nil {
		return domain.BlocklistPattern{}, err
	}
	return p, nil
}

func (s *boltStore) Delete(ctx context.Context, listID string, id uint64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		lb := boltdb.ListBucket(tx, boltdb.BucketPatterns, listID)
		if lb == nil {
			return blocklist.ErrPatternNotFound
		}
		rows := lb.Bucket(boltdb.BucketRows)
		raw := rows.Get(boltdb.Itob(id))
		if raw == nil {
			return blocklist.ErrPatternNotFound
		}
		var p domain.BlocklistPattern
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("decode pattern %d: %w", id, err)
		}
		if p.IsDeleted() {
			return blocklist.ErrPatternNotFound
		}
		deletedAt := at
		p.DeletedAt = &deletedAt
		buf, err := json.Marshal(p)
		if err != nil {
			return err
		}
		if err := rows.Put(boltdb.Itob(id), buf); err != nil {
			return err
		}
		if err := lb.Bucket(boltdb.BucketIndex).Delete([]byte(p.Normalized)); err != nil {
			return err
		}
		_, err = boltdb.BumpVersion(lb)
		return err
	})
}

func (s *boltStore) Active(ctx context.Context, listID string) ([]domain.BlocklistPattern, error) {
	_, out, err := s.Snapshot(ctx, listID)
	return out, err
}

// Snapshot walks rows newest → oldest; ids are drawn from a sequence so id
// order is creation order.
func (s *boltStore) Snapshot(ctx context.Context, listID string) (uint64, []domain.BlocklistPattern, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	var (
		ver uint64
		out []domain.BlocklistPattern
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		lb := boltdb.ListBucket(tx, boltdb.BucketPatterns, listID)
		if lb == nil {
			return nil
		}
		ver = boltdb.Version(lb)
		c := lb.Bucket(boltdb.BucketRows).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var p domain.BlocklistPattern
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("decode pattern %d: %w", boltdb.Btoi(k), err)
			}
			if p.IsDeleted() {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return ver, out, nil
}

func (s *boltStore) Version(ctx context.Context, listID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var ver uint64
	err := s.db.View(func(tx *bbolt.Tx) error {
		ver = boltdb.Version(boltdb.ListBucket(tx, boltdb.BucketPatterns, listID))
		return nil
	})
	return ver, err
}

// Stats scans every list; it is meant for diagnostics, not the request path.
func (s *boltStore) Stats() blocklist.StoreStats {
	st := blocklist.StoreStats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		top := tx.Bucket(boltdb.BucketPatterns)
		if top == nil {
			return nil
		}
		return top.ForEachBucket(func(name []byte) error {
			st.Lists++
			rows := top.Bucket(name).Bucket(boltdb.BucketRows)
			if rows == nil {
				return nil
			}
			return rows.ForEach(func(_, v []byte) error {
				var p domain.BlocklistPattern
				if err := json.Unmarshal(v, &p); err != nil {
					return nil
				}
				switch {
				case p.IsDeleted():
					st.Deleted++
				case p.Wildcard:
					st.Active++
					st.Wildcard++
				default:
					st.Active++
				}
				return nil
			})
		})
	})
	return st
}

var _ blocklist.Store = (*boltStore)(nil)
