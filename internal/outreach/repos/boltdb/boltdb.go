// Package boltdb opens the single bbolt file shared by the outreach stores and
// holds the key encoding helpers they have in common.
package boltdb

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
)

// Top level buckets. Each holds one nested bucket per list id.
var (
	BucketPatterns    = []byte("ng_patterns")
	BucketSendRules   = []byte("send_rules")
	BucketWorkRecords = []byte("work_records")
)

// Nested bucket and key names used inside a list bucket.
var (
	BucketRows  = []byte("rows")
	BucketIndex = []byte("index")
	KeyVersion  = []byte("version")
)

// Open opens (or creates) the database at path and ensures the top level buckets exist.
func Open(path string) (*bbolt.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{BucketPatterns, BucketSendRules, BucketWorkRecords} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Itob encodes an id as 8 big-endian bytes so cursor order equals id order.
func Itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// Btoi decodes a key written by Itob. Short keys decode to 0.
func Btoi(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// ListBucket returns the nested bucket for listID under top, or nil when it
// does not exist. Read-only transactions never create buckets.
func ListBucket(tx *bbolt.Tx, top []byte, listID string) *bbolt.Bucket {
	b := tx.Bucket(top)
	if b == nil {
		return nil
	}
	return b.Bucket([]byte(listID))
}

// EnsureListBucket returns the nested bucket for listID under top, creating it
// together with its rows and index buckets.
func EnsureListBucket(tx *bbolt.Tx, top []byte, listID string) (*bbolt.Bucket, error) {
	b := tx.Bucket(top)
	if b == nil {
		return nil, fmt.Errorf("bucket %q missing", top)
	}
	lb, err := b.CreateBucketIfNotExists([]byte(listID))
	if err != nil {
		return nil, err
	}
	if _, err := lb.CreateBucketIfNotExists(BucketRows); err != nil {
		return nil, err
	}
	if _, err := lb.CreateBucketIfNotExists(BucketIndex); err != nil {
		return nil, err
	}
	return lb, nil
}

// NextID draws the next id from the top level bucket sequence.
func NextID(tx *bbolt.Tx, top []byte) (uint64, error) {
	b := tx.Bucket(top)
	if b == nil {
		return 0, fmt.Errorf("bucket %q missing", top)
	}
	return b.NextSequence()
}

// BumpVersion increments and returns the version counter of a list bucket.
func BumpVersion(lb *bbolt.Bucket) (uint64, error) {
	v := Btoi(lb.Get(KeyVersion)) + 1
	return v, lb.Put(KeyVersion, Itob(v))
}

// Version returns the version counter of a list bucket; nil buckets are version 0.
func Version(lb *bbolt.Bucket) uint64 {
	if lb == nil {
		return 0
	}
	return Btoi(lb.Get(KeyVersion))
}
