package anchor

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/wonny/sgxsync/internal/contracts"
)

const anchorsBucketName = "anchors"

// lockTimeout bounds the wait for another process holding the file
const lockTimeout = 5 * time.Second

// BoltStore keeps learned anchors in a local bbolt file:
// bucket "anchors" → bucket per series → date key → big-endian id.
// The file is opened per call, so the scheduler daemon and a manual run
// can share it; bbolt's file lock is only held for one transaction.
type BoltStore struct {
	path string
}

// OpenBolt prepares the anchor database at path, creating it if needed
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create anchor db dir: %w", err)
	}

	b := &BoltStore{path: path}
	err := b.update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(anchorsBucketName))
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// update runs fn in a write transaction on a short-lived handle
func (b *BoltStore) update(fn func(tx *bbolt.Tx) error) error {
	db, err := bbolt.Open(b.path, 0o644, &bbolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("open anchor db %s: %w", b.path, err)
	}
	defer db.Close()

	return db.Update(fn)
}

// view runs fn in a read transaction on a short-lived handle
func (b *BoltStore) view(fn func(tx *bbolt.Tx) error) error {
	db, err := bbolt.Open(b.path, 0o644, &bbolt.Options{Timeout: lockTimeout, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open anchor db %s: %w", b.path, err)
	}
	defer db.Close()

	return db.View(fn)
}

func (b *BoltStore) Load(ctx context.Context) ([]Anchor, error) {
	var out []Anchor

	err := b.view(func(tx *bbolt.Tx) error {
		root := tx.Bucket([]byte(anchorsBucketName))
		if root == nil {
			return nil
		}
		return root.ForEachBucket(func(name []byte) error {
			series, err := contracts.ParseSeries(string(name))
			if err != nil {
				return err
			}

			return root.Bucket(name).ForEach(func(k, v []byte) error {
				date, err := contracts.ParseTradingDate(string(k))
				if err != nil {
					return err
				}
				if len(v) != 8 {
					return fmt.Errorf("anchor %s/%s: corrupt value", series, k)
				}
				out = append(out, Anchor{Series: series, Date: date, ID: int(binary.BigEndian.Uint64(v))})
				return nil
			})
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load anchors: %w", err)
	}

	return out, nil
}

func (b *BoltStore) Save(ctx context.Context, a Anchor) error {
	return b.update(func(tx *bbolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(anchorsBucketName))
		if err != nil {
			return err
		}
		bucket, err := root.CreateBucketIfNotExists([]byte(a.Series))
		if err != nil {
			return err
		}

		value := make([]byte, 8)
		binary.BigEndian.PutUint64(value, uint64(a.ID))
		return bucket.Put([]byte(a.Date.String()), value)
	})
}

// Close is a no-op: no handle outlives a call
func (b *BoltStore) Close() error { return nil }
