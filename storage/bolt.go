package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/krisalay/endpoint-cache/types"
)

// One bucket, versioned by name. Bumping the version abandons old data
// instead of migrating it; cached values can always be refetched.
const boltBucket = "endpoint-cache-v1"

/*
BoltBackend is the structured-object database backend, built on bbolt.

The database is opened lazily, once, on first use; the open result
(success or failure) is memoized so every later call reuses the same
connection or the same verdict. Each Get/Set/Remove runs inside its own
transaction scoped to just that operation.

Faults never reach the caller as errors and never leave the caller
waiting forever: the open carries a timeout, and any underlying failure
is logged and resolved as a miss (reads) or a no-op (writes).
*/
type BoltBackend struct {
	path string
	log  types.Logger

	once    sync.Once
	db      *bolt.DB
	openErr error
}

// NewBolt creates a bolt backend for the database file at path. Nothing
// is opened until the first operation.
func NewBolt(path string, log types.Logger) *BoltBackend {
	return &BoltBackend{path: path, log: types.OrNop(log)}
}

// open memoizes the lazy database open and bucket creation.
func (b *BoltBackend) open() (*bolt.DB, error) {
	b.once.Do(func() {
		db, err := bolt.Open(b.path, 0o600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			b.openErr = err
			b.log.Warnf("storage: bolt backend at %q unavailable: %v", b.path, err)
			return
		}
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
			return err
		})
		if err != nil {
			b.openErr = err
			b.log.Warnf("storage: bolt backend bucket setup failed: %v", err)
			_ = db.Close()
			return
		}
		b.db = db
	})
	return b.db, b.openErr
}

// Get reads the record for key in a read-only transaction.
func (b *BoltBackend) Get(ctx context.Context, key string) (*types.Record, error) {
	db, err := b.open()
	if err != nil {
		return nil, nil
	}

	var rec *types.Record
	err = db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var r types.Record
		if err := json.Unmarshal(raw, &r); err != nil {
			b.log.Warnf("storage: bolt backend unreadable entry for %q: %v", key, err)
			return nil
		}
		rec = &r
		return nil
	})
	if err != nil {
		b.log.Errorf("storage: bolt backend read for %q failed: %v", key, err)
		return nil, nil
	}
	return rec, nil
}

// Set writes the record for key in its own write transaction.
func (b *BoltBackend) Set(ctx context.Context, key string, rec *types.Record) error {
	db, err := b.open()
	if err != nil {
		return nil
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		b.log.Errorf("storage: bolt backend cannot encode record for %q: %v", key, err)
		return nil
	}
	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), raw)
	})
	if err != nil {
		b.log.Errorf("storage: bolt backend write for %q failed: %v", key, err)
	}
	return nil
}

// Remove deletes the record for key. bbolt's Delete is already a no-op
// for missing keys.
func (b *BoltBackend) Remove(ctx context.Context, key string) error {
	db, err := b.open()
	if err != nil {
		return nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
	if err != nil {
		b.log.Errorf("storage: bolt backend remove for %q failed: %v", key, err)
	}
	return nil
}

// ClearAll drops and recreates this backend's bucket, leaving any other
// buckets in the file alone.
func (b *BoltBackend) ClearAll(ctx context.Context) error {
	db, err := b.open()
	if err != nil {
		return nil
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(boltBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		b.log.Errorf("storage: bolt backend clear failed: %v", err)
	}
	return nil
}

// Close releases the database file if it was ever opened.
func (b *BoltBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
