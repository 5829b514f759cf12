package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/krisalay/endpoint-cache/types"
)

// Single-table schema. The table is this backend's whole namespace, so
// ClearAll may truncate it without looking at anything else in the file.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS endpoint_cache (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

/*
SQLiteBackend is the embedded relational backend.

Records are rows of (key TEXT PRIMARY KEY, value TEXT), the value column
holding the JSON-encoded record. The table is created lazily on first
use and the open handle memoized, same shape as the bolt backend.

Error policy: this backend follows the module-wide rule and swallows
faults, logging them and resolving absent / no-op. database/sql already
serializes access to the single connection pool, so overlapping writes
to the same key cannot interleave inside a row.
*/
type SQLiteBackend struct {
	path string
	log  types.Logger

	once    sync.Once
	db      *sql.DB
	openErr error
}

// NewSQLite creates a sqlite backend for the database file at path.
// Nothing is opened until the first operation.
func NewSQLite(path string, log types.Logger) *SQLiteBackend {
	return &SQLiteBackend{path: path, log: types.OrNop(log)}
}

// open memoizes the lazy open and table creation.
func (s *SQLiteBackend) open() (*sql.DB, error) {
	s.once.Do(func() {
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			s.openErr = err
			s.log.Warnf("storage: sqlite backend at %q unavailable: %v", s.path, err)
			return
		}
		if _, err := db.Exec(sqliteSchema); err != nil {
			s.openErr = err
			s.log.Warnf("storage: sqlite backend table setup failed: %v", err)
			_ = db.Close()
			return
		}
		s.db = db
	})
	return s.db, s.openErr
}

// Get reads and decodes the row for key. Corrupt rows are deleted and
// reported as a miss, mirroring the file backend.
func (s *SQLiteBackend) Get(ctx context.Context, key string) (*types.Record, error) {
	db, err := s.open()
	if err != nil {
		return nil, nil
	}

	var raw string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM endpoint_cache WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.log.Errorf("storage: sqlite backend read for %q failed: %v", key, err)
		return nil, nil
	}

	var rec types.Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Warnf("storage: sqlite backend dropping corrupt row for %q: %v", key, err)
		_, _ = db.ExecContext(ctx, `DELETE FROM endpoint_cache WHERE key = ?`, key)
		return nil, nil
	}
	return &rec, nil
}

// Set upserts the JSON-encoded record into the key's row.
func (s *SQLiteBackend) Set(ctx context.Context, key string, rec *types.Record) error {
	db, err := s.open()
	if err != nil {
		return nil
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		s.log.Errorf("storage: sqlite backend cannot encode record for %q: %v", key, err)
		return nil
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO endpoint_cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw))
	if err != nil {
		s.log.Errorf("storage: sqlite backend write for %q failed: %v", key, err)
	}
	return nil
}

// Remove deletes the row for key. Deleting a missing row is a no-op.
func (s *SQLiteBackend) Remove(ctx context.Context, key string) error {
	db, err := s.open()
	if err != nil {
		return nil
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM endpoint_cache WHERE key = ?`, key); err != nil {
		s.log.Errorf("storage: sqlite backend remove for %q failed: %v", key, err)
	}
	return nil
}

// ClearAll truncates this backend's table.
func (s *SQLiteBackend) ClearAll(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return nil
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM endpoint_cache`); err != nil {
		s.log.Errorf("storage: sqlite backend clear failed: %v", err)
	}
	return nil
}

// Close releases the database handle if it was ever opened.
func (s *SQLiteBackend) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
