package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/krisalay/endpoint-cache/types"
)

/*
Backend is the persistence contract every storage implementation follows.

One record per endpoint key. The core resolves exactly one backend per
endpoint at definition time and talks to it through this interface only.

Error policy (unified, on purpose): every backend shipped with this
module swallows its own faults, logs them, and resolves absent / no-op.
The interface still carries error returns so that external
implementations may propagate instead; the core tolerates both, treating
a Get error as a miss and logging Set/Remove errors.
*/
type Backend interface {

	/*
		Get returns the stored record for key, or nil when the key was
		never stored, was removed, or the payload is unreadable.

		A missing key is NOT an error. Backends never fail a read just
		because there is nothing to read.
	*/
	Get(ctx context.Context, key string) (*types.Record, error)

	/*
		Set writes or overwrites the record at key. The call returns
		once the effect is durable for this backend's medium.
	*/
	Set(ctx context.Context, key string, rec *types.Record) error

	/*
		Remove deletes the entry if present. Removing a key that does
		not exist is a no-op, never an error.
	*/
	Remove(ctx context.Context, key string) error
}

/*
Clearer is an optional capability: wiping every entry this backend's
namespace owns, without disturbing unrelated data sharing the same
underlying medium. A prefix-scoped backend must only delete keys under
its own prefix; a table-scoped backend only its own table.
*/
type Clearer interface {
	ClearAll(ctx context.Context) error
}

/*
Provider is the closed set of built-in backend kinds.

A provider tag is resolved to a concrete Backend exactly once, at
endpoint definition time, and never re-resolved afterwards.
*/
type Provider string

const (
	// Memory is the volatile in-process backend. The default.
	Memory Provider = "memory"

	// File is the prefix-scoped, file-per-entry backend.
	File Provider = "file"

	// Bolt is the transactional object-database backend (bbolt).
	Bolt Provider = "bolt"

	// SQLite is the embedded relational single-table backend.
	SQLite Provider = "sqlite"
)

// Namespace every built-in persistent backend scopes itself to.
const (
	filePrefix = "endpoint-cache-"
	boltFile   = "endpoint-cache.bolt"
	sqliteFile = "endpoint-cache.sqlite"
)

/*
Resolve maps a provider tag to a concrete backend rooted at dir.

dir only matters for the persistent providers; the memory provider
ignores it. An unknown tag is a configuration mistake and is the one
place this package returns an error for misuse.
*/
func Resolve(p Provider, dir string, log types.Logger) (Backend, error) {
	switch p {
	case Memory, "":
		return NewMemory(), nil
	case File:
		return NewFileKV(dir, filePrefix, log), nil
	case Bolt:
		return NewBolt(filepath.Join(dir, boltFile), log), nil
	case SQLite:
		return NewSQLite(filepath.Join(dir, sqliteFile), log), nil
	default:
		return nil, fmt.Errorf("storage: unknown provider %q", p)
	}
}
