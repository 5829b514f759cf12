package storage

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/krisalay/endpoint-cache/types"
)

/*
FileKV is the prefix-scoped key-value backend.

Each record is one file inside dir, named

	{prefix}{hex(key)}.json

holding the record as JSON text. The hex encoding keeps arbitrary
endpoint keys filesystem-safe; the prefix keeps this backend out of the
way of anything else living in the same directory. ClearAll only ever
touches files under its own prefix.

BEHAVIOR on bad input and bad media:
  - A payload that no longer decodes is deleted and reported as a miss,
    never as an error.
  - If the directory cannot be created or written at construction time
    (the capability probe fails), the backend degrades into a permanent
    no-op: every Get misses, every Set/Remove silently succeeds, and a
    single warning is logged. Callers keep working, just without
    persistence.
*/
type FileKV struct {
	dir    string
	prefix string
	log    types.Logger

	// disabled is set once, at construction, when the probe fails.
	disabled bool

	mu sync.Mutex
}

// NewFileKV creates a file backend rooted at dir. The probe for a usable
// medium happens here, not on first use.
func NewFileKV(dir, prefix string, log types.Logger) *FileKV {
	f := &FileKV{dir: dir, prefix: prefix, log: types.OrNop(log)}

	if err := f.probe(); err != nil {
		f.disabled = true
		f.log.Warnf("storage: file backend at %q unavailable, persistence disabled: %v", dir, err)
	}
	return f
}

// probe checks that the directory exists (creating it if needed) and
// accepts writes.
func (f *FileKV) probe() error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(f.dir, f.prefix+"probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, f.prefix+hex.EncodeToString([]byte(key))+".json")
}

// Get reads and decodes the record file for key. Corrupt entries are
// deleted and reported as a miss.
func (f *FileKV) Get(ctx context.Context, key string) (*types.Record, error) {
	if f.disabled {
		return nil, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			f.log.Errorf("storage: file backend read for %q failed: %v", key, err)
		}
		return nil, nil
	}

	var rec types.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// The entry is beyond repair. Drop it so the next write starts clean.
		f.log.Warnf("storage: file backend dropping corrupt entry for %q: %v", key, err)
		_ = os.Remove(f.path(key))
		return nil, nil
	}
	return &rec, nil
}

// Set encodes rec as JSON text and writes it to the key's file.
func (f *FileKV) Set(ctx context.Context, key string, rec *types.Record) error {
	if f.disabled {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.Marshal(rec)
	if err != nil {
		f.log.Errorf("storage: file backend cannot encode record for %q: %v", key, err)
		return nil
	}
	if err := os.WriteFile(f.path(key), raw, 0o644); err != nil {
		f.log.Errorf("storage: file backend write for %q failed: %v", key, err)
	}
	return nil
}

// Remove deletes the key's file. Missing files are a no-op.
func (f *FileKV) Remove(ctx context.Context, key string) error {
	if f.disabled {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		f.log.Errorf("storage: file backend remove for %q failed: %v", key, err)
	}
	return nil
}

// ClearAll deletes every file under this backend's prefix and nothing
// else in the directory.
func (f *FileKV) ClearAll(ctx context.Context) error {
	if f.disabled {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		f.log.Errorf("storage: file backend clear failed: %v", err)
		return nil
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), f.prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			f.log.Errorf("storage: file backend clear of %q failed: %v", e.Name(), err)
		}
	}
	return nil
}
