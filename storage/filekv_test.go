package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/endpoint-cache/storage"
	"github.com/krisalay/endpoint-cache/types"
)

func newFileKV(t *testing.T) (*storage.FileKV, string) {
	t.Helper()
	dir := t.TempDir()
	return storage.NewFileKV(dir, "cache-", types.NopLogger{}), dir
}

// entryFiles lists the backend's own files in dir.
func entryFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "cache-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestFileKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	be, _ := newFileKV(t)

	now := time.Now()
	rec := &types.Record{
		Data:        map[string]any{"name": "alice"},
		LastUpdated: now,
	}
	require.NoError(t, be.Set(ctx, "user/profile", rec))

	got, err := be.Get(ctx, "user/profile")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, rec.Data, got.Data)
	require.True(t, got.LastUpdated.Equal(now))
}

func TestFileKVGetMissing(t *testing.T) {
	ctx := context.Background()
	be, _ := newFileKV(t)

	got, err := be.Get(ctx, "never-stored")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFileKVCorruptEntryIsDropped(t *testing.T) {
	ctx := context.Background()
	be, dir := newFileKV(t)

	require.NoError(t, be.Set(ctx, "user", &types.Record{Data: "x"}))

	files := entryFiles(t, dir)
	require.Len(t, files, 1)
	path := filepath.Join(dir, files[0])
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	// Corrupt payload reads as a miss, never as an error.
	got, err := be.Get(ctx, "user")
	require.NoError(t, err)
	require.Nil(t, got)

	// And the offending file is gone.
	require.Empty(t, entryFiles(t, dir))
}

func TestFileKVClearAllIsPrefixScoped(t *testing.T) {
	ctx := context.Background()
	be, dir := newFileKV(t)

	require.NoError(t, be.Set(ctx, "a", &types.Record{Data: "1"}))
	require.NoError(t, be.Set(ctx, "b", &types.Record{Data: "2"}))

	// Unrelated data sharing the directory must survive.
	foreign := filepath.Join(dir, "unrelated.txt")
	require.NoError(t, os.WriteFile(foreign, []byte("keep me"), 0o644))

	require.NoError(t, be.ClearAll(ctx))

	require.Empty(t, entryFiles(t, dir))
	_, err := os.Stat(foreign)
	require.NoError(t, err)
}

func TestFileKVUnavailableMediumDegrades(t *testing.T) {
	ctx := context.Background()

	// Point the backend at a path that cannot become a directory.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0o644))

	be := storage.NewFileKV(blocker, "cache-", types.NopLogger{})

	// Every call is a quiet no-op, not a failure.
	require.NoError(t, be.Set(ctx, "user", &types.Record{Data: "x"}))

	got, err := be.Get(ctx, "user")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, be.Remove(ctx, "user"))
	require.NoError(t, be.ClearAll(ctx))
}
