package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/krisalay/endpoint-cache/storage"
	"github.com/krisalay/endpoint-cache/types"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	be := storage.NewMemory()

	now := time.Now()
	rec := &types.Record{
		Data:        map[string]any{"name": "alice"},
		LastUpdated: now,
	}
	require.NoError(t, be.Set(ctx, "user", rec))

	got, err := be.Get(ctx, "user")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, rec.Data, got.Data)
	require.True(t, got.LastUpdated.Equal(now))
}

func TestMemoryGetMissing(t *testing.T) {
	ctx := context.Background()
	be := storage.NewMemory()

	got, err := be.Get(ctx, "never-stored")
	require.NoError(t, err)
	require.Nil(t, got)
}

// The backend's core guarantee: no aliasing in either direction.
func TestMemoryNoAliasing(t *testing.T) {
	ctx := context.Background()
	be := storage.NewMemory()

	submitted := &types.Record{
		Data:        map[string]any{"name": "alice"},
		LastUpdated: time.Now(),
	}
	require.NoError(t, be.Set(ctx, "user", submitted))

	// Mutating the submitted value must not reach the stored one.
	submitted.Data.(map[string]any)["name"] = "mallory"

	got, err := be.Get(ctx, "user")
	require.NoError(t, err)
	require.Equal(t, "alice", got.Data.(map[string]any)["name"])

	// Mutating a retrieved value must not reach the stored one either.
	got.Data.(map[string]any)["name"] = "mallory"

	again, err := be.Get(ctx, "user")
	require.NoError(t, err)
	require.Equal(t, "alice", again.Data.(map[string]any)["name"])
}

func TestMemoryRemove(t *testing.T) {
	ctx := context.Background()
	be := storage.NewMemory()

	require.NoError(t, be.Set(ctx, "user", &types.Record{Data: "x"}))
	require.NoError(t, be.Remove(ctx, "user"))

	got, err := be.Get(ctx, "user")
	require.NoError(t, err)
	require.Nil(t, got)

	// Removing a missing key is a no-op.
	require.NoError(t, be.Remove(ctx, "user"))
}

func TestMemoryClearAll(t *testing.T) {
	ctx := context.Background()
	be := storage.NewMemory()

	require.NoError(t, be.Set(ctx, "a", &types.Record{Data: "1"}))
	require.NoError(t, be.Set(ctx, "b", &types.Record{Data: "2"}))
	require.NoError(t, be.ClearAll(ctx))

	for _, key := range []string{"a", "b"} {
		got, err := be.Get(ctx, key)
		require.NoError(t, err)
		require.Nil(t, got)
	}
}
