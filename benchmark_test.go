package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	cache "github.com/krisalay/endpoint-cache"
	"github.com/krisalay/endpoint-cache/api"
	"github.com/krisalay/endpoint-cache/types"
)

func newBenchmarkCore(b *testing.B) *cache.Core {
	b.Helper()
	core, err := cache.New(cache.Options{Logger: types.NopLogger{}})
	if err != nil {
		b.Fatalf("new core: %v", err)
	}
	b.Cleanup(core.Close)
	return core
}

//
// ================= SNAPSHOT BENCH =================
//

func BenchmarkStateSnapshot(b *testing.B) {
	ctx := context.Background()
	core := newBenchmarkCore(b)

	core.Define(ctx, "user", func(ctx context.Context) (any, error) {
		return map[string]any{"name": "alice", "tags": []any{"a", "b", "c"}}, nil
	}, api.EndpointOptions{})
	core.Refetch(ctx, "user", true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.State("user")
	}
}

//
// ================= FRESH REFETCH BENCH =================
//

func BenchmarkRefetchFresh(b *testing.B) {
	ctx := context.Background()
	core := newBenchmarkCore(b)

	core.Define(ctx, "user", func(ctx context.Context) (any, error) {
		return "v", nil
	}, api.EndpointOptions{RefetchAfter: time.Hour})
	core.Refetch(ctx, "user", true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.Refetch(ctx, "user", false)
	}
}

//
// ================= SUBSCRIPTION CHURN BENCH =================
//

func BenchmarkSubscribeUnsubscribe(b *testing.B) {
	ctx := context.Background()
	core := newBenchmarkCore(b)

	core.Define(ctx, "user", func(ctx context.Context) (any, error) {
		return "v", nil
	}, api.EndpointOptions{RefetchAfter: time.Hour})
	core.Refetch(ctx, "user", true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cancel := core.Subscribe("user", func(types.EndpointState) {})
		cancel()
	}
}

//
// ================= MANY ENDPOINTS BENCH =================
//

func BenchmarkStateAcrossEndpoints(b *testing.B) {
	ctx := context.Background()
	core := newBenchmarkCore(b)

	keys := make([]string, 100)
	for i := range keys {
		keys[i] = fmt.Sprintf("endpoint-%d", i)
		core.Define(ctx, keys[i], func(ctx context.Context) (any, error) {
			return "v", nil
		}, api.EndpointOptions{})
		core.Refetch(ctx, keys[i], true)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		core.State(keys[i%len(keys)])
	}
}
