package cache_test

import (
	"os"
	"testing"
	"time"

	cache "github.com/krisalay/endpoint-cache"
	"github.com/krisalay/endpoint-cache/storage"
)

func TestFromEnvDefaults(t *testing.T) {
	// t.Setenv registers restoration; the unset makes the vars truly absent.
	for _, key := range []string{
		"ENDPOINT_CACHE_PROVIDER",
		"ENDPOINT_CACHE_DIR",
		"ENDPOINT_CACHE_REFETCH_AFTER",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	opts, err := cache.FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if opts.Provider != storage.Memory {
		t.Fatalf("expected memory provider by default, got %q", opts.Provider)
	}
	if opts.DefaultRefetchAfter != 0 {
		t.Fatalf("expected no default staleness window, got %v", opts.DefaultRefetchAfter)
	}
}

func TestFromEnvExplicit(t *testing.T) {
	t.Setenv("ENDPOINT_CACHE_PROVIDER", "sqlite")
	t.Setenv("ENDPOINT_CACHE_DIR", "/tmp/endpoint-cache-test")
	t.Setenv("ENDPOINT_CACHE_REFETCH_AFTER", "45s")

	opts, err := cache.FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if opts.Provider != storage.SQLite {
		t.Fatalf("expected sqlite provider, got %q", opts.Provider)
	}
	if opts.Dir != "/tmp/endpoint-cache-test" {
		t.Fatalf("expected explicit dir, got %q", opts.Dir)
	}
	if opts.DefaultRefetchAfter != 45*time.Second {
		t.Fatalf("expected 45s, got %v", opts.DefaultRefetchAfter)
	}
}

func TestFromEnvBadDuration(t *testing.T) {
	t.Setenv("ENDPOINT_CACHE_REFETCH_AFTER", "not-a-duration")

	if _, err := cache.FromEnv(); err == nil {
		t.Fatalf("expected error for a bad duration")
	}
}

func TestFromEnvOptionsBootACore(t *testing.T) {
	t.Setenv("ENDPOINT_CACHE_PROVIDER", "file")
	t.Setenv("ENDPOINT_CACHE_DIR", t.TempDir())
	t.Setenv("ENDPOINT_CACHE_REFETCH_AFTER", "1m")

	opts, err := cache.FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}

	core, err := cache.New(opts)
	if err != nil {
		t.Fatalf("new core: %v", err)
	}
	core.Close()
}
