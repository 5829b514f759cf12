package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/krisalay/endpoint-cache/signal"
	"github.com/krisalay/endpoint-cache/storage"
	"github.com/krisalay/endpoint-cache/types"
)

/*
Options configure a Core at construction.

The zero value is usable: a memory-backed cache with no default
staleness window, logging to stderr, no metrics and no process signals.
*/
type Options struct {

	// Provider picks the built-in backend kind endpoints inherit when
	// they don't choose their own. Defaults to memory.
	Provider storage.Provider

	// Backend pins a concrete default backend instance and takes
	// precedence over Provider. The caller keeps ownership: Close will
	// not close it.
	Backend storage.Backend

	// Dir is where the persistent providers keep their files.
	// Ignored by the memory provider.
	Dir string

	// DefaultRefetchAfter is the staleness window endpoints inherit
	// when their own RefetchAfter is zero. Zero means data never goes
	// stale by timer.
	DefaultRefetchAfter time.Duration

	// Logger receives warnings and fault diagnostics.
	// Nil means stderr via the standard library logger.
	Logger types.Logger

	// Metrics receives cache lifecycle events. Nil means none.
	Metrics types.Metrics

	// Signals is the source of foreground / connectivity-restored
	// events. Nil means the cache reacts to neither.
	Signals signal.Source
}

// envConfig is the environment surface, parsed by caarlos0/env.
type envConfig struct {
	Provider     string        `env:"ENDPOINT_CACHE_PROVIDER" envDefault:"memory"`
	Dir          string        `env:"ENDPOINT_CACHE_DIR"`
	RefetchAfter time.Duration `env:"ENDPOINT_CACHE_REFETCH_AFTER"`
}

/*
FromEnv builds Options from the environment:

	ENDPOINT_CACHE_PROVIDER       memory | file | bolt | sqlite
	ENDPOINT_CACHE_DIR            directory for persistent providers
	ENDPOINT_CACHE_REFETCH_AFTER  Go duration, e.g. 30s, 5m

When no directory is set, persistent providers land under the user
cache directory.
*/
func FromEnv() (Options, error) {
	var c envConfig
	if err := env.Parse(&c); err != nil {
		return Options{}, err
	}

	dir := c.Dir
	if dir == "" {
		if base, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(base, "endpoint-cache")
		}
	}

	provider := storage.Provider(c.Provider)
	if provider == "" {
		provider = storage.Memory
	}

	return Options{
		Provider:            provider,
		Dir:                 dir,
		DefaultRefetchAfter: c.RefetchAfter,
	}, nil
}
