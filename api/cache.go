package api

import (
	"context"
	"time"

	"github.com/krisalay/endpoint-cache/storage"
	"github.com/krisalay/endpoint-cache/types"
)

/*
Cache defines the PUBLIC API of the endpoint cache.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (storage resolution, freshness tracking, fetch
coordination, subscriber notification) are hidden behind this interface.
*/
type Cache interface {

	/*
		Define registers (or redefines) a named remote-data endpoint.

		BEHAVIOR:
		-------------------
		1. Resolves the effective storage backend for this endpoint,
		   exactly once (endpoint override > core default > memory)

		2. Loads any previously cached record for key from that backend
		   and seeds the endpoint's initial state from it

		3. If key already existed, the entry is overwritten with a
		   warning; existing subscribers survive and receive the
		   re-seeded state

		Errors are returned only for misuse: an empty key or a nil
		fetcher. Storage faults during seeding are logged and treated
		as an empty cache.
	*/
	Define(ctx context.Context, key string, fetch types.Fetcher, opts EndpointOptions) error

	/*
		Subscribe attaches a listener to an endpoint.

		BEHAVIOR:
		---------
		- Unknown key: the listener is invoked once, synchronously,
		  with an error-flagged empty state; the returned cancel func
		  is a no-op

		- Known key: the listener joins the subscriber set and is
		  immediately delivered the current state. Then, if no fetch is
		  in flight and the data is missing or stale, a background
		  refetch starts (forced only when there is no data at all)

		The returned cancel func removes the listener. It does not
		cancel an in-flight fetch and does not tear down the endpoint.
	*/
	Subscribe(key string, fn types.Listener) (cancel func())

	/*
		Refetch runs the fetch cycle for an endpoint.

		BEHAVIOR:
		---------
		- Unknown key: warning, no-op
		- A refetch arriving while one is in flight for the same key is
		  dropped with a warning; the caller still returns only once
		  the in-flight fetch completes
		- force=false and data still fresh: current state is
		  re-broadcast unchanged (covers late subscribers), no fetch
		- Otherwise: loading state is broadcast, the fetcher runs, a
		  success is written through to storage before the final
		  broadcast, a failure is broadcast as error state

		Fetch failures live in the endpoint state. Refetch never
		returns them and never panics because a fetcher misbehaved.
	*/
	Refetch(ctx context.Context, key string, force bool)

	/*
		Invalidate discards an endpoint's cached value.

		BEHAVIOR:
		---------
		- Removes the record from the endpoint's storage backend
		- Clears data, timestamp and error in memory
		- Broadcasts the cleared state
		- Does NOT fetch; the next Subscribe or Refetch will
	*/
	Invalidate(ctx context.Context, key string)

	/*
		State returns an independent snapshot of an endpoint's state.
		Mutating the returned value affects nothing.

		For an unknown key it returns an empty, non-error state and
		logs a warning.
	*/
	State(key string) types.EndpointState

	/*
		Close shuts the cache down: stops listening to process signals,
		drains and stops every endpoint's notification dispatcher, and
		closes any storage backends the cache itself opened.

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}

/*
EndpointOptions are the per-endpoint knobs passed to Define.
The zero value is valid: inherit everything from the core.
*/
type EndpointOptions struct {

	// RefetchAfter is how old a successful fetch may get before the
	// endpoint counts as stale. Zero inherits the core default; if that
	// is also zero, data never goes stale by timer (only a missing
	// value or a forced refetch triggers a fetch).
	RefetchAfter time.Duration

	// Provider picks a built-in backend kind for this endpoint.
	Provider storage.Provider

	// Backend pins a concrete backend instance for this endpoint and
	// takes precedence over Provider. The caller keeps ownership:
	// Close will not close it.
	Backend storage.Backend
}
