package types

import "context"

/*
Fetcher is the contract between the cache and the remote source of truth.

It is supplied once, when the endpoint is defined, and called whenever
the core decides the cached value is stale enough to be worth replacing.

	1. Core decides the endpoint is stale (or a refetch is forced)
	2. Core calls the Fetcher
	3. Fetcher talks to the network / DB / wherever the data lives
	4. Core writes the result through to the endpoint's storage backend
	5. Core broadcasts the new state to subscribers

The fetcher may fail for any reason. The core converts the error into
the endpoint's error state; it never escapes as a panic or as an error
return from the public API.

The cache imposes no timeout. A fetcher that never returns leaves its
endpoint loading forever, so callers who need a bound should derive it
from ctx inside the fetcher.
*/
type Fetcher func(ctx context.Context) (any, error)
