package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in an endpoint's lifecycle. The core
calls these methods whenever the corresponding event happens.
*/
type Metrics interface {

	// Hit is called when a refetch is skipped because the cached value
	// is still fresh.
	Hit()

	// Miss is called when the cached value is stale or absent and a
	// fetch is about to run.
	Miss()

	// Fetch is called when a fetcher is actually invoked.
	Fetch()

	// FetchError is called when a fetcher returns an error.
	FetchError()

	// Invalidate is called when an endpoint's cached value is
	// explicitly discarded.
	Invalidate()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

If someone does not care about metrics, the cache still works without
nil pointer checks or `if metrics != nil` conditions everywhere, so we
provide a default implementation that ignores all metric events.
*/
type NoopMetrics struct{}

// All methods below intentionally do nothing.
// This satisfies the Metrics interface without side effects.

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Fetch()      {}
func (NoopMetrics) FetchError() {}
func (NoopMetrics) Invalidate() {}
