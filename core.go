package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/endpoint-cache/api"
	"github.com/krisalay/endpoint-cache/signal"
	"github.com/krisalay/endpoint-cache/storage"
	"github.com/krisalay/endpoint-cache/types"
)

// ErrUnknownEndpoint is carried in the state handed to a subscriber of
// a key that was never defined.
var ErrUnknownEndpoint = errors.New("cache: endpoint not defined")

// subscriber is one listener with a handle for cancellation.
type subscriber struct {
	id int
	fn types.Listener
}

/*
endpoint is one registry entry: a named unit of remote data with one
fetcher and one resolved storage backend.

The storage binding is resolved once, at definition time, and never
re-resolved. Subscribers and the notifier survive a redefinition;
everything else is replaced.
*/
type endpoint struct {
	fetch        types.Fetcher
	refetchAfter time.Duration
	store        storage.Backend
	state        types.EndpointState
	subs         []subscriber
	nextID       int
	notify       *notifier
}

// listeners returns the current subscriber callbacks in subscribe order.
// Caller must hold the core lock.
func (e *endpoint) listeners() []types.Listener {
	out := make([]types.Listener, len(e.subs))
	for i, s := range e.subs {
		out[i] = s.fn
	}
	return out
}

/*
Core is the data-fetching orchestrator.

It owns the endpoint registry and coordinates everything around it:
seeding state from storage, deciding when cached data is stale enough to
refetch, making sure at most one fetch per key is ever in flight,
writing results through to storage, and notifying subscribers of every
transition in order.

All registry mutation happens under one mutex, and every notification is
enqueued while that mutex is held, so the delivery order for a key
always matches the transition order. The actual listener calls run on
per-endpoint dispatch goroutines, never under the lock.

A Core is constructed explicitly and owns its external listeners: Close
stops the signal loop and the dispatchers, so building and closing many
cores leaks nothing.
*/
type Core struct {
	mu        sync.Mutex
	endpoints map[string]*endpoint

	opts    Options
	log     types.Logger
	metrics types.Metrics

	// store is the core-level default backend endpoints inherit.
	store storage.Backend

	// resolved memoizes provider-tag resolution so two endpoints asking
	// for the same provider share one backend (and one underlying file).
	resolved map[storage.Provider]storage.Backend

	// owned are the backends this core opened itself and must close.
	owned []io.Closer

	// sf guarantees at most one fetch cycle in flight per key.
	// Concurrent refetches of the same key share the one invocation.
	sf singleflight.Group

	done      chan struct{}
	closeOnce sync.Once
}

var _ api.Cache = (*Core)(nil)

// New constructs a Core from opts. The only error is an unknown
// provider tag.
func New(opts Options) (*Core, error) {
	c := &Core{
		endpoints: make(map[string]*endpoint),
		opts:      opts,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		resolved:  make(map[storage.Provider]storage.Backend),
		done:      make(chan struct{}),
	}
	if c.log == nil {
		c.log = types.NewStdLogger()
	}
	if c.metrics == nil {
		c.metrics = types.NoopMetrics{}
	}

	if opts.Backend != nil {
		c.store = opts.Backend
	} else {
		st, err := c.resolve(opts.Provider)
		if err != nil {
			return nil, err
		}
		c.store = st
	}

	if opts.Signals != nil {
		go c.signalLoop(opts.Signals)
	}
	return c, nil
}

// resolve maps a provider tag to a backend, memoized per core so that
// repeated tags share one instance. Caller-supplied instances never pass
// through here.
func (c *Core) resolve(p storage.Provider) (storage.Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if st, ok := c.resolved[p]; ok {
		return st, nil
	}
	st, err := storage.Resolve(p, c.opts.Dir, c.log)
	if err != nil {
		return nil, err
	}
	c.resolved[p] = st
	if cl, ok := st.(io.Closer); ok {
		c.owned = append(c.owned, cl)
	}
	return st, nil
}

// backendFor applies the precedence: endpoint instance > endpoint
// provider > core default.
func (c *Core) backendFor(opts api.EndpointOptions) (storage.Backend, error) {
	if opts.Backend != nil {
		return opts.Backend, nil
	}
	if opts.Provider != "" {
		return c.resolve(opts.Provider)
	}
	return c.store, nil
}

/*
Define registers (or redefines) an endpoint.

The effective backend is resolved here, once. Any record it already
holds for key seeds the initial state, so a process restart comes back
up showing last-known data before any fetch runs.
*/
func (c *Core) Define(ctx context.Context, key string, fetch types.Fetcher, opts api.EndpointOptions) error {
	if key == "" {
		return errors.New("cache: endpoint key must not be empty")
	}
	if fetch == nil {
		return errors.New("cache: endpoint fetcher must not be nil")
	}

	store, err := c.backendFor(opts)
	if err != nil {
		return err
	}

	refetchAfter := opts.RefetchAfter
	if refetchAfter == 0 {
		refetchAfter = c.opts.DefaultRefetchAfter
	}

	// Seed from whatever the backend remembers. A fault here is just an
	// empty cache.
	var seeded types.EndpointState
	rec, err := store.Get(ctx, key)
	if err != nil {
		c.log.Warnf("cache: seeding %q from storage failed: %v", key, err)
	} else if rec != nil {
		seeded.Data = rec.Data
		seeded.LastUpdated = rec.LastUpdated
	}

	c.mu.Lock()
	ep, exists := c.endpoints[key]
	if exists {
		c.log.Warnf("cache: endpoint %q redefined, overwriting previous definition", key)
		ep.fetch = fetch
		ep.refetchAfter = refetchAfter
		ep.store = store
		ep.state = seeded
	} else {
		ep = &endpoint{
			fetch:        fetch,
			refetchAfter: refetchAfter,
			store:        store,
			state:        seeded,
			notify:       newNotifier(),
		}
		c.endpoints[key] = ep
	}
	// Normally nobody is subscribed yet; after a redefinition the
	// surviving subscribers learn about the re-seeded state here.
	ep.notify.publish(ep.state.Snapshot(), ep.listeners())
	c.mu.Unlock()

	return nil
}

/*
Subscribe attaches fn to an endpoint and immediately delivers the
current state. If the data is missing or stale and no fetch is in
flight, a background refetch starts: forced when there is no data at
all, unforced when merely stale by timer so the window is re-validated.
*/
func (c *Core) Subscribe(key string, fn types.Listener) func() {
	c.mu.Lock()
	ep, ok := c.endpoints[key]
	if !ok {
		c.mu.Unlock()
		c.log.Warnf("cache: subscribe to unknown endpoint %q", key)
		fn(types.EndpointState{IsError: true, Err: ErrUnknownEndpoint})
		return func() {}
	}

	id := ep.nextID
	ep.nextID++
	ep.subs = append(ep.subs, subscriber{id: id, fn: fn})

	st := ep.state
	ep.notify.publish(st.Snapshot(), []types.Listener{fn})

	needFetch, force := false, false
	if !st.IsLoading {
		switch {
		case st.LastUpdated.IsZero():
			needFetch, force = true, true
		case ep.refetchAfter > 0 && time.Since(st.LastUpdated) >= ep.refetchAfter:
			needFetch = true
		}
	}
	c.mu.Unlock()

	if needFetch {
		go c.Refetch(context.Background(), key, force)
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range ep.subs {
			if s.id == id {
				ep.subs = append(ep.subs[:i], ep.subs[i+1:]...)
				break
			}
		}
	}
}

/*
Refetch runs the fetch cycle for key, returning when it completes.

The whole cycle runs inside singleflight: however many callers pile onto
the same key, the fetcher runs once and everyone returns together when
it finishes. A caller that arrives while a fetch is in flight is logged
as dropped: its force flag is not honored, and the in-flight fetch's
outcome is authoritative.
*/
func (c *Core) Refetch(ctx context.Context, key string, force bool) {
	c.mu.Lock()
	ep, ok := c.endpoints[key]
	if !ok {
		c.mu.Unlock()
		c.log.Warnf("cache: refetch of unknown endpoint %q", key)
		return
	}
	if ep.state.IsLoading {
		c.log.Warnf("cache: refetch of %q dropped, a fetch is already in flight", key)
	}
	c.mu.Unlock()

	_, _, _ = c.sf.Do(key, func() (any, error) {
		c.refetchCycle(ctx, key, force)
		return nil, nil
	})
}

// refetchCycle is the body of one fetch attempt. Runs at most once at a
// time per key (singleflight).
func (c *Core) refetchCycle(ctx context.Context, key string, force bool) {
	c.mu.Lock()
	ep, ok := c.endpoints[key]
	if !ok {
		c.mu.Unlock()
		return
	}

	// Freshness gate. Only a real timer makes data fresh; an endpoint
	// without a staleness window refetches whenever asked.
	st := ep.state
	if !force && !st.LastUpdated.IsZero() &&
		ep.refetchAfter > 0 && time.Since(st.LastUpdated) < ep.refetchAfter {
		// Still fresh: re-broadcast unchanged so late subscribers are
		// covered, and skip the fetch entirely.
		ep.notify.publish(st.Snapshot(), ep.listeners())
		c.mu.Unlock()
		c.metrics.Hit()
		return
	}

	c.metrics.Miss()
	c.metrics.Fetch()

	ep.state.IsLoading = true
	fetch := ep.fetch
	store := ep.store
	ep.notify.publish(ep.state.Snapshot(), ep.listeners())
	c.mu.Unlock()

	data, err := fetch(ctx)

	c.mu.Lock()
	if err != nil {
		// Failures never advance freshness: LastUpdated stays put and
		// nothing is written to storage. Existing data remains visible.
		c.metrics.FetchError()
		ep.state.IsLoading = false
		ep.state.IsError = true
		ep.state.Err = err
		ep.notify.publish(ep.state.Snapshot(), ep.listeners())
		c.mu.Unlock()
		c.log.Errorf("cache: fetch for %q failed: %v", key, err)
		return
	}

	now := time.Now()
	ep.state = types.EndpointState{Data: data, LastUpdated: now}

	// Write-through before the success broadcast.
	if serr := store.Set(ctx, key, &types.Record{Data: data, LastUpdated: now}); serr != nil {
		c.log.Errorf("cache: write-through for %q failed: %v", key, serr)
	}

	ep.notify.publish(ep.state.Snapshot(), ep.listeners())
	c.mu.Unlock()
}

/*
Invalidate removes the stored record for key and clears the in-memory
data, timestamp and error, broadcasting the cleared state. It never
fetches; the next Subscribe or Refetch will.
*/
func (c *Core) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	ep, ok := c.endpoints[key]
	if !ok {
		c.mu.Unlock()
		c.log.Warnf("cache: invalidate of unknown endpoint %q", key)
		return
	}

	store := ep.store
	ep.state.Data = nil
	ep.state.LastUpdated = time.Time{}
	ep.state.IsError = false
	ep.state.Err = nil
	ep.notify.publish(ep.state.Snapshot(), ep.listeners())
	c.mu.Unlock()

	c.metrics.Invalidate()
	if err := store.Remove(ctx, key); err != nil {
		c.log.Errorf("cache: removing stored record for %q failed: %v", key, err)
	}
}

// State returns an independent snapshot of the endpoint's state. For an
// unknown key it returns an empty, non-error state and logs a warning.
func (c *Core) State(key string) types.EndpointState {
	c.mu.Lock()
	ep, ok := c.endpoints[key]
	if !ok {
		c.mu.Unlock()
		c.log.Warnf("cache: state of unknown endpoint %q", key)
		return types.EndpointState{}
	}
	st := ep.state
	c.mu.Unlock()

	return st.Snapshot()
}

// signalLoop reacts to ambient process signals until Close.
func (c *Core) signalLoop(src signal.Source) {
	for {
		select {
		case <-c.done:
			return
		case <-src.Foreground():
			// Back in the foreground: refresh what people are looking
			// at, but trust the freshness timers.
			c.refetchObserved(false)
		case <-src.Online():
			// Connectivity returned: the timers cannot be trusted
			// across the gap, refetch unconditionally.
			c.refetchObserved(true)
		}
	}
}

// refetchObserved refetches every endpoint with at least one subscriber.
func (c *Core) refetchObserved(force bool) {
	c.mu.Lock()
	keys := make([]string, 0, len(c.endpoints))
	for key, ep := range c.endpoints {
		if len(ep.subs) > 0 {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			c.Refetch(context.Background(), k, force)
		}(key)
	}
	wg.Wait()
}

/*
Close shuts the core down: the signal loop stops, every endpoint's
notifier drains and exits, and the backends this core opened itself are
closed. Caller-supplied backend instances are left alone.

In-flight fetches are not cancelled (there is no cancellation primitive)
but their notifications after Close are dropped.
*/
func (c *Core) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		notifiers := make([]*notifier, 0, len(c.endpoints))
		for _, ep := range c.endpoints {
			notifiers = append(notifiers, ep.notify)
		}
		owned := c.owned
		c.mu.Unlock()

		for _, n := range notifiers {
			n.close()
		}
		for _, cl := range owned {
			if err := cl.Close(); err != nil {
				c.log.Errorf("cache: closing storage backend failed: %v", err)
			}
		}
	})
}
