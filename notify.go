package cache

import (
	"sync"

	"github.com/krisalay/endpoint-cache/types"
)

// notice carries one state snapshot to the subscribers that were
// attached at the moment the transition happened.
type notice struct {
	state   types.EndpointState
	targets []types.Listener
}

/*
notifier delivers state notices for ONE endpoint, in order.

Why a queue and a worker instead of calling listeners inline:
the core publishes while holding its registry lock (that is what makes
the delivery order match the transition order), so listener code must
run somewhere the lock is not held, otherwise a listener calling back
into the cache would deadlock.

The queue is unbounded so that publish never blocks the core. A slow
listener therefore delays later notices for its own endpoint only.

Each listener gets its own deep snapshot of the state at delivery time;
no two subscribers ever share a Data value.
*/
type notifier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []notice
	closed bool
	done   chan struct{}
}

func newNotifier() *notifier {
	n := &notifier{done: make(chan struct{})}
	n.cond = sync.NewCond(&n.mu)
	go n.worker()
	return n
}

// publish enqueues one notice. Never blocks; after close it is a no-op.
func (n *notifier) publish(st types.EndpointState, targets []types.Listener) {
	if len(targets) == 0 {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.queue = append(n.queue, notice{state: st, targets: targets})
	n.cond.Signal()
}

// worker drains the queue one notice at a time, cloning the state per
// listener. Runs until close, then finishes whatever is still queued.
func (n *notifier) worker() {
	for {
		n.mu.Lock()
		for len(n.queue) == 0 && !n.closed {
			n.cond.Wait()
		}
		if len(n.queue) == 0 {
			n.mu.Unlock()
			close(n.done)
			return
		}
		next := n.queue[0]
		n.queue = n.queue[1:]
		n.mu.Unlock()

		for _, fn := range next.targets {
			fn(next.state.Snapshot())
		}
	}
}

// close stops accepting notices and waits for the pending ones to be
// delivered.
func (n *notifier) close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		<-n.done
		return
	}
	n.closed = true
	n.cond.Signal()
	n.mu.Unlock()

	<-n.done
}
