// This package carries the ambient process signals the cache reacts to.
// The cache does not know (or care) where they come from: a desktop
// shell's focus events, a mobile lifecycle hook, a connectivity watcher;
// anything that can feed a Hub or implement Source works.

package signal

/*
Source delivers two kinds of events to the cache core:

  - Foreground fires when the process regains the user's attention.
    The core reacts by refetching every observed endpoint, respecting
    freshness (data that is still fresh stays put).

  - Online fires when network connectivity is restored. The core reacts
    by force-refetching every observed endpoint, because freshness
    timers cannot be trusted across a connectivity gap.

The core consumes a Source for its whole lifetime and stops reading on
Close.
*/
type Source interface {
	Foreground() <-chan struct{}
	Online() <-chan struct{}
}

/*
Hub is the Source programs feed by hand.

Notifications are level-style, not queue-style: firing the same signal
ten times before the core gets around to reading it collapses into one
delivery. NotifyForeground and NotifyOnline never block, so they are
safe to call from UI threads and event callbacks.
*/
type Hub struct {
	fg     chan struct{}
	online chan struct{}
}

// NewHub creates a hub with one pending slot per signal.
func NewHub() *Hub {
	return &Hub{
		fg:     make(chan struct{}, 1),
		online: make(chan struct{}, 1),
	}
}

func (h *Hub) Foreground() <-chan struct{} { return h.fg }

func (h *Hub) Online() <-chan struct{} { return h.online }

// NotifyForeground records that the process became visible again.
func (h *Hub) NotifyForeground() {
	select {
	case h.fg <- struct{}{}:
	default:
		// already pending, collapse
	}
}

// NotifyOnline records that connectivity was restored.
func (h *Hub) NotifyOnline() {
	select {
	case h.online <- struct{}{}:
	default:
		// already pending, collapse
	}
}
