package signal_test

import (
	"testing"

	"github.com/krisalay/endpoint-cache/signal"
)

func TestHubDeliversEachSignal(t *testing.T) {
	hub := signal.NewHub()

	hub.NotifyForeground()
	select {
	case <-hub.Foreground():
	default:
		t.Fatalf("expected a pending foreground signal")
	}

	hub.NotifyOnline()
	select {
	case <-hub.Online():
	default:
		t.Fatalf("expected a pending online signal")
	}
}

func TestHubCollapsesRepeats(t *testing.T) {
	hub := signal.NewHub()

	// Firing repeatedly before anyone reads must neither block nor queue.
	for i := 0; i < 10; i++ {
		hub.NotifyOnline()
	}

	<-hub.Online()
	select {
	case <-hub.Online():
		t.Fatalf("repeated notifications must collapse into one delivery")
	default:
	}
}

func TestHubSignalsAreIndependent(t *testing.T) {
	hub := signal.NewHub()

	hub.NotifyForeground()
	select {
	case <-hub.Online():
		t.Fatalf("foreground must not leak into online")
	default:
	}
	<-hub.Foreground()
}
