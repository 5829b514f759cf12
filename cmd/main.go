package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cache "github.com/krisalay/endpoint-cache"
	"github.com/krisalay/endpoint-cache/api"
	"github.com/krisalay/endpoint-cache/signal"
	"github.com/krisalay/endpoint-cache/storage"
	"github.com/krisalay/endpoint-cache/types"
)

// ================= REMOTE SOURCE =================

// RemoteAPI stands in for the network. It can be switched off to show
// how fetch failures surface.
type RemoteAPI struct {
	mu      sync.Mutex
	weather string
	down    bool
	calls   int
}

func (r *RemoteAPI) SetWeather(w string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weather = w
}

func (r *RemoteAPI) SetDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *RemoteAPI) FetchWeather(ctx context.Context) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	fmt.Println("REMOTE → fetch #", r.calls)
	if r.down {
		return nil, errors.New("network unreachable")
	}
	return r.weather, nil
}

// ================= METRICS =================

type Metrics struct {
	mu          sync.Mutex
	hits        int
	misses      int
	fetches     int
	fetchErrors int
	invalidates int
}

func (m *Metrics) Hit()        { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()       { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Fetch()      { m.mu.Lock(); m.fetches++; m.mu.Unlock() }
func (m *Metrics) FetchError() { m.mu.Lock(); m.fetchErrors++; m.mu.Unlock() }
func (m *Metrics) Invalidate() { m.mu.Lock(); m.invalidates++; m.mu.Unlock() }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS         : %d\n", m.hits)
	fmt.Printf("MISSES       : %d\n", m.misses)
	fmt.Printf("FETCHES      : %d\n", m.fetches)
	fmt.Printf("FETCH ERRORS : %d\n", m.fetchErrors)
	fmt.Printf("INVALIDATES  : %d\n", m.invalidates)
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	opts, err := cache.FromEnv()
	if err != nil {
		fmt.Println("CONFIG → bad environment:", err)
		return
	}

	remote := &RemoteAPI{}
	remote.SetWeather("sunny, 23°C")

	metrics := &Metrics{}
	hub := signal.NewHub()

	opts.Metrics = metrics
	opts.Signals = hub

	fmt.Println("PROVIDER        :", opts.Provider)
	fmt.Println("DIR             :", opts.Dir)
	fmt.Println("REFETCH AFTER   : 2s")

	core, err := cache.New(opts)
	if err != nil {
		fmt.Println("BOOT → failed:", err)
		return
	}

	// ====================================================
	fmt.Println("\n==================== 1) DEFINE + SUBSCRIBE ====================")

	core.Define(ctx, "weather", remote.FetchWeather, api.EndpointOptions{
		RefetchAfter: 2 * time.Second,
		Provider:     storage.Memory,
	})

	cancel := core.Subscribe("weather", func(st types.EndpointState) {
		switch {
		case st.IsError:
			fmt.Println("STATE  → error:", st.Err)
		case st.IsLoading:
			fmt.Println("STATE  → loading…")
		case st.HasData():
			fmt.Println("STATE  → data:", st.Data)
		default:
			fmt.Println("STATE  → empty")
		}
	})

	time.Sleep(200 * time.Millisecond)

	// ====================================================
	fmt.Println("\n==================== 2) FRESH REFETCH (NO-OP) ====================")

	core.Refetch(ctx, "weather", false)
	time.Sleep(100 * time.Millisecond)

	// ====================================================
	fmt.Println("\n==================== 3) NETWORK FLAP ====================")

	remote.SetDown(true)
	core.Refetch(ctx, "weather", true)
	time.Sleep(100 * time.Millisecond)

	remote.SetDown(false)
	remote.SetWeather("rain, 14°C")
	hub.NotifyOnline()
	time.Sleep(200 * time.Millisecond)

	// ====================================================
	fmt.Println("\n==================== 4) INVALIDATE ====================")

	core.Invalidate(ctx, "weather")
	time.Sleep(100 * time.Millisecond)

	fmt.Println("SNAPSHOT → data:", core.State("weather").Data)

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	cancel()
	core.Close()
	fmt.Println("SYSTEM → cache closed cleanly")
}
