/* window.go
 * Sliding time-window call counter used to bound calls to the Geoguessr API.
 * Stale entries are evicted lazily whenever the window is inspected.
 */

package ratewindow

import (
	"sync"
	"time"

	"github.com/itbasis/go-clock"
)

// Window counts timestamps inside a rolling lifetime, up to a fixed capacity.
// Safe for use from multiple goroutines (the keep-alive tick and on-demand
// commands can both touch the fetch path).
type Window struct {
	mu       sync.Mutex
	clock    clock.Clock
	lifetime time.Duration
	capacity int
	entries  []time.Time
}

// New returns an empty window. A nil clk falls back to the wall clock.
func New(lifetime time.Duration, capacity int, clk clock.Clock) *Window {
	if clk == nil {
		clk = clock.New()
	}
	return &Window{clock: clk, lifetime: lifetime, capacity: capacity}
}

// TryEnqueue evicts expired entries and appends ts if the window has room.
// Returns false when the window is full.
func (w *Window) TryEnqueue(ts time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict()
	if len(w.entries) >= w.capacity {
		return false
	}
	w.entries = append(w.entries, ts)
	return true
}

// IsFull reports whether the window holds capacity or more live entries.
func (w *Window) IsFull() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict()
	return len(w.entries) >= w.capacity
}

// Count returns the number of live entries.
func (w *Window) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict()
	return len(w.entries)
}

// Oldest returns the earliest timestamp still in the window, or the current
// time when the window is empty so cooldown displays never underflow.
func (w *Window) Oldest() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict()
	if len(w.entries) == 0 {
		return w.clock.Now()
	}
	return w.entries[0]
}

// Cooldown returns how long until the oldest entry ages out of the window.
// Zero when the window is empty.
func (w *Window) Cooldown() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.evict()
	if len(w.entries) == 0 {
		return 0
	}
	return w.lifetime - w.clock.Now().Sub(w.entries[0])
}

// Lifetime returns the configured rolling window duration.
func (w *Window) Lifetime() time.Duration {
	return w.lifetime
}

// evict drops entries older than the lifetime. Callers must hold w.mu.
func (w *Window) evict() {
	now := w.clock.Now()
	for len(w.entries) > 0 && now.Sub(w.entries[0]) > w.lifetime {
		w.entries = w.entries[1:]
	}
}
