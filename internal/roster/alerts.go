package roster

import (
	"sync"
	"time"

	"infinite-experiment/poolroster/internal/logging"
)

// DefaultAlertWindow is how long an un-check-in request waits for its
// confirming tap.
const DefaultAlertWindow = 3 * time.Second

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Production code uses RealClock; tests inject a
// clock they can advance by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

// AlertTracker holds the console-local alert flags and their expiry timers,
// keyed by guest id.
//
// Every raise stores a fresh *alertEntry. An expiring timer clears the flag
// only if the entry it was created for is still the current one, so a timer
// from an earlier raise can never clear an alert set by a later tap.
type AlertTracker struct {
	mu       sync.Mutex
	clock    Clock
	window   time.Duration
	entries  map[string]*alertEntry
	onChange func(guestID string, raised bool)
}

type alertEntry struct {
	timer Timer
}

func NewAlertTracker(clock Clock, window time.Duration) *AlertTracker {
	if clock == nil {
		clock = RealClock()
	}
	if window <= 0 {
		window = DefaultAlertWindow
	}
	return &AlertTracker{
		clock:   clock,
		window:  window,
		entries: make(map[string]*alertEntry),
	}
}

// OnChange registers the callback fired after every flag change. Expiry
// fires it from the timer goroutine.
func (a *AlertTracker) OnChange(fn func(guestID string, raised bool)) {
	a.mu.Lock()
	a.onChange = fn
	a.mu.Unlock()
}

// Raise sets the flag for guestID and (re)arms its expiry timer.
func (a *AlertTracker) Raise(guestID string) {
	a.mu.Lock()
	if prev, ok := a.entries[guestID]; ok {
		prev.timer.Stop()
	}
	entry := &alertEntry{}
	a.entries[guestID] = entry
	entry.timer = a.clock.AfterFunc(a.window, func() { a.expire(guestID, entry) })
	notify := a.onChange
	a.mu.Unlock()

	if notify != nil {
		notify(guestID, true)
	}
}

// Clear removes the flag and cancels its timer. It reports whether a flag
// was present.
func (a *AlertTracker) Clear(guestID string) bool {
	a.mu.Lock()
	entry, ok := a.entries[guestID]
	if ok {
		entry.timer.Stop()
		delete(a.entries, guestID)
	}
	notify := a.onChange
	a.mu.Unlock()

	if ok && notify != nil {
		notify(guestID, false)
	}
	return ok
}

func (a *AlertTracker) Has(guestID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.entries[guestID]
	return ok
}

// Snapshot returns the current flags as a set.
func (a *AlertTracker) Snapshot() map[string]bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]bool, len(a.entries))
	for id := range a.entries {
		out[id] = true
	}
	return out
}

// Retain drops flags for guests that are no longer in the roster.
func (a *AlertTracker) Retain(present map[string]struct{}) {
	a.mu.Lock()
	for id, entry := range a.entries {
		if _, ok := present[id]; !ok {
			entry.timer.Stop()
			delete(a.entries, id)
		}
	}
	a.mu.Unlock()
}

// StopAll cancels every pending timer and forgets every flag.
func (a *AlertTracker) StopAll() {
	a.mu.Lock()
	for id, entry := range a.entries {
		entry.timer.Stop()
		delete(a.entries, id)
	}
	a.mu.Unlock()
}

func (a *AlertTracker) expire(guestID string, entry *alertEntry) {
	a.mu.Lock()
	if a.entries[guestID] != entry {
		a.mu.Unlock()
		return
	}
	delete(a.entries, guestID)
	notify := a.onChange
	a.mu.Unlock()

	logging.Debug("Un-check-in request expired", "guest_id", guestID)
	if notify != nil {
		notify(guestID, false)
	}
}
