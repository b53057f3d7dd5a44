package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/store"
)

// GuestSource is the subscription half of the guest store.
type GuestSource interface {
	Subscribe(onSnapshot func([]entities.Guest), onError func(error)) store.Unsubscribe
}

// ConsoleStore is what a console needs from the guest store.
type ConsoleStore interface {
	GuestSource
	GuestUpdater
}

type ConsoleOptions struct {
	Clock       Clock
	AlertWindow time.Duration
	Metrics     *metrics.MetricsRegistry
}

// Console is one staff device's view session: its AppState, its alert
// flags and its roster subscription.
//
// Lifecycle is explicit. Activate subscribes, Close unsubscribes and cancels
// every pending alert timer. A closed console can be activated again.
type Console struct {
	ID string

	mu          sync.Mutex
	state       AppState
	unsubscribe store.Unsubscribe
	watchers    map[int]chan struct{}
	nextWatcher int

	// tapMu serializes taps so two quick taps see each other's alert.
	tapMu sync.Mutex

	source  GuestSource
	alerts  *AlertTracker
	machine *Machine
	deriver *Deriver
	metrics *metrics.MetricsRegistry
}

func NewConsole(id string, guests ConsoleStore, deriver *Deriver, opts ConsoleOptions) *Console {
	alerts := NewAlertTracker(opts.Clock, opts.AlertWindow)
	c := &Console{
		ID:       id,
		state:    NewAppState(),
		watchers: make(map[int]chan struct{}),
		source:   guests,
		alerts:   alerts,
		machine:  NewMachine(guests, alerts, opts.Metrics),
		deriver:  deriver,
		metrics:  opts.Metrics,
	}
	alerts.OnChange(func(string, bool) { c.notify() })
	return c
}

// Activate subscribes to the roster. It is a no-op on an active console.
func (c *Console) Activate() {
	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	unsubscribe := c.source.Subscribe(c.onSnapshot, c.onError)

	c.mu.Lock()
	if c.unsubscribe != nil {
		c.mu.Unlock()
		unsubscribe()
		return
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	c.metrics.ConsoleOpened()
	logging.WithConsole(c.ID).Debugw("Console activated")
}

// Close tears the console down: unsubscribe, stop alert timers, release
// watchers.
func (c *Console) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	watchers := c.watchers
	c.watchers = make(map[int]chan struct{})
	c.mu.Unlock()

	c.alerts.StopAll()
	for _, ch := range watchers {
		close(ch)
	}
	if unsubscribe != nil {
		unsubscribe()
		c.metrics.ConsoleClosed()
		logging.WithConsole(c.ID).Debugw("Console closed")
	}
}

func (c *Console) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unsubscribe != nil
}

// State returns a copy of the console's inputs.
func (c *Console) State() AppState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View derives the current projection.
func (c *Console) View() RosterView {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	return c.deriver.Derive(state.Guests, c.alerts.Snapshot(), state.Sort, state.Term)
}

func (c *Console) SetSort(key string) RosterView {
	c.update(func(s AppState) AppState { return s.WithSort(key) })
	return c.View()
}

func (c *Console) SetTerm(term string) RosterView {
	c.update(func(s AppState) AppState { return s.WithTerm(term) })
	return c.View()
}

// Tap runs the state machine for guestID as last seen in this console's
// snapshot.
func (c *Console) Tap(ctx context.Context, guestID string) (Transition, error) {
	c.tapMu.Lock()
	defer c.tapMu.Unlock()

	state := c.State()
	if !state.Loaded {
		return Transition{GuestID: guestID}, ErrRosterLoading
	}
	guest, ok := state.Find(guestID)
	if !ok {
		return Transition{GuestID: guestID}, fmt.Errorf("%w: %s", ErrGuestNotFound, guestID)
	}
	return c.machine.Tap(ctx, guest)
}

// Watch returns a channel that receives a signal whenever the view may have
// changed, plus a function that stops watching. The channel is closed when
// the console closes.
func (c *Console) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	id := c.nextWatcher
	c.nextWatcher++
	c.watchers[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		if _, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(ch)
		}
		c.mu.Unlock()
	}
}

func (c *Console) onSnapshot(guests []entities.Guest) {
	present := make(map[string]struct{}, len(guests))
	for _, g := range guests {
		present[g.ID] = struct{}{}
	}
	c.alerts.Retain(present)

	c.update(func(s AppState) AppState { return s.WithSnapshot(guests) })
}

func (c *Console) onError(err error) {
	logging.WithConsole(c.ID).Warnw("Roster subscription error, keeping last snapshot", "error", err.Error())
	c.update(func(s AppState) AppState { return s.WithSubscriptionError(err) })
}

func (c *Console) update(fn func(AppState) AppState) {
	c.mu.Lock()
	c.state = fn(c.state)
	c.mu.Unlock()
	c.notify()
}

func (c *Console) notify() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
