package roster

import (
	"context"
	"sync"
	"time"

	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/store"
)

// fakeClock fires timers only when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fire runs the given timer if it is still pending.
func (c *fakeClock) fire(t *fakeTimer) {
	c.mu.Lock()
	if t.stopped || t.fired {
		c.mu.Unlock()
		return
	}
	t.fired = true
	c.mu.Unlock()
	t.f()
}

// fireAll runs every pending timer.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	pending := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range pending {
		c.fire(t)
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

type write struct {
	id     string
	fields store.Fields
}

// fakeGuestStore records writes and lets tests push snapshots by hand.
type fakeGuestStore struct {
	mu           sync.Mutex
	writes       []write
	updateErr    error
	onSnapshot   func([]entities.Guest)
	onError      func(error)
	subscribed   int
	unsubscribed int
}

func (s *fakeGuestStore) Update(_ context.Context, id string, fields store.Fields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.writes = append(s.writes, write{id: id, fields: fields})
	return nil
}

func (s *fakeGuestStore) Subscribe(onSnapshot func([]entities.Guest), onError func(error)) store.Unsubscribe {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSnapshot = onSnapshot
	s.onError = onError
	s.subscribed++
	return func() {
		s.mu.Lock()
		s.unsubscribed++
		s.mu.Unlock()
	}
}

func (s *fakeGuestStore) push(guests []entities.Guest) {
	s.mu.Lock()
	fn := s.onSnapshot
	s.mu.Unlock()
	fn(guests)
}

func (s *fakeGuestStore) fail(err error) {
	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	fn(err)
}

func (s *fakeGuestStore) recorded() []write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]write(nil), s.writes...)
}
