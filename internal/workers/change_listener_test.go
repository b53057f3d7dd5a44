package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"infinite-experiment/poolroster/internal/store"
)

type countingRefresher struct {
	name store.Collection
	mu   sync.Mutex
	n    int
}

func (c *countingRefresher) Name() store.Collection { return c.name }

func (c *countingRefresher) Refresh() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingRefresher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// scriptedSource plays one batch of notifications per Listen call.
type scriptedSource struct {
	mu      sync.Mutex
	rounds  [][]store.Collection
	calls   int
	dropErr error
}

func (s *scriptedSource) Listen(ctx context.Context, onChange func(store.Collection)) error {
	s.mu.Lock()
	round := s.calls
	s.calls++
	s.mu.Unlock()

	if round < len(s.rounds) {
		for _, c := range s.rounds[round] {
			onChange(c)
		}
		return s.dropErr
	}
	<-ctx.Done()
	return nil
}

func TestChangeListener_DispatchesByCollection(t *testing.T) {
	guests := &countingRefresher{name: store.Guests}
	history := &countingRefresher{name: store.History}
	l := NewChangeListener(nil, time.Millisecond, guests, history)

	l.dispatch(store.Guests)
	l.dispatch(store.Guests)
	l.dispatch(store.Collection("unknown"))

	if guests.count() != 2 {
		t.Errorf("Expected 2 guest refreshes, got %d", guests.count())
	}
	if history.count() != 0 {
		t.Errorf("Expected no history refresh, got %d", history.count())
	}
}

func TestChangeListener_ReconnectsAndRefreshesEverything(t *testing.T) {
	guests := &countingRefresher{name: store.Guests}
	history := &countingRefresher{name: store.History}
	source := &scriptedSource{
		rounds:  [][]store.Collection{{store.Guests}},
		dropErr: errors.New("connection reset"),
	}
	l := NewChangeListener(source, time.Millisecond, guests, history)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Start(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for history.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for refresh after reconnect")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done

	if guests.count() < 2 {
		t.Errorf("Expected notification plus reconnect refresh for guests, got %d", guests.count())
	}
}
