package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"infinite-experiment/poolroster/internal/models/entities"
)

func newTestConsole() (*Console, *fakeGuestStore, *fakeClock) {
	src := &fakeGuestStore{}
	clock := &fakeClock{}
	c := NewConsole("console-1", src, NewDeriver("es"), ConsoleOptions{Clock: clock})
	return c, src, clock
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for view change")
	}
}

func TestConsole_ActivateIsIdempotent(t *testing.T) {
	c, src, _ := newTestConsole()

	c.Activate()
	c.Activate()

	if src.subscribed != 1 {
		t.Errorf("Expected one subscription, got %d", src.subscribed)
	}
	if !c.Active() {
		t.Error("Expected console to be active")
	}

	c.Close()
	if src.unsubscribed != 1 {
		t.Errorf("Expected one unsubscribe, got %d", src.unsubscribed)
	}
	if c.Active() {
		t.Error("Expected console to be inactive after close")
	}

	c.Activate()
	if src.subscribed != 2 {
		t.Error("Expected a closed console to resubscribe")
	}
}

func TestConsole_SnapshotDrivesView(t *testing.T) {
	c, src, _ := newTestConsole()
	c.Activate()
	defer c.Close()

	ch, stop := c.Watch()
	defer stop()

	src.push([]entities.Guest{
		{ID: "1", Name: "Beto", Room: "5", IsChecked: true},
		{ID: "2", Name: "Ana", Room: "5"},
	})
	waitSignal(t, ch)

	view := c.View()
	if got := names(view); len(got) != 2 || got[0] != "Ana" {
		t.Errorf("Expected name-sorted view, got %v", got)
	}
	if view.Entered != 1 {
		t.Errorf("Expected 1 entered, got %d", view.Entered)
	}

	view = c.SetTerm("ana")
	if got := names(view); len(got) != 1 || got[0] != "Ana" {
		t.Errorf("Expected only Ana, got %v", got)
	}

	c.SetTerm("")
	view = c.SetSort("checked")
	if view.Sort != SortByCheckedDesc || view.Guests[0].Name != "Beto" {
		t.Errorf("Expected checked-first order, got %s %v", view.Sort, names(view))
	}
	view = c.SetSort("checked")
	if view.Sort != SortByCheckedAsc {
		t.Errorf("Expected second toggle to flip order, got %s", view.Sort)
	}
}

func TestConsole_TapFlow(t *testing.T) {
	c, src, clock := newTestConsole()
	c.Activate()
	defer c.Close()
	ctx := context.Background()

	src.push([]entities.Guest{{ID: "1", Name: "Ana", IsChecked: true}})

	tr, err := c.Tap(ctx, "1")
	if err != nil {
		t.Fatal(err)
	}
	if tr.To != StatePendingUncheck {
		t.Fatalf("Expected pending uncheck, got %s", tr.To)
	}
	if !c.View().Guests[0].Alert {
		t.Error("Expected alert visible in view")
	}

	clock.fireAll()
	if c.View().Guests[0].Alert {
		t.Error("Expected alert gone after timeout")
	}
	if len(src.recorded()) != 0 {
		t.Error("Expected no write on timeout")
	}

	if _, err := c.Tap(ctx, "missing"); !errors.Is(err, ErrGuestNotFound) {
		t.Errorf("Expected ErrGuestNotFound, got %v", err)
	}
}

func TestConsole_AlertDroppedWhenGuestLeavesRoster(t *testing.T) {
	c, src, clock := newTestConsole()
	c.Activate()
	defer c.Close()

	src.push([]entities.Guest{{ID: "1", Name: "Ana", IsChecked: true}})
	if _, err := c.Tap(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}

	src.push([]entities.Guest{{ID: "2", Name: "Beto"}})

	if c.alerts.Has("1") {
		t.Error("Expected alert for removed guest to be dropped")
	}
	if clock.pending() != 0 {
		t.Error("Expected removed guest's timer to be stopped")
	}
}

func TestConsole_SubscriptionErrorKeepsLastSnapshot(t *testing.T) {
	c, src, _ := newTestConsole()
	c.Activate()
	defer c.Close()

	src.push([]entities.Guest{{ID: "1", Name: "Ana"}})
	src.fail(errors.New("listener dropped"))

	state := c.State()
	if !state.Stale || state.LastErr != "listener dropped" {
		t.Errorf("Expected stale state with error, got %+v", state)
	}
	if len(c.View().Guests) != 1 {
		t.Error("Expected last snapshot to remain visible")
	}

	src.push([]entities.Guest{{ID: "1", Name: "Ana"}})
	if c.State().Stale {
		t.Error("Expected fresh snapshot to clear stale marker")
	}
}

func TestConsole_CloseStopsTimersAndWatchers(t *testing.T) {
	c, src, clock := newTestConsole()
	c.Activate()

	ch, _ := c.Watch()
	src.push([]entities.Guest{{ID: "1", Name: "Ana", IsChecked: true}})
	if _, err := c.Tap(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}

	c.Close()

	if clock.pending() != 0 {
		t.Error("Expected all alert timers stopped on close")
	}
	for range ch {
	}
}

func TestConsole_TapBeforeFirstSnapshot(t *testing.T) {
	c, src, _ := newTestConsole()
	c.Activate()
	defer c.Close()

	if c.State().Loaded {
		t.Fatal("Expected console unloaded before any snapshot")
	}
	if _, err := c.Tap(context.Background(), "1"); !errors.Is(err, ErrRosterLoading) {
		t.Errorf("Expected ErrRosterLoading, got %v", err)
	}

	src.push(nil)
	if !c.State().Loaded {
		t.Error("Expected an empty snapshot to mark the console loaded")
	}
	if _, err := c.Tap(context.Background(), "1"); !errors.Is(err, ErrGuestNotFound) {
		t.Errorf("Expected ErrGuestNotFound once loaded, got %v", err)
	}
}
