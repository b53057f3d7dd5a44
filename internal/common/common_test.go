package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/roster"
	"infinite-experiment/poolroster/internal/store"
)

type nopGuests struct {
	unsubscribed int
}

func (*nopGuests) Update(context.Context, string, store.Fields) error { return nil }

func (g *nopGuests) Subscribe(func([]entities.Guest), func(error)) store.Unsubscribe {
	return func() { g.unsubscribed++ }
}

func TestLocalReplaceLock_Serializes(t *testing.T) {
	lock := NewLocalReplaceLock()

	release, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Expected first acquire to succeed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := lock.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected second acquire to time out, got %v", err)
	}

	release()
	release() // second release is a no-op

	again, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Expected acquire after release, got %v", err)
	}
	again()
}

func TestMemoryTokenLedger_ConsumeOnce(t *testing.T) {
	ledger := NewMemoryTokenLedger()
	ctx := context.Background()

	if used, _ := ledger.IsUsed(ctx, "jti-1"); used {
		t.Fatal("Expected fresh token unused")
	}
	if ok, _ := ledger.Consume(ctx, "jti-1", time.Minute); !ok {
		t.Fatal("Expected first consume to succeed")
	}
	if ok, _ := ledger.Consume(ctx, "jti-1", time.Minute); ok {
		t.Error("Expected second consume to fail")
	}
	if used, _ := ledger.IsUsed(ctx, "jti-1"); !used {
		t.Error("Expected token marked used")
	}
}

func TestConsoleRegistry_Lifecycle(t *testing.T) {
	guests := &nopGuests{}
	created := 0
	registry := NewConsoleRegistry(time.Minute, func(id string) *roster.Console {
		created++
		return roster.NewConsole(id, guests, roster.NewDeriver("es"), roster.ConsoleOptions{})
	})

	first := registry.GetOrCreate("gate")
	if !first.Active() {
		t.Fatal("Expected new console to be active")
	}
	if registry.GetOrCreate("gate") != first || created != 1 {
		t.Error("Expected the same console for a known id")
	}
	if got, ok := registry.Get("gate"); !ok || got != first {
		t.Error("Expected Get to find the console")
	}

	registry.Remove("gate")
	if first.Active() {
		t.Error("Expected removed console to be closed")
	}
	if guests.unsubscribed != 1 {
		t.Errorf("Expected one unsubscribe, got %d", guests.unsubscribed)
	}
	if _, ok := registry.Get("gate"); ok {
		t.Error("Expected console forgotten after remove")
	}

	a := registry.GetOrCreate("a")
	b := registry.GetOrCreate("b")
	registry.CloseAll()
	if a.Active() || b.Active() || registry.Len() != 0 {
		t.Error("Expected CloseAll to close and forget every console")
	}
}

func TestConsoleRegistry_IdleEvictionClosesConsole(t *testing.T) {
	registry := NewConsoleRegistry(10*time.Millisecond, func(id string) *roster.Console {
		return roster.NewConsole(id, &nopGuests{}, roster.NewDeriver("es"), roster.ConsoleOptions{})
	})
	defer registry.CloseAll()

	stale := registry.GetOrCreate("gate")
	time.Sleep(20 * time.Millisecond)

	fresh := registry.GetOrCreate("gate")
	if fresh == stale {
		t.Fatal("Expected an expired console to be replaced")
	}
	if stale.Active() {
		t.Error("Expected expired console to be closed")
	}
	if !fresh.Active() {
		t.Error("Expected replacement console to be active")
	}
}
