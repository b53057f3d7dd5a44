package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/models/entities"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	// Shared cache keeps one in-memory database across pool connections
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

type recordingNotifier struct {
	published []Collection
}

func (n *recordingNotifier) Publish(_ context.Context, c Collection) error {
	n.published = append(n.published, c)
	return nil
}

func TestGuestCollection_CreateUpdateList(t *testing.T) {
	db := setupTestDB(t)
	notifier := &recordingNotifier{}
	guests := NewGuestCollection(db, WithNotifier(notifier))
	ctx := context.Background()

	created, err := guests.Create(ctx, entities.Guest{ReservationCode: "R1", Name: "Ana", Room: "5"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected store-assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Error("Expected server-assigned createdAt")
	}

	if err := guests.Update(ctx, created.ID, Fields{FieldIsChecked: true}); err != nil {
		t.Fatalf("Expected no error on update, got %v", err)
	}

	list, err := guests.ListOnce(ctx)
	if err != nil {
		t.Fatalf("Expected no error on list, got %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 guest, got %d", len(list))
	}
	if !list[0].IsChecked {
		t.Error("Expected guest to be checked in")
	}
	if list[0].Name != "Ana" {
		t.Errorf("Expected merge update to keep name, got %q", list[0].Name)
	}

	if len(notifier.published) != 2 {
		t.Errorf("Expected 2 change notifications, got %d", len(notifier.published))
	}
}

func TestGuestCollection_UpdateMissingGuest(t *testing.T) {
	db := setupTestDB(t)
	guests := NewGuestCollection(db)

	err := guests.Update(context.Background(), "missing", Fields{FieldIsChecked: true})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestGuestCollection_BatchWrite(t *testing.T) {
	db := setupTestDB(t)
	reg := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	guests := NewGuestCollection(db, WithMetrics(reg))
	ctx := context.Background()

	ops := make([]Op[entities.Guest], 0, 3)
	for i := 0; i < 3; i++ {
		ops = append(ops, CreateOp(entities.Guest{
			ReservationCode: fmt.Sprintf("R%d", i),
			Name:            fmt.Sprintf("Guest %d", i),
		}))
	}
	if err := guests.BatchWrite(ctx, ops); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	list, _ := guests.ListOnce(ctx)
	if len(list) != 3 {
		t.Fatalf("Expected 3 guests, got %d", len(list))
	}
	for i, g := range list {
		if want := fmt.Sprintf("R%d", i); g.ReservationCode != want {
			t.Errorf("Expected insertion order %s at %d, got %s", want, i, g.ReservationCode)
		}
	}

	deletes := []Op[entities.Guest]{DeleteOp[entities.Guest](list[0].ID), DeleteOp[entities.Guest](list[1].ID)}
	if err := guests.BatchWrite(ctx, deletes); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	list, _ = guests.ListOnce(ctx)
	if len(list) != 1 || list[0].ReservationCode != "R2" {
		t.Errorf("Expected only R2 to remain, got %+v", list)
	}
}

func TestGuestCollection_BatchTooLarge(t *testing.T) {
	db := setupTestDB(t)
	guests := NewGuestCollection(db)

	ops := make([]Op[entities.Guest], MaxBatchOps+1)
	for i := range ops {
		ops[i] = CreateOp(entities.Guest{ReservationCode: fmt.Sprintf("R%d", i), Name: "X"})
	}

	err := guests.BatchWrite(context.Background(), ops)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("Expected ErrBatchTooLarge, got %v", err)
	}

	list, _ := guests.ListOnce(context.Background())
	if len(list) != 0 {
		t.Errorf("Expected nothing written, got %d guests", len(list))
	}
}

func TestGuestCollection_SubscribeDeliversSnapshots(t *testing.T) {
	db := setupTestDB(t)
	guests := NewGuestCollection(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go guests.Run(ctx)

	snapshots := make(chan []entities.Guest, 16)
	unsubscribe := guests.Subscribe(func(s []entities.Guest) { snapshots <- s }, nil)
	defer unsubscribe()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case s := <-snapshots:
				if len(s) == n {
					return
				}
			case <-deadline:
				t.Fatalf("Timed out waiting for snapshot with %d guests", n)
			}
		}
	}

	waitFor(0)

	if _, err := guests.Create(ctx, entities.Guest{ReservationCode: "R1", Name: "Ana"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	waitFor(1)
}

func TestHistoryCollection_ServerTimestampAndOrder(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	history := NewHistoryCollection(db, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}))
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if _, err := history.Create(ctx, entities.HistoryLogEntry{TotalGuests: i, PendingCount: i}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	list, err := history.ListOnce(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(list))
	}
	if list[0].TotalGuests != 2 {
		t.Errorf("Expected newest entry first, got %+v", list[0])
	}
	if !list[0].DateLogged.After(list[1].DateLogged) {
		t.Error("Expected descending dateLogged")
	}
}

func TestChunk(t *testing.T) {
	items := make([]int, 601)
	chunks := Chunk(items, 300)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[2]) != 1 {
		t.Errorf("Expected last chunk of 1, got %d", len(chunks[2]))
	}

	if got := len(Chunk(items, 1000)); got != 3 {
		t.Errorf("Expected oversize chunk size to clamp to %d, got %d chunks", MaxBatchOps, got)
	}
	if got := len(Chunk([]int{}, 300)); got != 0 {
		t.Errorf("Expected no chunks for empty input, got %d", got)
	}
}

func TestHub_SubscribeDeliversCachedSnapshotBeforeReturning(t *testing.T) {
	h := newHub[string]()
	h.publish([]string{"a", "b"})

	var got []string
	unsubscribe := h.subscribe(func(s []string) { got = s }, nil)
	defer unsubscribe()

	if len(got) != 2 {
		t.Errorf("Expected cached snapshot delivered synchronously, got %v", got)
	}
}

func TestHub_SubscribeBeforeFirstPublishWaits(t *testing.T) {
	h := newHub[string]()

	delivered := make(chan []string, 1)
	unsubscribe := h.subscribe(func(s []string) { delivered <- s }, nil)
	defer unsubscribe()

	select {
	case s := <-delivered:
		t.Fatalf("Expected nothing before the first publish, got %v", s)
	default:
	}

	h.publish([]string{"a"})
	select {
	case s := <-delivered:
		if len(s) != 1 {
			t.Errorf("Expected 1 item, got %v", s)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for snapshot")
	}
}
