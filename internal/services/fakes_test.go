package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/store"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

// recordingGuestStore keeps guests in memory and records every BatchWrite.
type recordingGuestStore struct {
	mu          sync.Mutex
	guests      []entities.Guest
	batches     []int
	failOnBatch int
	nextID      int
}

var _ store.GuestStore = (*recordingGuestStore)(nil)

func (s *recordingGuestStore) Create(_ context.Context, g entities.Guest) (entities.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	g.ID = fmt.Sprintf("g-%d", s.nextID)
	s.guests = append(s.guests, g)
	return g, nil
}

func (s *recordingGuestStore) Update(context.Context, string, store.Fields) error {
	return nil
}

func (s *recordingGuestStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remove(id)
	return nil
}

func (s *recordingGuestStore) BatchWrite(_ context.Context, ops []store.Op[entities.Guest]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(ops) > store.MaxBatchOps {
		return store.ErrBatchTooLarge
	}
	if s.failOnBatch > 0 && len(s.batches)+1 == s.failOnBatch {
		return fmt.Errorf("commit rejected")
	}
	s.batches = append(s.batches, len(ops))

	for _, op := range ops {
		switch op.Kind {
		case store.OpCreate:
			s.nextID++
			g := op.Doc
			g.ID = fmt.Sprintf("g-%d", s.nextID)
			s.guests = append(s.guests, g)
		case store.OpDelete:
			s.remove(op.ID)
		}
	}
	return nil
}

func (s *recordingGuestStore) Subscribe(func([]entities.Guest), func(error)) store.Unsubscribe {
	return func() {}
}

func (s *recordingGuestStore) ListOnce(context.Context) ([]entities.Guest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Guest(nil), s.guests...), nil
}

func (s *recordingGuestStore) remove(id string) {
	for i, g := range s.guests {
		if g.ID == id {
			s.guests = append(s.guests[:i], s.guests[i+1:]...)
			return
		}
	}
}

// memoryHistoryStore is a minimal history log.
type memoryHistoryStore struct {
	mu      sync.Mutex
	entries []entities.HistoryLogEntry
	batches []int
	nextID  int
}

var _ store.HistoryStore = (*memoryHistoryStore)(nil)

func (s *memoryHistoryStore) Create(_ context.Context, e entities.HistoryLogEntry) (entities.HistoryLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = fmt.Sprintf("h-%d", s.nextID)
	s.entries = append(s.entries, e)
	return e, nil
}

func (s *memoryHistoryStore) Update(context.Context, string, store.Fields) error {
	return store.ErrNotFound
}

func (s *memoryHistoryStore) Delete(context.Context, string) error {
	return nil
}

func (s *memoryHistoryStore) BatchWrite(_ context.Context, ops []store.Op[entities.HistoryLogEntry]) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, len(ops))
	drop := make(map[string]bool, len(ops))
	for _, op := range ops {
		if op.Kind == store.OpDelete {
			drop[op.ID] = true
		}
	}
	kept := s.entries[:0]
	for _, e := range s.entries {
		if !drop[e.ID] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

func (s *memoryHistoryStore) Subscribe(onSnapshot func([]entities.HistoryLogEntry), _ func(error)) store.Unsubscribe {
	s.mu.Lock()
	snapshot := append([]entities.HistoryLogEntry(nil), s.entries...)
	s.mu.Unlock()
	onSnapshot(snapshot)
	return func() {}
}

func (s *memoryHistoryStore) ListOnce(context.Context) ([]entities.HistoryLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.HistoryLogEntry(nil), s.entries...), nil
}

// noLock never blocks.
type noLock struct{ acquired int }

func (l *noLock) Acquire(context.Context) (func(), error) {
	l.acquired++
	return func() {}, nil
}

func candidates(n int, prefix string) []entities.Candidate {
	out := make([]entities.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, entities.Candidate{
			ReservationCode: fmt.Sprintf("%s%04d", prefix, i),
			Name:            fmt.Sprintf("Guest %d", i),
			Room:            fmt.Sprintf("%d", 100+i),
		})
	}
	return out
}
