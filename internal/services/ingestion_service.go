package services

import (
	"context"
	"fmt"
	"strings"

	"infinite-experiment/poolroster/internal/config"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/store"
)

// ReplaceLock serializes roster-wide writes. Release must be safe to call
// more than once.
type ReplaceLock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// IngestionResult summarizes one upload.
type IngestionResult struct {
	Mode     constants.UploadMode
	Received int
	Added    int
	// Skipped counts candidates dropped as duplicates, either of the
	// current roster (append) or of an earlier row in the same batch.
	Skipped  int
	Removed  int
	Archived *entities.HistoryLogEntry
}

// IngestionService merges parsed spreadsheet batches into the shared roster.
type IngestionService struct {
	guests    store.GuestStore
	history   *HistoryService
	lock      ReplaceLock
	batchSize int
	metrics   *metrics.MetricsRegistry
}

func NewIngestionService(
	guests store.GuestStore,
	history *HistoryService,
	lock ReplaceLock,
	batchSize int,
	m *metrics.MetricsRegistry,
) *IngestionService {
	return &IngestionService{
		guests:    guests,
		history:   history,
		lock:      lock,
		batchSize: config.ClampBatchSize(batchSize),
		metrics:   m,
	}
}

// Ingest dispatches on mode.
func (s *IngestionService) Ingest(ctx context.Context, mode constants.UploadMode, candidates []entities.Candidate) (*IngestionResult, error) {
	switch mode {
	case constants.UploadModeFull:
		return s.ReplaceAll(ctx, candidates)
	case constants.UploadModeAppend:
		return s.Append(ctx, candidates)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

// ReplaceAll archives a summary of the current roster, deletes every guest
// and writes the candidates as a new generation.
//
// Deletes and inserts are committed in sequential sub-batches. A failure
// partway returns a *PartialBatchError and leaves what was committed.
func (s *IngestionService) ReplaceAll(ctx context.Context, candidates []entities.Candidate) (*IngestionResult, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyBatch
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire replace lock: %w", err)
	}
	defer release()

	result := &IngestionResult{Mode: constants.UploadModeFull, Received: len(candidates)}

	current, err := s.guests.ListOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current roster: %w", err)
	}

	// Counts come from the roster being replaced, not from the new batch.
	entry, err := s.history.AppendSummary(ctx, current)
	if err != nil {
		return nil, err
	}
	result.Archived = &entry

	deletes := make([]store.Op[entities.Guest], 0, len(current))
	for _, g := range current {
		deletes = append(deletes, store.DeleteOp[entities.Guest](g.ID))
	}
	result.Removed, err = commitBatches(ctx, s.guests, StageDelete, deletes, s.batchSize)
	if err != nil {
		return result, err
	}

	fresh, skipped := dedupeCandidates(candidates, nil)
	result.Skipped = skipped
	result.Added, err = commitBatches(ctx, s.guests, StageInsert, newGuestOps(fresh, false), s.batchSize)
	s.metrics.GuestsIngested(string(constants.UploadModeFull), result.Added)
	s.metrics.GuestsSkipped(skipped)
	if err != nil {
		return result, err
	}

	logging.Info("Roster replaced",
		"removed", result.Removed,
		"added", result.Added,
		"skipped", result.Skipped,
		"archived_total", entry.TotalGuests,
		"archived_entered", entry.EnteredCount,
	)
	return result, nil
}

// Append adds candidates whose reservation code is not on the roster yet,
// tagged as new arrivals. An empty batch is a no-op.
//
// Append holds the same lock as ReplaceAll so its duplicate check never
// runs against a half-replaced roster.
func (s *IngestionService) Append(ctx context.Context, candidates []entities.Candidate) (*IngestionResult, error) {
	result := &IngestionResult{Mode: constants.UploadModeAppend, Received: len(candidates)}
	if len(candidates) == 0 {
		return result, nil
	}

	release, err := s.lock.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire replace lock: %w", err)
	}
	defer release()

	current, err := s.guests.ListOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read current roster: %w", err)
	}

	existing := make(map[string]struct{}, len(current))
	for _, g := range current {
		existing[normalizeCode(g.ReservationCode)] = struct{}{}
	}

	fresh, skipped := dedupeCandidates(candidates, existing)
	result.Skipped = skipped
	result.Added, err = commitBatches(ctx, s.guests, StageInsert, newGuestOps(fresh, true), s.batchSize)
	s.metrics.GuestsIngested(string(constants.UploadModeAppend), result.Added)
	s.metrics.GuestsSkipped(skipped)
	if err != nil {
		return result, err
	}

	logging.Info("Guests appended",
		"received", result.Received,
		"added", result.Added,
		"skipped", result.Skipped,
	)
	return result, nil
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// dedupeCandidates drops candidates whose code is blank, already in
// existing, or seen earlier in the batch. The first occurrence wins.
func dedupeCandidates(candidates []entities.Candidate, existing map[string]struct{}) ([]entities.Candidate, int) {
	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]entities.Candidate, 0, len(candidates))
	for _, c := range candidates {
		code := normalizeCode(c.ReservationCode)
		if code == "" {
			continue
		}
		if _, dup := existing[code]; dup {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		c.ReservationCode = code
		fresh = append(fresh, c)
	}
	return fresh, len(candidates) - len(fresh)
}

func newGuestOps(candidates []entities.Candidate, newArrival bool) []store.Op[entities.Guest] {
	ops := make([]store.Op[entities.Guest], 0, len(candidates))
	for _, c := range candidates {
		ops = append(ops, store.CreateOp(entities.Guest{
			ReservationCode: c.ReservationCode,
			Name:            c.Name,
			Room:            c.Room,
			IsChecked:       false,
			IsNewArrival:    newArrival,
		}))
	}
	return ops
}
