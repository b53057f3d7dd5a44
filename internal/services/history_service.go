package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"infinite-experiment/poolroster/internal/config"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/store"
)

const (
	trendLabelLayout = "02/01 15:04"
	exportDateLayout = "02/01/2006 15:04:05"
	exportHeader     = `"Fecha";"Total Lista";"Ingresados";"Pendientes"`
)

// HistoryService archives roster summaries and serves them back for
// listing, trend charts and CSV export. Entries are never updated.
type HistoryService struct {
	history   store.HistoryStore
	batchSize int
	metrics   *metrics.MetricsRegistry
	location  *time.Location
}

func NewHistoryService(history store.HistoryStore, batchSize int, m *metrics.MetricsRegistry) *HistoryService {
	return &HistoryService{
		history:   history,
		batchSize: config.ClampBatchSize(batchSize),
		metrics:   m,
		location:  time.Local,
	}
}

// AppendSummary stores the counts of roster as a new entry. The store
// assigns the timestamp.
func (s *HistoryService) AppendSummary(ctx context.Context, roster []entities.Guest) (entities.HistoryLogEntry, error) {
	summary := entities.SummarizeRoster(roster)

	entry, err := s.history.Create(ctx, entities.HistoryLogEntry{
		TotalGuests:  summary.TotalGuests,
		EnteredCount: summary.EnteredCount,
		PendingCount: summary.PendingCount,
	})
	if err != nil {
		return entities.HistoryLogEntry{}, fmt.Errorf("failed to archive roster summary: %w", err)
	}

	s.metrics.HistoryLogged()
	logging.Info("Roster summary archived",
		"entry_id", entry.ID,
		"total", entry.TotalGuests,
		"entered", entry.EnteredCount,
		"pending", entry.PendingCount,
	)
	return entry, nil
}

// List returns every entry, newest first.
func (s *HistoryService) List(ctx context.Context) ([]entities.HistoryLogEntry, error) {
	entries, err := s.history.ListOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	sortNewestFirst(entries)
	return entries, nil
}

// Trend returns the entries oldest first as chart points. Fewer than two
// entries is ErrInsufficientHistory.
func (s *HistoryService) Trend(ctx context.Context) ([]entities.TrendPoint, error) {
	entries, err := s.history.ListOnce(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return BuildTrend(entries, s.location)
}

// BuildTrend sorts entries by date ascending and labels them in loc.
func BuildTrend(entries []entities.HistoryLogEntry, loc *time.Location) ([]entities.TrendPoint, error) {
	if len(entries) < 2 {
		return nil, ErrInsufficientHistory
	}
	if loc == nil {
		loc = time.Local
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b entities.HistoryLogEntry) int {
		return a.DateLogged.Compare(b.DateLogged)
	})

	points := make([]entities.TrendPoint, 0, len(sorted))
	for _, e := range sorted {
		points = append(points, entities.TrendPoint{
			DateLogged:   e.DateLogged,
			Label:        e.DateLogged.In(loc).Format(trendLabelLayout),
			EnteredCount: e.EnteredCount,
			TotalGuests:  e.TotalGuests,
		})
	}
	return points, nil
}

// WriteCSV writes every entry, newest first, as semicolon separated rows.
func (s *HistoryService) WriteCSV(ctx context.Context, w io.Writer) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}
	return WriteHistoryCSV(w, entries, s.location)
}

// WriteHistoryCSV renders entries in the order given. The timestamp column
// is always quoted.
func WriteHistoryCSV(w io.Writer, entries []entities.HistoryLogEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, exportHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := fmt.Fprintf(bw, "\"%s\";%d;%d;%d\n",
			e.DateLogged.In(loc).Format(exportDateLayout),
			e.TotalGuests,
			e.EnteredCount,
			e.PendingCount,
		); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ClearAll deletes every entry in sub-batches and returns how many were
// removed. Callers gate it behind the admin credential.
func (s *HistoryService) ClearAll(ctx context.Context) (int, error) {
	entries, err := s.history.ListOnce(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list history: %w", err)
	}

	ops := make([]store.Op[entities.HistoryLogEntry], 0, len(entries))
	for _, e := range entries {
		ops = append(ops, store.DeleteOp[entities.HistoryLogEntry](e.ID))
	}

	removed, err := commitBatches(ctx, s.history, StageClear, ops, s.batchSize)
	if err != nil {
		return removed, err
	}

	logging.Warn("History cleared", "removed", removed)
	return removed, nil
}

// Subscribe delivers the full history, newest first, on every change.
func (s *HistoryService) Subscribe(onSnapshot func([]entities.HistoryLogEntry), onError func(error)) store.Unsubscribe {
	return s.history.Subscribe(func(entries []entities.HistoryLogEntry) {
		sorted := slices.Clone(entries)
		sortNewestFirst(sorted)
		onSnapshot(sorted)
	}, onError)
}

func sortNewestFirst(entries []entities.HistoryLogEntry) {
	slices.SortStableFunc(entries, func(a, b entities.HistoryLogEntry) int {
		return b.DateLogged.Compare(a.DateLogged)
	})
}
