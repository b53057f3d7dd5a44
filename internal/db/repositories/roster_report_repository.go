package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/models/entities"
)

// RosterCounts are the live roster totals.
type RosterCounts struct {
	Total       int `db:"total"`
	Entered     int `db:"entered"`
	NewArrivals int `db:"new_arrivals"`
}

// RosterReportRepo runs read-only reporting queries with sqlx.
type RosterReportRepo struct {
	db *sqlx.DB
}

func NewRosterReportRepo(db *sqlx.DB) *RosterReportRepo {
	return &RosterReportRepo{db}
}

func (r *RosterReportRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *RosterReportRepo) RosterCounts(ctx context.Context) (RosterCounts, error) {
	var counts RosterCounts
	if err := r.db.QueryRowxContext(ctx, constants.CountRosterGuests).StructScan(&counts); err != nil {
		return RosterCounts{}, fmt.Errorf("failed to count roster: %w", err)
	}
	return counts, nil
}

func (r *RosterReportRepo) HistoryCount(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, constants.CountHistoryEntries); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return n, nil
}

// DailyPeaks returns one row per day with archives since the given time.
func (r *RosterReportRepo) DailyPeaks(ctx context.Context, since time.Time) ([]entities.DailyPeak, error) {
	peaks := []entities.DailyPeak{}
	query := r.db.Rebind(constants.DailyHistoryPeaks)
	if err := r.db.SelectContext(ctx, &peaks, query, since.UTC()); err != nil {
		return nil, fmt.Errorf("failed to load daily peaks: %w", err)
	}
	return peaks, nil
}
