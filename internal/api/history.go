package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/auth"
	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/models/dtos"
)

// ListHistory handles GET /api/v1/history
func (h *Handlers) ListHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		entries, err := h.deps.Services.History.List(r.Context())
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "History fetched", entries)
	}
}

// HistoryTrend handles GET /api/v1/history/trend
func (h *Handlers) HistoryTrend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		points, err := h.deps.Services.History.Trend(r.Context())
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Trend fetched", points)
	}
}

// ExportHistory handles GET /api/v1/history/export
func (h *Handlers) ExportHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		// Rendered in full first so a failure still gets a JSON error.
		var body bytes.Buffer
		if err := h.deps.Services.History.WriteCSV(r.Context(), &body); err != nil {
			logging.Error("History export failed", "error", err)
			handleError(w, initTime, err)
			return
		}

		filename := fmt.Sprintf("historial_piscina_%s.csv", initTime.Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if _, err := body.WriteTo(w); err != nil {
			logging.Warn("History export interrupted", "error", err)
		}
	}
}

// ClearHistory handles DELETE /api/v1/history. RequireAdmin has validated
// the token; it is spent here before anything is deleted.
func (h *Handlers) ClearHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		if err := h.deps.Services.AdminAuth.Consume(r.Context(), auth.GetAdminToken(r.Context())); err != nil {
			handleError(w, initTime, err)
			return
		}

		removed, err := h.deps.Services.History.ClearAll(r.Context())
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "History cleared", dtos.ClearHistoryResponse{Removed: removed})
	}
}

// RosterStats handles GET /api/v1/stats
func (h *Handlers) RosterStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ctx := r.Context()
		reports := h.deps.Repo.Reports

		counts, err := reports.RosterCounts(ctx)
		if err != nil {
			handleError(w, initTime, err)
			return
		}
		historyEntries, err := reports.HistoryCount(ctx)
		if err != nil {
			handleError(w, initTime, err)
			return
		}
		peaks, err := reports.DailyPeaks(ctx, time.Now().AddDate(0, 0, -30))
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Stats fetched", dtos.RosterStatsResponse{
			Total:          counts.Total,
			Entered:        counts.Entered,
			Pending:        counts.Total - counts.Entered,
			NewArrivals:    counts.NewArrivals,
			HistoryEntries: historyEntries,
			DailyPeaks:     peaks,
		})
	}
}
