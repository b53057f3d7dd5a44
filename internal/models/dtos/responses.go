package dtos

import (
	"time"

	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/roster"
)

// --- Controller endpoints ----

type APIResponse struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Code         string `json:"code,omitempty"`
	ResponseTime string `json:"response_time"`
	Data         any    `json:"data,omitempty"`
}

type UploadResponse struct {
	Mode     string                    `json:"mode"`
	Received int                       `json:"received"`
	Added    int                       `json:"added"`
	Skipped  int                       `json:"skipped"`
	Removed  int                       `json:"removed"`
	Archived *entities.HistoryLogEntry `json:"archived,omitempty"`
}

type TapResponse struct {
	GuestID string `json:"guest_id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Wrote   bool   `json:"wrote"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ClearHistoryResponse struct {
	Removed int `json:"removed"`
}

// RosterStatsResponse is served from the reporting queries, not from a
// console projection, so it ignores search terms.
type RosterStatsResponse struct {
	Total          int                  `json:"total"`
	Entered        int                  `json:"entered"`
	Pending        int                  `json:"pending"`
	NewArrivals    int                  `json:"new_arrivals"`
	HistoryEntries int                  `json:"history_entries"`
	DailyPeaks     []entities.DailyPeak `json:"daily_peaks"`
}

// RosterResponse is one console's projection. Loaded is false until the
// first snapshot arrives. Stale is set while the roster subscription is
// failing and the view shows the last good snapshot.
type RosterResponse struct {
	ConsoleID string            `json:"console_id"`
	View      roster.RosterView `json:"view"`
	Loaded    bool              `json:"loaded"`
	Stale     bool              `json:"stale"`
	LastError string            `json:"last_error,omitempty"`
}
