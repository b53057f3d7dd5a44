package entities

import "time"

// HistoryLogEntry is an immutable summary captured before a full replacement.
type HistoryLogEntry struct {
	ID           string    `json:"id"`
	DateLogged   time.Time `json:"date_logged"`
	TotalGuests  int       `json:"total_guests"`
	EnteredCount int       `json:"entered_count"`
	PendingCount int       `json:"pending_count"`
}

// HistorySummary holds the counts of a roster at one instant.
// EnteredCount + PendingCount always equals TotalGuests.
type HistorySummary struct {
	TotalGuests  int `json:"total_guests"`
	EnteredCount int `json:"entered_count"`
	PendingCount int `json:"pending_count"`
}

// SummarizeRoster counts checked-in and pending guests.
func SummarizeRoster(guests []Guest) HistorySummary {
	entered := 0
	for _, g := range guests {
		if g.IsChecked {
			entered++
		}
	}
	return HistorySummary{
		TotalGuests:  len(guests),
		EnteredCount: entered,
		PendingCount: len(guests) - entered,
	}
}

// TrendPoint is one sample of the attendance trend, oldest first.
type TrendPoint struct {
	DateLogged   time.Time `json:"date_logged"`
	Label        string    `json:"label"`
	EnteredCount int       `json:"entered_count"`
	TotalGuests  int       `json:"total_guests"`
}

// DailyPeak is the best attendance archived on one calendar day.
type DailyPeak struct {
	Day          string `db:"day" json:"day"`
	PeakEntered  int    `db:"peak_entered" json:"peak_entered"`
	PeakTotal    int    `db:"peak_total" json:"peak_total"`
	Replacements int    `db:"replacements" json:"replacements"`
}
