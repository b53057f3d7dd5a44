package entities

import "time"

// Guest is one roster entry as seen by clients.
type Guest struct {
	ID              string    `json:"id"`
	ReservationCode string    `json:"reservation_code"`
	Name            string    `json:"name"`
	Room            string    `json:"room"`
	IsChecked       bool      `json:"is_checked"`
	IsNewArrival    bool      `json:"is_new_arrival"`
	CreatedAt       time.Time `json:"created_at"`
}

// Candidate is a spreadsheet row waiting to be merged into the roster.
type Candidate struct {
	ReservationCode string `json:"reservation_code"`
	Name            string `json:"name"`
	Room            string `json:"room"`
}

// GuestView is a Guest annotated with the console-local alert flag.
type GuestView struct {
	Guest
	Alert bool `json:"alert"`
}
