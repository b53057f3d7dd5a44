package roster

import (
	"context"
	"errors"
	"fmt"

	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/metrics"
	"infinite-experiment/poolroster/internal/models/entities"
	"infinite-experiment/poolroster/internal/store"
)

var ErrGuestNotFound = errors.New("guest not found in roster")

// ErrRosterLoading is returned for taps on a console that has not received
// its first snapshot yet.
var ErrRosterLoading = errors.New("roster not loaded yet")

// State is a guest's position in the check-in lifecycle.
type State string

const (
	StatePending        State = "pending"
	StateEntered        State = "entered"
	StatePendingUncheck State = "pending_uncheck"
)

// StateOf derives the state from the stored flag and the local alert flag.
// An alert on a guest that is not checked in is ignored.
func StateOf(g entities.Guest, alert bool) State {
	switch {
	case !g.IsChecked:
		return StatePending
	case alert:
		return StatePendingUncheck
	default:
		return StateEntered
	}
}

// Transition describes what a tap did.
type Transition struct {
	GuestID string `json:"guest_id"`
	From    State  `json:"from"`
	To      State  `json:"to"`
	// Wrote is true when the tap issued a store write.
	Wrote bool `json:"wrote"`
}

// GuestUpdater is the single-record write the state machine needs.
type GuestUpdater interface {
	Update(ctx context.Context, id string, fields store.Fields) error
}

// Machine runs the check-in state machine for one console.
//
// Writes are not reflected locally: the guest's stored flag only changes in
// the projection when the next snapshot arrives.
type Machine struct {
	writer  GuestUpdater
	alerts  *AlertTracker
	metrics *metrics.MetricsRegistry
}

func NewMachine(writer GuestUpdater, alerts *AlertTracker, m *metrics.MetricsRegistry) *Machine {
	return &Machine{writer: writer, alerts: alerts, metrics: m}
}

// Tap applies one tap to guest as last seen in the projection.
func (m *Machine) Tap(ctx context.Context, guest entities.Guest) (Transition, error) {
	from := StateOf(guest, m.alerts.Has(guest.ID))
	t := Transition{GuestID: guest.ID, From: from}

	switch from {
	case StatePending:
		// A stale alert on an unchecked guest must not survive check-in.
		m.alerts.Clear(guest.ID)
		if err := m.writer.Update(ctx, guest.ID, store.Fields{store.FieldIsChecked: true}); err != nil {
			return t, wrapWriteError(guest.ID, err)
		}
		t.To, t.Wrote = StateEntered, true

	case StateEntered:
		m.alerts.Raise(guest.ID)
		t.To = StatePendingUncheck

	case StatePendingUncheck:
		m.alerts.Clear(guest.ID)
		if err := m.writer.Update(ctx, guest.ID, store.Fields{store.FieldIsChecked: false}); err != nil {
			return t, wrapWriteError(guest.ID, err)
		}
		t.To, t.Wrote = StatePending, true
	}

	m.metrics.Transition(string(t.From), string(t.To))
	logging.Debug("Check-in transition",
		"guest_id", guest.ID,
		"from", t.From,
		"to", t.To,
		"wrote", t.Wrote,
	)
	return t, nil
}

func wrapWriteError(guestID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrGuestNotFound, guestID)
	}
	return fmt.Errorf("failed to write check-in state for %s: %w", guestID, err)
}
