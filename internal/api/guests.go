package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"infinite-experiment/poolroster/internal/auth"
	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/models/dtos"
	"infinite-experiment/poolroster/internal/roster"
)

func rosterResponse(console *roster.Console, view roster.RosterView) dtos.RosterResponse {
	state := console.State()
	return dtos.RosterResponse{
		ConsoleID: console.ID,
		View:      view,
		Loaded:    state.Loaded,
		Stale:     state.Stale,
		LastError: state.LastErr,
	}
}

// ListGuests handles GET /api/v1/guests
func (h *Handlers) ListGuests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		console := auth.GetConsole(r.Context())

		common.RespondSuccess(w, initTime, "Roster fetched", rosterResponse(console, console.View()))
	}
}

// UpdateView handles PUT /api/v1/guests/view
func (h *Handlers) UpdateView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		console := auth.GetConsole(r.Context())

		var req dtos.ViewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			common.RespondError(w, initTime, err, constants.ErrCodeMalformedRequest, http.StatusBadRequest)
			return
		}

		if req.Sort != nil {
			console.SetSort(*req.Sort)
		}
		if req.Term != nil {
			console.SetTerm(*req.Term)
		}

		common.RespondSuccess(w, initTime, "View updated", rosterResponse(console, console.View()))
	}
}

// TapGuest handles POST /api/v1/guests/{guestID}/tap
func (h *Handlers) TapGuest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		console := auth.GetConsole(r.Context())
		guestID := chi.URLParam(r, "guestID")

		transition, err := console.Tap(r.Context(), guestID)
		if err != nil {
			handleError(w, initTime, err)
			return
		}

		common.RespondSuccess(w, initTime, "Tap applied", dtos.TapResponse{
			GuestID: transition.GuestID,
			From:    string(transition.From),
			To:      string(transition.To),
			Wrote:   transition.Wrote,
		})
	}
}

// CloseConsole handles DELETE /api/v1/console
func (h *Handlers) CloseConsole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		console := auth.GetConsole(r.Context())

		h.deps.Consoles.Remove(console.ID)
		common.RespondSuccess(w, initTime, "Console closed", nil)
	}
}
