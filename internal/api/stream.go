package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"infinite-experiment/poolroster/internal/auth"
	"infinite-experiment/poolroster/internal/common"
	"infinite-experiment/poolroster/internal/constants"
	"infinite-experiment/poolroster/internal/logging"
	"infinite-experiment/poolroster/internal/models/entities"
)

const streamHeartbeat = 15 * time.Second

// consoleHeartbeat keeps a streaming console ahead of its idle eviction.
func consoleHeartbeat(idleTTL time.Duration) time.Duration {
	if half := idleTTL / 2; half > 0 && half < streamHeartbeat {
		return half
	}
	return streamHeartbeat
}

type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, true
}

func (s *sseWriter) event(name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) heartbeat() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func streamUnsupported(w http.ResponseWriter, initTime time.Time) {
	common.RespondError(w, initTime, fmt.Errorf("streaming not supported"), constants.ErrCodeInternal, http.StatusInternalServerError)
}

// StreamGuests handles GET /api/v1/guests/stream
//
// Sends the console's view on connect and again after every change.
func (h *Handlers) StreamGuests() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		console := auth.GetConsole(r.Context())

		changes, stop := console.Watch()
		defer stop()

		sse, ok := newSSEWriter(w)
		if !ok {
			streamUnsupported(w, initTime)
			return
		}

		log := logging.WithConsole(console.ID)
		if err := sse.event("roster", rosterResponse(console, console.View())); err != nil {
			return
		}

		ticker := time.NewTicker(consoleHeartbeat(h.deps.Consoles.IdleTTL()))
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case _, open := <-changes:
				if !open {
					log.Debugw("Console closed, ending stream")
					return
				}
				if err := sse.event("roster", rosterResponse(console, console.View())); err != nil {
					log.Debugw("Roster stream write failed", "error", err.Error())
					return
				}
			case <-ticker.C:
				// an open stream counts as console activity
				h.deps.Consoles.Get(console.ID)
				if err := sse.heartbeat(); err != nil {
					return
				}
			}
		}
	}
}

type historyUpdate struct {
	entries []entities.HistoryLogEntry
	err     error
}

// StreamHistory handles GET /api/v1/history/stream
func (h *Handlers) StreamHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		updates := make(chan historyUpdate, 1)
		push := func(u historyUpdate) {
			// Latest wins: drop a pending update the stream has not sent yet.
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- u:
			default:
			}
		}
		unsubscribe := h.deps.Services.History.Subscribe(
			func(entries []entities.HistoryLogEntry) { push(historyUpdate{entries: entries}) },
			func(err error) { push(historyUpdate{err: err}) },
		)
		defer unsubscribe()

		sse, ok := newSSEWriter(w)
		if !ok {
			streamUnsupported(w, initTime)
			return
		}

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case u := <-updates:
				var err error
				if u.err != nil {
					err = sse.event("error", map[string]string{"message": u.err.Error()})
				} else {
					err = sse.event("history", u.entries)
				}
				if err != nil {
					return
				}
			case <-ticker.C:
				if err := sse.heartbeat(); err != nil {
					return
				}
			}
		}
	}
}
