package roster

import (
	"strings"

	"infinite-experiment/poolroster/internal/models/entities"
)

// AppState is one console's view inputs. Values are replaced, never
// mutated in place; every With* method returns a new state.
type AppState struct {
	Guests []entities.Guest
	Sort   SortKey
	Term   string
	// Stale is set while the subscription is failing; Guests then holds the
	// last good snapshot.
	Stale   bool
	LastErr string
	// Loaded is false until the first snapshot arrives.
	Loaded bool
}

func NewAppState() AppState {
	return AppState{Sort: SortByName}
}

// WithSnapshot installs a fresh store snapshot and clears any stale marker.
func (s AppState) WithSnapshot(guests []entities.Guest) AppState {
	s.Guests = guests
	s.Loaded = true
	s.Stale = false
	s.LastErr = ""
	return s
}

// WithSubscriptionError keeps the last snapshot but marks it stale.
func (s AppState) WithSubscriptionError(err error) AppState {
	s.Stale = true
	if err != nil {
		s.LastErr = err.Error()
	}
	return s
}

// WithSort selects a sort key. The pseudo-key "checked" flips between the
// two checked orders, starting with checked-first.
func (s AppState) WithSort(key string) AppState {
	if strings.EqualFold(strings.TrimSpace(key), "checked") {
		if s.Sort == SortByCheckedDesc {
			s.Sort = SortByCheckedAsc
		} else {
			s.Sort = SortByCheckedDesc
		}
		return s
	}
	s.Sort = ParseSortKey(key)
	return s
}

func (s AppState) WithTerm(term string) AppState {
	s.Term = strings.TrimSpace(term)
	return s
}

// Find returns the guest with id from the current snapshot.
func (s AppState) Find(id string) (entities.Guest, bool) {
	for _, g := range s.Guests {
		if g.ID == id {
			return g, true
		}
	}
	return entities.Guest{}, false
}
