package roster

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"infinite-experiment/poolroster/internal/models/entities"
)

type SortKey string

const (
	SortByName        SortKey = "name"
	SortByRoom        SortKey = "room"
	SortByCheckedDesc SortKey = "checked_desc"
	SortByCheckedAsc  SortKey = "checked_asc"
)

// ParseSortKey accepts the four concrete keys. Unknown values fall back to
// name order.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByRoom:
		return SortByRoom
	case SortByCheckedDesc:
		return SortByCheckedDesc
	case SortByCheckedAsc:
		return SortByCheckedAsc
	default:
		return SortByName
	}
}

// RosterView is the projection a console renders.
type RosterView struct {
	Guests   []entities.GuestView `json:"guests"`
	Total    int                  `json:"total"`
	Entered  int                  `json:"entered"`
	LoadedAt *time.Time           `json:"loaded_at,omitempty"`
	Sort     SortKey              `json:"sort"`
	Term     string               `json:"term"`
}

// Deriver builds views using one collation language.
type Deriver struct {
	lang language.Tag
}

func NewDeriver(lang string) *Deriver {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.Spanish
	}
	return &Deriver{lang: tag}
}

// Derive merges alert membership into guests, sorts by key and keeps the
// guests whose name or room contains term. It never mutates guests.
func (d *Deriver) Derive(guests []entities.Guest, alerts map[string]bool, key SortKey, term string) RosterView {
	views := make([]entities.GuestView, 0, len(guests))
	for _, g := range guests {
		views = append(views, entities.GuestView{Guest: g, Alert: alerts[g.ID]})
	}

	// Collators keep scratch buffers and are not safe to share.
	col := collate.New(d.lang)
	slices.SortStableFunc(views, comparator(col, key))

	views = filterViews(views, term)

	view := RosterView{Guests: views, Total: len(views), Sort: key, Term: term}
	for _, g := range views {
		if g.IsChecked {
			view.Entered++
		}
		if !g.CreatedAt.IsZero() && (view.LoadedAt == nil || g.CreatedAt.After(*view.LoadedAt)) {
			ts := g.CreatedAt
			view.LoadedAt = &ts
		}
	}
	return view
}

func comparator(col *collate.Collator, key SortKey) func(a, b entities.GuestView) int {
	switch key {
	case SortByRoom:
		return func(a, b entities.GuestView) int {
			return CompareRooms(col, a.Room, b.Room)
		}
	case SortByCheckedDesc:
		return func(a, b entities.GuestView) int {
			return compareChecked(b.IsChecked, a.IsChecked)
		}
	case SortByCheckedAsc:
		return func(a, b entities.GuestView) int {
			return compareChecked(a.IsChecked, b.IsChecked)
		}
	default:
		return func(a, b entities.GuestView) int {
			return col.CompareString(a.Name, b.Name)
		}
	}
}

// CompareRooms orders numerically when both rooms are integers and falls
// back to collation otherwise.
func CompareRooms(col *collate.Collator, a, b string) int {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		return cmp.Compare(na, nb)
	}
	return col.CompareString(a, b)
}

func compareChecked(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func filterViews(views []entities.GuestView, term string) []entities.GuestView {
	needle := NormalizeForSearch(strings.TrimSpace(term))
	if needle == "" {
		return views
	}

	out := views[:0]
	for _, g := range views {
		if strings.Contains(NormalizeForSearch(g.Name), needle) || strings.Contains(NormalizeForSearch(g.Room), needle) {
			out = append(out, g)
		}
	}
	return out
}
