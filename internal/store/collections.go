package store

import (
	"time"

	gormlib "gorm.io/gorm"

	"infinite-experiment/poolroster/internal/models/entities"
	gormModels "infinite-experiment/poolroster/internal/models/gorm"
)

type GuestCollection = GormCollection[entities.Guest, gormModels.GuestRecord]

type HistoryCollection = GormCollection[entities.HistoryLogEntry, gormModels.HistoryLog]

// Migrate creates or updates the roster tables.
func Migrate(db *gormlib.DB) error {
	return db.AutoMigrate(&gormModels.GuestRecord{}, &gormModels.HistoryLog{})
}

// NewGuestCollection returns the shared roster, listed in creation order.
func NewGuestCollection(db *gormlib.DB, opts ...CollectionOption) *GuestCollection {
	return newGormCollection(db, Guests, "created_at ASC, id ASC", rowMapper[entities.Guest, gormModels.GuestRecord]{
		toRow: func(id string, now time.Time, g entities.Guest) gormModels.GuestRecord {
			return gormModels.GuestRecord{
				ID:              id,
				ReservationCode: g.ReservationCode,
				Name:            g.Name,
				Room:            g.Room,
				IsChecked:       g.IsChecked,
				IsNewArrival:    g.IsNewArrival,
				CreatedAt:       now,
			}
		},
		fromRow: func(r gormModels.GuestRecord) entities.Guest {
			return entities.Guest{
				ID:              r.ID,
				ReservationCode: r.ReservationCode,
				Name:            r.Name,
				Room:            r.Room,
				IsChecked:       r.IsChecked,
				IsNewArrival:    r.IsNewArrival,
				CreatedAt:       r.CreatedAt,
			}
		},
	}, opts...)
}

// NewHistoryCollection returns the append-only history log, newest first.
// The server timestamp always wins over any DateLogged on the document.
func NewHistoryCollection(db *gormlib.DB, opts ...CollectionOption) *HistoryCollection {
	return newGormCollection(db, History, "date_logged DESC, id DESC", rowMapper[entities.HistoryLogEntry, gormModels.HistoryLog]{
		toRow: func(id string, now time.Time, e entities.HistoryLogEntry) gormModels.HistoryLog {
			return gormModels.HistoryLog{
				ID:           id,
				DateLogged:   now,
				TotalGuests:  e.TotalGuests,
				EnteredCount: e.EnteredCount,
				PendingCount: e.PendingCount,
			}
		},
		fromRow: func(r gormModels.HistoryLog) entities.HistoryLogEntry {
			return entities.HistoryLogEntry{
				ID:           r.ID,
				DateLogged:   r.DateLogged,
				TotalGuests:  r.TotalGuests,
				EnteredCount: r.EnteredCount,
				PendingCount: r.PendingCount,
			}
		},
	}, opts...)
}
