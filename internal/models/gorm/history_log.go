package gorm

import "time"

// HistoryLog is an append-only roster summary
type HistoryLog struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	DateLogged   time.Time `gorm:"column:date_logged;index;not null"`
	TotalGuests  int       `gorm:"column:total_guests;not null"`
	EnteredCount int       `gorm:"column:entered_count;not null"`
	PendingCount int       `gorm:"column:pending_count;not null"`
}

// TableName specifies the table name for GORM
func (HistoryLog) TableName() string {
	return "history_logs"
}
