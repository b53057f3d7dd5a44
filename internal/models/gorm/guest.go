package gorm

import "time"

// GuestRecord is one row of the shared roster
type GuestRecord struct {
	ID              string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	ReservationCode string    `gorm:"column:reservation_code;type:varchar(100);index;not null"`
	Name            string    `gorm:"column:name;not null"`
	Room            string    `gorm:"column:room"`
	IsChecked       bool      `gorm:"column:is_checked;not null;default:false"`
	IsNewArrival    bool      `gorm:"column:is_new_arrival;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;index"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (GuestRecord) TableName() string {
	return "guests"
}
