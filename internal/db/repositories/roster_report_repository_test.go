package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	gormModels "infinite-experiment/poolroster/internal/models/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, *sqlx.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&gormModels.GuestRecord{}, &gormModels.HistoryLog{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	return db, sqlx.NewDb(sqlDB, "sqlite3")
}

func TestRosterReportRepo_Counts(t *testing.T) {
	orm, sqlxDB := setupTestDB(t)
	repo := NewRosterReportRepo(sqlxDB)
	ctx := context.Background()

	now := time.Now().UTC()
	guests := []gormModels.GuestRecord{
		{ID: "1", ReservationCode: "A", Name: "Ana", IsChecked: true, CreatedAt: now},
		{ID: "2", ReservationCode: "B", Name: "Beto", IsNewArrival: true, CreatedAt: now},
		{ID: "3", ReservationCode: "C", Name: "Carla", CreatedAt: now},
	}
	if err := orm.Create(&guests).Error; err != nil {
		t.Fatal(err)
	}

	counts, err := repo.RosterCounts(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if counts.Total != 3 || counts.Entered != 1 || counts.NewArrivals != 1 {
		t.Errorf("Unexpected counts %+v", counts)
	}

	if err := repo.Ping(ctx); err != nil {
		t.Errorf("Expected ping to succeed, got %v", err)
	}
}

func TestRosterReportRepo_DailyPeaks(t *testing.T) {
	orm, sqlxDB := setupTestDB(t)
	repo := NewRosterReportRepo(sqlxDB)
	ctx := context.Background()

	day1 := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 8, 2, 10, 0, 0, 0, time.UTC)
	logs := []gormModels.HistoryLog{
		{ID: "a", DateLogged: day1, TotalGuests: 50, EnteredCount: 20, PendingCount: 30},
		{ID: "b", DateLogged: day1.Add(3 * time.Hour), TotalGuests: 60, EnteredCount: 45, PendingCount: 15},
		{ID: "c", DateLogged: day2, TotalGuests: 40, EnteredCount: 10, PendingCount: 30},
	}
	if err := orm.Create(&logs).Error; err != nil {
		t.Fatal(err)
	}

	n, err := repo.HistoryCount(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Expected 3 history entries, got %d (%v)", n, err)
	}

	peaks, err := repo.DailyPeaks(ctx, day1.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(peaks) != 2 {
		t.Fatalf("Expected 2 days, got %+v", peaks)
	}
	if peaks[0].Day != "2025-08-01" || peaks[0].PeakEntered != 45 || peaks[0].PeakTotal != 60 || peaks[0].Replacements != 2 {
		t.Errorf("Unexpected first day %+v", peaks[0])
	}
	if peaks[1].Day != "2025-08-02" || peaks[1].Replacements != 1 {
		t.Errorf("Unexpected second day %+v", peaks[1])
	}
}
