// Package testutil opens throwaway databases for package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/db"
	"github.com/MohammedMashal/smart-booking-system/internal/model"
)

// NewSQLiteDB returns a migrated file-backed sqlite database in t.TempDir().
// A file is used instead of :memory: so every pooled connection sees the
// same data; the pool is capped at one connection like in production
// sqlite mode.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "booking.db")
	gdb, err := gorm.Open(sqlite.Open(db.SQLiteDSN(path)), db.GormConfig())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return gdb
}

// SeedService inserts an active service owned by ownerID.
func SeedService(t *testing.T, gdb *gorm.DB, ownerID string) *model.Service {
	t.Helper()

	s := &model.Service{
		OwnerID:    ownerID,
		Name:       "Haircut " + uuid.NewString()[:8],
		PriceCents: 2500,
		Capacity:   1,
		IsActive:   true,
	}
	if err := gdb.Create(s).Error; err != nil {
		t.Fatalf("seed service: %v", err)
	}
	return s
}

// SeedSlot inserts a free one-hour slot starting at start.
func SeedSlot(t *testing.T, gdb *gorm.DB, serviceID uuid.UUID, start time.Time) *model.Availability {
	t.Helper()

	slot := &model.Availability{
		ServiceID: serviceID,
		StartsAt:  start.UTC(),
		EndsAt:    start.UTC().Add(time.Hour),
		IsFree:    true,
	}
	if err := gdb.Omit("Service").Create(slot).Error; err != nil {
		t.Fatalf("seed slot: %v", err)
	}
	return slot
}

// LoadSlot re-reads a slot bypassing any repository.
func LoadSlot(t *testing.T, gdb *gorm.DB, id uuid.UUID) model.Availability {
	t.Helper()

	var slot model.Availability
	if err := gdb.First(&slot, "id = ?", id).Error; err != nil {
		t.Fatalf("load slot: %v", err)
	}
	return slot
}

// CountActive counts active bookings referencing a slot.
func CountActive(t *testing.T, gdb *gorm.DB, slotID uuid.UUID) int64 {
	t.Helper()

	var n int64
	err := gdb.Model(&model.Booking{}).
		Where("availability_id = ? AND status = ?", slotID, model.BookingStatusActive).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count active bookings: %v", err)
	}
	return n
}
