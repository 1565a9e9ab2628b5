package service

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/repository"
	"github.com/MohammedMashal/smart-booking-system/internal/testutil"
)

type stack struct {
	db           *gorm.DB
	events       repository.EventRepository
	allocator    *BookingAllocator
	queries      *BookingQueryService
	catalog      *CatalogService
	availability *AvailabilityService
}

func newStack(t *testing.T) *stack {
	t.Helper()

	db := testutil.NewSQLiteDB(t)
	tx := repository.NewGormTxManager(db)
	slots := repository.NewGormAvailabilityRepository(db)
	bookings := repository.NewGormBookingRepository(db)
	events := repository.NewGormEventRepository(db)
	services := repository.NewGormServiceRepository(db)

	catalog := NewCatalogService(services)
	return &stack{
		db:           db,
		events:       events,
		allocator:    NewBookingAllocator(tx, slots, bookings, events, NewRepositoryCatalog(services), zap.NewNop()),
		queries:      NewBookingQueryService(bookings),
		catalog:      catalog,
		availability: NewAvailabilityService(tx, slots, bookings, catalog),
	}
}
