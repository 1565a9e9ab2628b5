package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
)

type EventRepository interface {
	WithTx(tx *gorm.DB) EventRepository
	Record(ctx context.Context, event *model.Event) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &GormEventRepository{db: tx}
}

func (r *GormEventRepository) Record(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Omit("Booking").Create(event).Error
}

func (r *GormEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
