package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
)

type BookingRepository interface {
	WithTx(tx *gorm.DB) BookingRepository

	// Create inserts the booking row only; associations are never upserted.
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Cancel moves an active booking to cancelled; false if it was not active.
	Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) (bool, error)
	// Bookings of a user joined with service and availability, newest first.
	ListViewsByUser(ctx context.Context, userID string, limit, offset int) ([]model.BookingView, int64, error)
	// GetViewForUser matches on both id and owner.
	GetViewForUser(ctx context.Context, id uuid.UUID, userID string) (*model.BookingView, error)
	CountByAvailability(ctx context.Context, availabilityID uuid.UUID, statuses ...model.BookingStatus) (int64, error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: tx}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := forUpdate(r.db.WithContext(ctx)).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, model.BookingStatusActive).
		Updates(map[string]any{
			"status":       model.BookingStatusCancelled,
			"cancelled_at": cancelledAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

const bookingViewColumns = `bookings.id AS id,
	bookings.user_id AS user_id,
	bookings.status AS status,
	bookings.created_at AS created_at,
	bookings.cancelled_at AS cancelled_at,
	services.id AS service_id,
	services.name AS service_name,
	services.description AS service_description,
	services.price_cents AS service_price_cents,
	availabilities.id AS availability_id,
	availabilities.starts_at AS starts_at,
	availabilities.ends_at AS ends_at`

func (r *GormBookingRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("bookings").
		Select(bookingViewColumns).
		Joins("JOIN services ON services.id = bookings.service_id").
		Joins("JOIN availabilities ON availabilities.id = bookings.availability_id")
}

func (r *GormBookingRepository) ListViewsByUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]model.BookingView, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := r.viewQuery(ctx).
		Where("bookings.user_id = ?", userID).
		Order("bookings.created_at DESC").
		Order("bookings.id ASC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	views := make([]model.BookingView, 0)
	if err := q.Scan(&views).Error; err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (r *GormBookingRepository) GetViewForUser(ctx context.Context, id uuid.UUID, userID string) (*model.BookingView, error) {
	var views []model.BookingView
	err := r.viewQuery(ctx).
		Where("bookings.id = ? AND bookings.user_id = ?", id, userID).
		Limit(1).
		Scan(&views).Error
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &views[0], nil
}

func (r *GormBookingRepository) CountByAvailability(
	ctx context.Context,
	availabilityID uuid.UUID,
	statuses ...model.BookingStatus,
) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("availability_id = ?", availabilityID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
