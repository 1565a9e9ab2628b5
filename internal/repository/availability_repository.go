package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
)

type AvailabilityRepository interface {
	// WithTx binds the repository to an open transaction.
	WithTx(tx *gorm.DB) AvailabilityRepository

	Create(ctx context.Context, slot *model.Availability) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Availability, error)
	// LockByID loads the slot and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Availability, error)
	// MarkHeld flips is_free to false only if it is still true.
	MarkHeld(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFree(ctx context.Context, id uuid.UUID) error
	// Slots of a service ordered by start, optionally only free ones.
	ListByService(ctx context.Context, serviceID uuid.UUID, onlyFree bool, limit, offset int) ([]model.Availability, int64, error)
	// Windows of a service except excludeID (uuid.Nil excludes nothing).
	ListWindows(ctx context.Context, serviceID, excludeID uuid.UUID) ([]model.Availability, error)
	// UpdateWindow changes start/end of a free slot; false if the slot is held or gone.
	UpdateWindow(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) WithTx(tx *gorm.DB) AvailabilityRepository {
	return &GormAvailabilityRepository{db: tx}
}

func (r *GormAvailabilityRepository) Create(ctx context.Context, slot *model.Availability) error {
	return r.db.WithContext(ctx).Omit("Service").Create(slot).Error
}

func (r *GormAvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	var slot model.Availability
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormAvailabilityRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	var slot model.Availability
	if err := forUpdate(r.db.WithContext(ctx)).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormAvailabilityRepository) MarkHeld(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Availability{}).
		Where("id = ? AND is_free = ?", id, true).
		Update("is_free", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormAvailabilityRepository) MarkFree(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Availability{}).
		Where("id = ?", id).
		Update("is_free", true).
		Error
}

func (r *GormAvailabilityRepository) ListByService(
	ctx context.Context,
	serviceID uuid.UUID,
	onlyFree bool,
	limit, offset int,
) ([]model.Availability, int64, error) {
	var slots []model.Availability
	q := r.db.WithContext(ctx).
		Model(&model.Availability{}).
		Where("service_id = ?", serviceID)

	if onlyFree {
		q = q.Where("is_free = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, 0, err
	}

	return slots, total, nil
}

func (r *GormAvailabilityRepository) ListWindows(ctx context.Context, serviceID, excludeID uuid.UUID) ([]model.Availability, error) {
	var slots []model.Availability
	q := r.db.WithContext(ctx).
		Select("id", "service_id", "starts_at", "ends_at").
		Where("service_id = ?", serviceID)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Order("starts_at ASC").Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormAvailabilityRepository) UpdateWindow(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Availability{}).
		Where("id = ? AND is_free = ?", id, true).
		Updates(map[string]any{
			"starts_at": startsAt,
			"ends_at":   endsAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormAvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Availability{}, "id = ?", id).Error
}
