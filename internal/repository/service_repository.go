package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
)

type ServiceRepository interface {
	WithTx(tx *gorm.DB) ServiceRepository
	GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	// ExistsActive reports whether an active service with the id exists.
	ExistsActive(ctx context.Context, id uuid.UUID) (bool, error)
	// LockByID serializes writers of the service's availability windows.
	LockByID(ctx context.Context, id uuid.UUID) (*model.Service, error)
	Create(ctx context.Context, service *model.Service) error
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]model.Service, int64, error)
}

type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) WithTx(tx *gorm.DB) ServiceRepository {
	return &GormServiceRepository{db: tx}
}

func (r *GormServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormServiceRepository) LockByID(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	var s model.Service
	if err := forUpdate(r.db.WithContext(ctx)).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormServiceRepository) ExistsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Service{}).
		Where("id = ? AND is_active = ?", id, true).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormServiceRepository) Create(ctx context.Context, service *model.Service) error {
	return r.db.WithContext(ctx).Create(service).Error
}

func (r *GormServiceRepository) List(ctx context.Context, onlyActive bool, limit, offset int) ([]model.Service, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Service{})
	if onlyActive {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var services []model.Service
	if err := q.Order("name ASC").Limit(limit).Offset(offset).Find(&services).Error; err != nil {
		return nil, 0, err
	}
	return services, total, nil
}
