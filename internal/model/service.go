package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// services
type Service struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Principal id of the provider who published the service.
	OwnerID string `gorm:"type:varchar(64);not null;index"`

	Name        string `gorm:"type:varchar(255);not null"`
	Description string `gorm:"type:text"`

	PriceCents int64 `gorm:"not null;default:0"`
	Capacity   int   `gorm:"not null;default:1"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (s *Service) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
