package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// availabilities — bookable windows published for a service.
type Availability struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	ServiceID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"not null;index"`
	EndsAt   time.Time `gorm:"not null"`

	// IsFree is false iff exactly one active booking references the slot.
	IsFree bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Availability) TableName() string { return "availabilities" }

func (a *Availability) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
