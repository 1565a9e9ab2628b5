package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit event type.
type EventType string

const (
	EventTypeBookingCreated   EventType = "booking_created"
	EventTypeBookingCancelled EventType = "booking_cancelled"
)

// events — audit trail, written in the same transaction as the change it records.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	UserID    string     `gorm:"type:varchar(64);index"`
	BookingID *uuid.UUID `gorm:"type:uuid;index"`

	Details datatypes.JSONMap

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
