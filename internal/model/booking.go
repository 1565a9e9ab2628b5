package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	// BookingStatusPending is reserved for pre-authorization flows; the
	// allocator never produces it.
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// bookings
//
// idx_bookings_active_availability allows at most one active booking per
// availability and is checked at commit time regardless of how the
// slot row was read.
type Booking struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserID         string        `gorm:"type:varchar(64);not null;index"`
	ServiceID      uuid.UUID     `gorm:"type:uuid;not null;index"`
	AvailabilityID uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:idx_bookings_active_availability,where:status = 'active'"`
	Status         BookingStatus `gorm:"type:varchar(32);not null;index"`
	CreatedAt      time.Time     `gorm:"not null"`
	UpdatedAt      time.Time     `gorm:"not null"`
	CancelledAt    *time.Time

	Service      *Service      `gorm:"foreignKey:ServiceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Availability *Availability `gorm:"foreignKey:AvailabilityID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookingView is a booking joined with its service and availability.
type BookingView struct {
	ID          uuid.UUID
	UserID      string
	Status      BookingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time

	ServiceID          uuid.UUID
	ServiceName        string
	ServiceDescription string
	ServicePriceCents  int64

	AvailabilityID uuid.UUID
	StartsAt       time.Time
	EndsAt         time.Time
}
