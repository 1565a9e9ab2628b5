package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
)

type reserveRequest struct {
	ServiceID      string `json:"serviceId" binding:"required,uuid"`
	AvailabilityID string `json:"availabilityId" binding:"required,uuid"`
}

type createServiceRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=4000"`
	PriceCents  int64  `json:"priceCents" binding:"gte=0"`
	Capacity    int    `json:"capacity" binding:"omitempty,gte=1"`
}

type createAvailabilityRequest struct {
	ServiceID string    `json:"serviceId" binding:"required,uuid"`
	StartsAt  time.Time `json:"startsAt" binding:"required"`
	EndsAt    time.Time `json:"endsAt" binding:"required,gtfield=StartsAt"`
}

// Only the window may change; unknown fields are ignored by the decoder.
type updateAvailabilityRequest struct {
	StartsAt time.Time `json:"startsAt" binding:"required"`
	EndsAt   time.Time `json:"endsAt" binding:"required,gtfield=StartsAt"`
}

type pageQuery struct {
	Page     int `form:"page" binding:"omitempty,gte=1"`
	PageSize int `form:"pageSize" binding:"omitempty,gte=1,lte=100"`
}

type availabilityQuery struct {
	pageQuery
	ServiceID string `form:"serviceId" binding:"required,uuid"`
	Free      bool   `form:"free"`
}

type availabilityResponse struct {
	ID        uuid.UUID `json:"id"`
	ServiceID uuid.UUID `json:"serviceId"`
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
	IsFree    bool      `json:"isFree"`
}

func toAvailability(a model.Availability) availabilityResponse {
	return availabilityResponse{
		ID:        a.ID,
		ServiceID: a.ServiceID,
		StartsAt:  a.StartsAt,
		EndsAt:    a.EndsAt,
		IsFree:    a.IsFree,
	}
}

type bookingResponse struct {
	ID             uuid.UUID             `json:"id"`
	UserID         string                `json:"userId"`
	ServiceID      uuid.UUID             `json:"serviceId"`
	AvailabilityID uuid.UUID             `json:"availabilityId"`
	Status         model.BookingStatus   `json:"status"`
	CreatedAt      time.Time             `json:"createdAt"`
	CancelledAt    *time.Time            `json:"cancelledAt,omitempty"`
	Availability   *availabilityResponse `json:"availability,omitempty"`
}

func toBooking(b *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID,
		UserID:         b.UserID,
		ServiceID:      b.ServiceID,
		AvailabilityID: b.AvailabilityID,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
		CancelledAt:    b.CancelledAt,
	}
	if b.Availability != nil {
		a := toAvailability(*b.Availability)
		resp.Availability = &a
	}
	return resp
}

type bookingViewResponse struct {
	ID          uuid.UUID           `json:"id"`
	Status      model.BookingStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	CancelledAt *time.Time          `json:"cancelledAt,omitempty"`
	Service     struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		PriceCents  int64     `json:"priceCents"`
	} `json:"service"`
	Availability struct {
		ID       uuid.UUID `json:"id"`
		StartsAt time.Time `json:"startsAt"`
		EndsAt   time.Time `json:"endsAt"`
	} `json:"availability"`
}

func toBookingView(v model.BookingView) bookingViewResponse {
	var resp bookingViewResponse
	resp.ID = v.ID
	resp.Status = v.Status
	resp.CreatedAt = v.CreatedAt
	resp.CancelledAt = v.CancelledAt
	resp.Service.ID = v.ServiceID
	resp.Service.Name = v.ServiceName
	resp.Service.Description = v.ServiceDescription
	resp.Service.PriceCents = v.ServicePriceCents
	resp.Availability.ID = v.AvailabilityID
	resp.Availability.StartsAt = v.StartsAt
	resp.Availability.EndsAt = v.EndsAt
	return resp
}

type serviceResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"priceCents"`
	Capacity    int       `json:"capacity"`
	IsActive    bool      `json:"isActive"`
}

func toService(s model.Service) serviceResponse {
	return serviceResponse{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Name:        s.Name,
		Description: s.Description,
		PriceCents:  s.PriceCents,
		Capacity:    s.Capacity,
		IsActive:    s.IsActive,
	}
}
