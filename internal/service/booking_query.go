package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MohammedMashal/smart-booking-system/internal/calendar"
	"github.com/MohammedMashal/smart-booking-system/internal/model"
	"github.com/MohammedMashal/smart-booking-system/internal/repository"
)

// BookingQueryService is the read side of bookings, always scoped to the
// requesting user.
type BookingQueryService struct {
	bookings repository.BookingRepository
}

func NewBookingQueryService(bookings repository.BookingRepository) *BookingQueryService {
	return &BookingQueryService{bookings: bookings}
}

// ListForUser returns userID's bookings, newest first. pageSize <= 0
// returns all of them; otherwise one page is returned.
func (s *BookingQueryService) ListForUser(ctx context.Context, userID string, page, pageSize int) (calendar.Page[model.BookingView], error) {
	if pageSize <= 0 {
		views, _, err := s.bookings.ListViewsByUser(ctx, userID, 0, 0)
		if err != nil {
			return calendar.Page[model.BookingView]{}, classify(fmt.Errorf("list bookings: %w", err))
		}
		return calendar.All(views), nil
	}

	page, pageSize = calendar.NormalizePage(page, pageSize)
	views, total, err := s.bookings.ListViewsByUser(ctx, userID, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.BookingView]{}, classify(fmt.Errorf("list bookings: %w", err))
	}
	return calendar.NewPage(views, page, pageSize, total), nil
}

// GetForUser returns the booking only to its owner. Someone else's booking
// is reported as not found so its existence is not disclosed.
func (s *BookingQueryService) GetForUser(ctx context.Context, bookingID uuid.UUID, userID string) (*model.BookingView, error) {
	v, err := s.bookings.GetViewForUser(ctx, bookingID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
		}
		return nil, classify(fmt.Errorf("get booking: %w", err))
	}
	return v, nil
}
