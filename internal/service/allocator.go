package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/model"
	"github.com/MohammedMashal/smart-booking-system/internal/repository"
)

// BookingAllocator moves availabilities between free and held together
// with the booking row that holds them. Every transition is one unit of
// work; the at-most-one-active-booking rule is enforced three times:
// row lock on the slot, compare-and-set on is_free and the partial unique
// index on bookings.
type BookingAllocator struct {
	tx       repository.TxManager
	slots    repository.AvailabilityRepository
	bookings repository.BookingRepository
	events   repository.EventRepository
	catalog  ServiceCatalog
	log      *zap.Logger
	now      func() time.Time
}

func NewBookingAllocator(
	tx repository.TxManager,
	slots repository.AvailabilityRepository,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	catalog ServiceCatalog,
	log *zap.Logger,
) *BookingAllocator {
	return &BookingAllocator{
		tx:       tx,
		slots:    slots,
		bookings: bookings,
		events:   events,
		catalog:  catalog,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Reserve books availabilityID of serviceID for userID.
func (a *BookingAllocator) Reserve(
	ctx context.Context,
	userID string,
	serviceID, availabilityID uuid.UUID,
) (*model.Booking, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}

	exists, err := a.catalog.Exists(ctx, serviceID)
	if err != nil {
		return nil, a.failure("reserve", fmt.Errorf("check service: %w", err),
			zap.String("service_id", serviceID.String()))
	}
	if !exists {
		return nil, fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
	}

	var booking *model.Booking
	err = a.tx.Do(ctx, func(tx *gorm.DB) error {
		slots := a.slots.WithTx(tx)

		slot, err := slots.LockByID(ctx, availabilityID)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("availability %s: %w", availabilityID, ErrNotFound)
			}
			return fmt.Errorf("load availability: %w", err)
		}
		if slot.ServiceID != serviceID {
			return fmt.Errorf("availability %s for service %s: %w", availabilityID, serviceID, ErrNotFound)
		}
		if !slot.IsFree {
			return fmt.Errorf("availability %s already booked: %w", availabilityID, ErrConflict)
		}

		flipped, err := slots.MarkHeld(ctx, slot.ID)
		if err != nil {
			return fmt.Errorf("hold availability: %w", err)
		}
		if !flipped {
			return fmt.Errorf("availability %s already booked: %w", availabilityID, ErrConflict)
		}
		slot.IsFree = false

		b := &model.Booking{
			UserID:         userID,
			ServiceID:      serviceID,
			AvailabilityID: slot.ID,
			Status:         model.BookingStatusActive,
		}
		if err := a.bookings.WithTx(tx).Create(ctx, b); err != nil {
			if repository.IsUniqueViolation(err) {
				return fmt.Errorf("availability %s already booked: %w", availabilityID, ErrConflict)
			}
			return fmt.Errorf("create booking: %w", err)
		}

		if err := a.events.WithTx(tx).Record(ctx, &model.Event{
			EventType: model.EventTypeBookingCreated,
			UserID:    userID,
			BookingID: &b.ID,
			Details: datatypes.JSONMap{
				"service_id":      serviceID.String(),
				"availability_id": slot.ID.String(),
			},
		}); err != nil {
			return fmt.Errorf("record event: %w", err)
		}

		b.Availability = slot
		booking = b
		return nil
	})
	if err != nil {
		return nil, a.failure("reserve", err,
			zap.String("user_id", userID),
			zap.String("service_id", serviceID.String()),
			zap.String("availability_id", availabilityID.String()),
		)
	}

	a.log.Info("booking reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("user_id", userID),
		zap.String("availability_id", availabilityID.String()),
	)
	return booking, nil
}

// Release cancels bookingID on behalf of userID and frees its slot.
// Releasing a booking that is no longer active is a conflict, so a slot
// re-booked by someone else is never freed.
func (a *BookingAllocator) Release(ctx context.Context, bookingID uuid.UUID, userID string) (*model.Booking, error) {
	current, err := a.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
		}
		return nil, a.failure("release", fmt.Errorf("load booking: %w", err),
			zap.String("booking_id", bookingID.String()))
	}
	if current.UserID != userID {
		return nil, fmt.Errorf("booking %s is owned by another user: %w", bookingID, ErrForbidden)
	}

	var released *model.Booking
	err = a.tx.Do(ctx, func(tx *gorm.DB) error {
		bookings := a.bookings.WithTx(tx)

		b, err := bookings.LockByID(ctx, bookingID)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
			}
			return fmt.Errorf("load booking: %w", err)
		}
		if b.Status != model.BookingStatusActive {
			return fmt.Errorf("booking %s is %s: %w", bookingID, b.Status, ErrConflict)
		}

		at := a.now()
		ok, err := bookings.Cancel(ctx, b.ID, at)
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		if !ok {
			return fmt.Errorf("booking %s is no longer active: %w", bookingID, ErrConflict)
		}

		slots := a.slots.WithTx(tx)
		if err := slots.MarkFree(ctx, b.AvailabilityID); err != nil {
			return fmt.Errorf("free availability: %w", err)
		}

		if err := a.events.WithTx(tx).Record(ctx, &model.Event{
			EventType: model.EventTypeBookingCancelled,
			UserID:    userID,
			BookingID: &b.ID,
			Details: datatypes.JSONMap{
				"availability_id": b.AvailabilityID.String(),
			},
		}); err != nil {
			return fmt.Errorf("record event: %w", err)
		}

		slot, err := slots.GetByID(ctx, b.AvailabilityID)
		if err != nil {
			return fmt.Errorf("reload availability: %w", err)
		}

		b.Status = model.BookingStatusCancelled
		b.CancelledAt = &at
		b.Availability = slot
		released = b
		return nil
	})
	if err != nil {
		return nil, a.failure("release", err,
			zap.String("user_id", userID),
			zap.String("booking_id", bookingID.String()),
		)
	}

	a.log.Info("booking released",
		zap.String("booking_id", bookingID.String()),
		zap.String("user_id", userID),
		zap.String("availability_id", released.AvailabilityID.String()),
	)
	return released, nil
}

// failure classifies err and logs it at a level matching its kind.
func (a *BookingAllocator) failure(op string, err error, fields ...zap.Field) error {
	err = classify(err)
	fields = append(fields, zap.String("op", op), zap.Error(err))

	switch {
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		a.log.Debug("booking rejected", fields...)
	case errors.Is(err, ErrTransient):
		a.log.Warn("booking store unavailable", fields...)
	case errors.Is(err, context.Canceled):
		a.log.Debug("booking request abandoned", fields...)
	default:
		a.log.Error("booking failed", fields...)
	}
	return err
}
