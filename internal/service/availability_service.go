package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/calendar"
	"github.com/MohammedMashal/smart-booking-system/internal/model"
	"github.com/MohammedMashal/smart-booking-system/internal/repository"
	"github.com/MohammedMashal/smart-booking-system/internal/utils"
)

// MaxSlotDuration bounds a single availability window.
const MaxSlotDuration = 24 * time.Hour

// AvailabilityService manages the windows a provider publishes. Only the
// owner of the service may change them.
type AvailabilityService struct {
	tx       repository.TxManager
	slots    repository.AvailabilityRepository
	bookings repository.BookingRepository
	catalog  *CatalogService
}

func NewAvailabilityService(
	tx repository.TxManager,
	slots repository.AvailabilityRepository,
	bookings repository.BookingRepository,
	catalog *CatalogService,
) *AvailabilityService {
	return &AvailabilityService{tx: tx, slots: slots, bookings: bookings, catalog: catalog}
}

func normalizeWindow(start, end time.Time) (utils.TimeRange, error) {
	tr, err := utils.NormalizeTimeRange(start, end, time.UTC, MaxSlotDuration)
	if err != nil {
		return utils.TimeRange{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return tr, nil
}

func (s *AvailabilityService) checkOverlap(ctx context.Context, slots repository.AvailabilityRepository, serviceID, excludeID uuid.UUID, tr utils.TimeRange) error {
	windows, err := slots.ListWindows(ctx, serviceID, excludeID)
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	existing := make([]utils.TimeRange, 0, len(windows))
	for _, w := range windows {
		existing = append(existing, utils.TimeRange{Start: w.StartsAt, End: w.EndsAt})
	}
	if overlap, _ := utils.HasOverlap(tr, existing, false); overlap {
		return fmt.Errorf("window overlaps an existing availability: %w", ErrConflict)
	}
	return nil
}

// lockService takes the service row lock so overlap checks and writes of
// one service's windows run one at a time.
func (s *AvailabilityService) lockService(ctx context.Context, tx *gorm.DB, serviceID uuid.UUID) error {
	if _, err := s.catalog.services.WithTx(tx).LockByID(ctx, serviceID); err != nil {
		if repository.IsNotFound(err) {
			return fmt.Errorf("service %s: %w", serviceID, ErrNotFound)
		}
		return fmt.Errorf("lock service: %w", err)
	}
	return nil
}

// Create publishes a free window for serviceID.
func (s *AvailabilityService) Create(ctx context.Context, principal string, serviceID uuid.UUID, start, end time.Time) (*model.Availability, error) {
	tr, err := normalizeWindow(start, end)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.owned(ctx, serviceID, principal); err != nil {
		return nil, err
	}

	slot := &model.Availability{
		ServiceID: serviceID,
		StartsAt:  tr.Start,
		EndsAt:    tr.End,
		IsFree:    true,
	}
	err = s.tx.Do(ctx, func(tx *gorm.DB) error {
		if err := s.lockService(ctx, tx, serviceID); err != nil {
			return err
		}
		slots := s.slots.WithTx(tx)
		if err := s.checkOverlap(ctx, slots, serviceID, uuid.Nil, tr); err != nil {
			return err
		}
		if err := slots.Create(ctx, slot); err != nil {
			return fmt.Errorf("create availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return slot, nil
}

func (s *AvailabilityService) Get(ctx context.Context, id uuid.UUID) (*model.Availability, error) {
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("availability %s: %w", id, ErrNotFound)
		}
		return nil, classify(fmt.Errorf("get availability: %w", err))
	}
	return slot, nil
}

func (s *AvailabilityService) ListByService(
	ctx context.Context,
	serviceID uuid.UUID,
	onlyFree bool,
	page, pageSize int,
) (calendar.Page[model.Availability], error) {
	if _, err := s.catalog.Get(ctx, serviceID); err != nil {
		return calendar.Page[model.Availability]{}, err
	}

	page, pageSize = calendar.NormalizePage(page, pageSize)
	slots, total, err := s.slots.ListByService(ctx, serviceID, onlyFree, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.Availability]{}, classify(fmt.Errorf("list availability: %w", err))
	}
	return calendar.NewPage(slots, page, pageSize, total), nil
}

// UpdateWindow moves a free slot. Only the time window is mutable; the
// free flag and service belong to the allocator and the catalog.
func (s *AvailabilityService) UpdateWindow(ctx context.Context, principal string, id uuid.UUID, start, end time.Time) (*model.Availability, error) {
	tr, err := normalizeWindow(start, end)
	if err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.owned(ctx, current.ServiceID, principal); err != nil {
		return nil, err
	}

	var updated *model.Availability
	err = s.tx.Do(ctx, func(tx *gorm.DB) error {
		if err := s.lockService(ctx, tx, current.ServiceID); err != nil {
			return err
		}
		slots := s.slots.WithTx(tx)

		slot, err := slots.LockByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("availability %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("load availability: %w", err)
		}
		if err := s.checkOverlap(ctx, slots, slot.ServiceID, slot.ID, tr); err != nil {
			return err
		}

		ok, err := slots.UpdateWindow(ctx, id, tr.Start, tr.End)
		if err != nil {
			return fmt.Errorf("update availability: %w", err)
		}
		if !ok {
			return fmt.Errorf("availability %s is booked: %w", id, ErrConflict)
		}

		updated, err = slots.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("reload availability: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return updated, nil
}

// Delete removes a slot that no booking has ever referenced.
func (s *AvailabilityService) Delete(ctx context.Context, principal string, id uuid.UUID) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.catalog.owned(ctx, current.ServiceID, principal); err != nil {
		return err
	}

	err = s.tx.Do(ctx, func(tx *gorm.DB) error {
		slots := s.slots.WithTx(tx)
		if _, err := slots.LockByID(ctx, id); err != nil {
			if repository.IsNotFound(err) {
				return fmt.Errorf("availability %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("load availability: %w", err)
		}

		n, err := s.bookings.WithTx(tx).CountByAvailability(ctx, id)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("availability %s is referenced by %d booking(s): %w", id, n, ErrConflict)
		}

		if err := slots.Delete(ctx, id); err != nil {
			if repository.IsForeignKeyViolation(err) {
				return fmt.Errorf("availability %s is referenced by a booking: %w", id, ErrConflict)
			}
			return fmt.Errorf("delete availability: %w", err)
		}
		return nil
	})
	return classify(err)
}
