package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MohammedMashal/smart-booking-system/internal/testutil"
)

func TestAvailability_CreateAndList(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	svc := testutil.SeedService(t, s.db, "owner")

	slot, err := s.availability.Create(ctx, "owner", svc.ID, slotStart, slotStart.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, slot.IsFree)
	assert.Equal(t, svc.ID, slot.ServiceID)

	// touching windows are allowed
	_, err = s.availability.Create(ctx, "owner", svc.ID, slotStart.Add(time.Hour), slotStart.Add(2*time.Hour))
	require.NoError(t, err)

	page, err := s.availability.ListByService(ctx, svc.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	_, err = s.allocator.Reserve(ctx, "alice", svc.ID, slot.ID)
	require.NoError(t, err)

	page, err = s.availability.ListByService(ctx, svc.ID, true, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotEqual(t, slot.ID, page.Items[0].ID)

	_, err = s.availability.ListByService(ctx, uuid.New(), false, 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailability_CreateRejects(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	svc := testutil.SeedService(t, s.db, "owner")
	_, err := s.availability.Create(ctx, "owner", svc.ID, slotStart, slotStart.Add(time.Hour))
	require.NoError(t, err)

	tests := []struct {
		name      string
		principal string
		serviceID uuid.UUID
		start     time.Time
		end       time.Time
		want      error
	}{
		{"end before start", "owner", svc.ID, slotStart.Add(time.Hour), slotStart, ErrInvalidArgument},
		{"empty window", "owner", svc.ID, slotStart, slotStart, ErrInvalidArgument},
		{"too long", "owner", svc.ID, slotStart, slotStart.Add(MaxSlotDuration + time.Minute), ErrInvalidArgument},
		{"overlap", "owner", svc.ID, slotStart.Add(30 * time.Minute), slotStart.Add(90 * time.Minute), ErrConflict},
		{"not owner", "mallory", svc.ID, slotStart.Add(3 * time.Hour), slotStart.Add(4 * time.Hour), ErrForbidden},
		{"unknown service", "owner", uuid.New(), slotStart.Add(3 * time.Hour), slotStart.Add(4 * time.Hour), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.availability.Create(ctx, tt.principal, tt.serviceID, tt.start, tt.end)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAvailability_UpdateWindow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	svc := testutil.SeedService(t, s.db, "owner")
	slot, err := s.availability.Create(ctx, "owner", svc.ID, slotStart, slotStart.Add(time.Hour))
	require.NoError(t, err)
	next, err := s.availability.Create(ctx, "owner", svc.ID, slotStart.Add(2*time.Hour), slotStart.Add(3*time.Hour))
	require.NoError(t, err)

	moved, err := s.availability.UpdateWindow(ctx, "owner", slot.ID, slotStart.Add(30*time.Minute), slotStart.Add(90*time.Minute))
	require.NoError(t, err)
	assert.True(t, moved.StartsAt.Equal(slotStart.Add(30*time.Minute)))
	assert.True(t, moved.IsFree)

	_, err = s.availability.UpdateWindow(ctx, "owner", slot.ID, slotStart.Add(150*time.Minute), slotStart.Add(4*time.Hour))
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.availability.UpdateWindow(ctx, "mallory", slot.ID, slotStart, slotStart.Add(time.Hour))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.allocator.Reserve(ctx, "alice", svc.ID, next.ID)
	require.NoError(t, err)
	_, err = s.availability.UpdateWindow(ctx, "owner", next.ID, slotStart.Add(5*time.Hour), slotStart.Add(6*time.Hour))
	assert.ErrorIs(t, err, ErrConflict)
	assert.True(t, testutil.LoadSlot(t, s.db, next.ID).StartsAt.Equal(slotStart.Add(2*time.Hour)))

	_, err = s.availability.UpdateWindow(ctx, "owner", uuid.New(), slotStart, slotStart.Add(time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvailability_Delete(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	svc := testutil.SeedService(t, s.db, "owner")
	unused, err := s.availability.Create(ctx, "owner", svc.ID, slotStart, slotStart.Add(time.Hour))
	require.NoError(t, err)
	booked, err := s.availability.Create(ctx, "owner", svc.ID, slotStart.Add(time.Hour), slotStart.Add(2*time.Hour))
	require.NoError(t, err)

	assert.ErrorIs(t, s.availability.Delete(ctx, "mallory", unused.ID), ErrForbidden)
	require.NoError(t, s.availability.Delete(ctx, "owner", unused.ID))
	_, err = s.availability.Get(ctx, unused.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := s.allocator.Reserve(ctx, "alice", svc.ID, booked.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, s.availability.Delete(ctx, "owner", booked.ID), ErrConflict)

	// a cancelled booking still references the slot
	_, err = s.allocator.Release(ctx, b.ID, "alice")
	require.NoError(t, err)
	assert.ErrorIs(t, s.availability.Delete(ctx, "owner", booked.ID), ErrConflict)
}

func TestAvailability_ConcurrentOverlappingCreates(t *testing.T) {
	s := newStack(t)
	svc := testutil.SeedService(t, s.db, "owner")

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every window overlaps every other one
			offset := time.Duration(i) * time.Minute
			_, err := s.availability.Create(context.Background(), "owner", svc.ID,
				slotStart.Add(offset), slotStart.Add(time.Hour+offset))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, n-1, conflicts)

	page, err := s.availability.ListByService(context.Background(), svc.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
