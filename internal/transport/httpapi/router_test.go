package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/MohammedMashal/smart-booking-system/internal/identity"
	"github.com/MohammedMashal/smart-booking-system/internal/repository"
	"github.com/MohammedMashal/smart-booking-system/internal/service"
	"github.com/MohammedMashal/smart-booking-system/internal/testutil"
)

type testServer struct {
	router   *gin.Engine
	db       *gorm.DB
	verifier *identity.Verifier
}

func newTestServer(t *testing.T, rps float64) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewSQLiteDB(t)
	tx := repository.NewGormTxManager(db)
	slots := repository.NewGormAvailabilityRepository(db)
	bookings := repository.NewGormBookingRepository(db)
	events := repository.NewGormEventRepository(db)
	services := repository.NewGormServiceRepository(db)
	catalog := service.NewCatalogService(services)
	verifier := identity.NewVerifier("test-secret", "")
	log := zap.NewNop()

	router := NewRouter(Deps{
		Allocator:    service.NewBookingAllocator(tx, slots, bookings, events, service.NewRepositoryCatalog(services), log),
		Bookings:     service.NewBookingQueryService(bookings),
		Catalog:      catalog,
		Availability: service.NewAvailabilityService(tx, slots, bookings, catalog),
		Verifier:     verifier,
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Log:            log,
		RateLimitRPS:   rps,
		RateLimitBurst: 2,
	})
	return &testServer{router: router, db: db, verifier: verifier}
}

func (s *testServer) do(t *testing.T, user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := s.verifier.Sign(identity.Principal{ID: user}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var start = time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t, 0)
	svc := testutil.SeedService(t, s.db, "owner")
	slot := testutil.SeedSlot(t, s.db, svc.ID, start)
	body := map[string]string{"serviceId": svc.ID.String(), "availabilityId": slot.ID.String()}

	w := s.do(t, "alice", http.MethodPost, "/bookings", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booked := decode[bookingResponse](t, w)
	assert.Equal(t, "alice", booked.UserID)
	require.NotNil(t, booked.Availability)
	assert.False(t, booked.Availability.IsFree)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(t, "bob", http.MethodPost, "/bookings", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decode[ErrorResponse](t, w).Code)

	w = s.do(t, "bob", http.MethodGet, "/bookings/"+booked.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, "bob", http.MethodPatch, "/bookings/"+booked.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "alice", http.MethodGet, "/bookings?page=1&pageSize=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []bookingViewResponse `json:"items"`
		Total int                   `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, svc.Name, page.Items[0].Service.Name)

	w = s.do(t, "alice", http.MethodPatch, "/bookings/"+booked.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cancelled := decode[bookingResponse](t, w)
	assert.Equal(t, "cancelled", string(cancelled.Status))
	assert.NotNil(t, cancelled.CancelledAt)

	w = s.do(t, "alice", http.MethodPatch, "/bookings/"+booked.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "bob", http.MethodPost, "/bookings", body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(t, "alice", http.MethodPost, "/bookings", map[string]string{"serviceId": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_argument", decode[ErrorResponse](t, w).Code)

	w = s.do(t, "alice", http.MethodGet, "/bookings/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "alice", http.MethodGet, "/bookings?pageSize=1000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "", http.MethodGet, "/bookings", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceAndAvailabilityRoutes(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(t, "owner", http.MethodPost, "/services", map[string]any{"name": "Yoga", "priceCents": 1500})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc := decode[serviceResponse](t, w)
	assert.Equal(t, "owner", svc.OwnerID)

	w = s.do(t, "alice", http.MethodGet, "/services/"+svc.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	window := map[string]any{
		"serviceId": svc.ID.String(),
		"startsAt":  start,
		"endsAt":    start.Add(time.Hour),
	}
	w = s.do(t, "mallory", http.MethodPost, "/availability", window)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, "owner", http.MethodPost, "/availability", window)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	slot := decode[availabilityResponse](t, w)
	assert.True(t, slot.IsFree)

	w = s.do(t, "owner", http.MethodPost, "/availability", window)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, "alice", http.MethodGet, fmt.Sprintf("/availability?serviceId=%s&free=true", svc.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), slot.ID.String())

	moved := map[string]any{"startsAt": start.Add(2 * time.Hour), "endsAt": start.Add(3 * time.Hour), "isFree": false}
	w = s.do(t, "owner", http.MethodPatch, "/availability/"+slot.ID.String(), moved)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[availabilityResponse](t, w)
	assert.True(t, updated.IsFree, "isFree is not writable through the window update")
	assert.True(t, updated.StartsAt.Equal(start.Add(2*time.Hour)))

	w = s.do(t, "owner", http.MethodDelete, "/availability/"+slot.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, "owner", http.MethodGet, "/availability/"+slot.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	w := s.do(t, "", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 0.001)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(t, "", http.MethodGet, "/healthz", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err        error
		status     int
		retryAfter bool
	}{
		{fmt.Errorf("x: %w", service.ErrNotFound), http.StatusNotFound, false},
		{fmt.Errorf("x: %w", service.ErrConflict), http.StatusConflict, false},
		{fmt.Errorf("x: %w", service.ErrForbidden), http.StatusForbidden, false},
		{fmt.Errorf("x: %w", service.ErrInvalidArgument), http.StatusBadRequest, false},
		{fmt.Errorf("x: %w", service.ErrTransient), http.StatusServiceUnavailable, true},
		{errors.New("boom"), http.StatusInternalServerError, false},
		{fmt.Errorf("reserve: %w", context.Canceled), statusClientClosedRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			core, logs := observer.New(zap.ErrorLevel)
			writeError(c, zap.New(core), tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After") != "")
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "boom")
				assert.Equal(t, 1, logs.Len())
			} else {
				assert.Zero(t, logs.Len(), "only internal errors are logged at error level")
			}
		})
	}
}
