package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MohammedMashal/smart-booking-system/internal/identity"
	"github.com/MohammedMashal/smart-booking-system/internal/service"
)

// Pinger reports whether the database answers.
type Pinger func(ctx context.Context) error

type Deps struct {
	Allocator    *service.BookingAllocator
	Bookings     *service.BookingQueryService
	Catalog      *service.CatalogService
	Availability *service.AvailabilityService
	Verifier     *identity.Verifier
	Ping         Pinger
	Log          *zap.Logger

	RateLimitRPS   float64
	RateLimitBurst int
}

type Handler struct {
	allocator    *service.BookingAllocator
	bookings     *service.BookingQueryService
	catalog      *service.CatalogService
	availability *service.AvailabilityService
	ping         Pinger
	log          *zap.Logger
}

// NewRouter wires middleware and routes. Everything except /healthz
// requires a bearer token.
func NewRouter(d Deps) *gin.Engine {
	h := &Handler{
		allocator:    d.Allocator,
		bookings:     d.Bookings,
		catalog:      d.Catalog,
		availability: d.Availability,
		ping:         d.Ping,
		log:          d.Log,
	}

	r := gin.New()
	r.Use(RequestID(), AccessLog(d.Log), Recovery(d.Log), RateLimit(d.Log, d.RateLimitRPS, d.RateLimitBurst))

	r.GET("/healthz", h.Health)

	api := r.Group("")
	api.Use(identity.Middleware(d.Verifier))
	{
		api.POST("/bookings", h.Reserve)
		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.PATCH("/bookings/:id/cancel", h.Release)

		api.POST("/services", h.CreateService)
		api.GET("/services", h.ListServices)
		api.GET("/services/:id", h.GetService)

		api.POST("/availability", h.CreateAvailability)
		api.GET("/availability", h.ListAvailability)
		api.GET("/availability/:id", h.GetAvailability)
		api.PATCH("/availability/:id", h.UpdateAvailability)
		api.DELETE("/availability/:id", h.DeleteAvailability)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "not_found", Message: "route not found"})
	})
	return r
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.ping != nil {
		if err := h.ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
