package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohammedMashal/smart-booking-system/internal/calendar"
	"github.com/MohammedMashal/smart-booking-system/internal/identity"
)

// Reserve handles POST /bookings.
func (h *Handler) Reserve(c *gin.Context) {
	var req reserveRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.allocator.Reserve(
		c.Request.Context(),
		identity.CurrentUserID(c),
		uuid.MustParse(req.ServiceID),
		uuid.MustParse(req.AvailabilityID),
	)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toBooking(b))
}

// Release handles PATCH /bookings/:id/cancel.
func (h *Handler) Release(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	b, err := h.allocator.Release(c.Request.Context(), id, identity.CurrentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBooking(b))
}

func (h *Handler) ListBookings(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.bookings.ListForUser(c.Request.Context(), identity.CurrentUserID(c), q.Page, q.PageSize)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, calendar.Map(page, toBookingView))
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	v, err := h.bookings.GetForUser(c.Request.Context(), id, identity.CurrentUserID(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toBookingView(*v))
}
