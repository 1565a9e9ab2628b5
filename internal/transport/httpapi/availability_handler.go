package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/MohammedMashal/smart-booking-system/internal/calendar"
	"github.com/MohammedMashal/smart-booking-system/internal/identity"
)

func (h *Handler) CreateAvailability(c *gin.Context) {
	var req createAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.availability.Create(
		c.Request.Context(),
		identity.CurrentUserID(c),
		uuid.MustParse(req.ServiceID),
		req.StartsAt,
		req.EndsAt,
	)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toAvailability(*slot))
}

func (h *Handler) ListAvailability(c *gin.Context) {
	var q availabilityQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.availability.ListByService(c.Request.Context(), uuid.MustParse(q.ServiceID), q.Free, q.Page, q.PageSize)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, calendar.Map(page, toAvailability))
}

func (h *Handler) GetAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	slot, err := h.availability.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAvailability(*slot))
}

// UpdateAvailability moves the window of a free slot.
func (h *Handler) UpdateAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req updateAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	slot, err := h.availability.UpdateWindow(c.Request.Context(), identity.CurrentUserID(c), id, req.StartsAt, req.EndsAt)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toAvailability(*slot))
}

func (h *Handler) DeleteAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.availability.Delete(c.Request.Context(), identity.CurrentUserID(c), id); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
