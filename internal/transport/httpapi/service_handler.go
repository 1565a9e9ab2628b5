package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MohammedMashal/smart-booking-system/internal/calendar"
	"github.com/MohammedMashal/smart-booking-system/internal/identity"
	"github.com/MohammedMashal/smart-booking-system/internal/service"
)

func (h *Handler) CreateService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.catalog.Create(c.Request.Context(), identity.CurrentUserID(c), service.ServiceInput{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Capacity:    req.Capacity,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toService(*svc))
}

func (h *Handler) GetService(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	svc, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toService(*svc))
}

func (h *Handler) ListServices(c *gin.Context) {
	var q pageQuery
	if !bindQuery(c, &q) {
		return
	}

	page, err := h.catalog.List(c.Request.Context(), q.Page, q.PageSize)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, calendar.Map(page, toService))
}
