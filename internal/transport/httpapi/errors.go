package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MohammedMashal/smart-booking-system/internal/service"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// retryAfterSeconds is advertised on 503 responses.
const retryAfterSeconds = "1"

// statusClientClosedRequest is written when the caller went away before
// the store answered (nginx convention).
const statusClientClosedRequest = 499

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, service.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "canceled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError maps a service error to its HTTP status. Internal errors
// are logged and their text is not returned to the client.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	status, code := statusFor(err)

	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", retryAfterSeconds)
		msg = "temporarily unavailable, retry the request"
	case http.StatusInternalServerError:
		log.Error("request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		msg = "internal error"
	case statusClientClosedRequest:
		msg = "request canceled"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: "invalid_argument", Message: msg})
}
