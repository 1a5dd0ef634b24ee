package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrOrderNotCancellable):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock), errors.Is(err, service.ErrProductUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// writeError renders err. Internal failures are logged and replaced by a
// generic message.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)

	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(status, gin.H{"error": "validation failed", "errors": ve.Fields})
	case errors.Is(err, service.ErrOrderNotCancellable):
		c.JSON(status, gin.H{"error": "order not found or cannot be cancelled"})
	case status == http.StatusInternalServerError:
		fields := append([]zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		}, util.TraceFields(c.Request.Context())...)
		h.logger.Error("Request failed", fields...)
		c.JSON(status, gin.H{"error": "internal server error"})
	default:
		c.JSON(status, gin.H{"error": publicMessage(err)})
	}
}

// publicMessage strips the taxonomy prefix, e.g. "conflict: insufficient
// stock" becomes "insufficient stock".
func publicMessage(err error) string {
	msg := err.Error()
	for _, base := range []error{service.ErrConflict, service.ErrUnauthorized, service.ErrForbidden} {
		msg = strings.TrimPrefix(msg, base.Error()+": ")
	}
	return msg
}

// badRequest answers a body or query that could not be decoded. The
// decoder's message names Go types, so it is only logged.
func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.Debug("Rejected undecodable request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}

// pathID parses a positive integer path parameter, writing a 404 when it
// is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return 0, false
	}
	return id, true
}
