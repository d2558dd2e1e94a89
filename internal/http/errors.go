package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-keeper/internal/domain"
)

// statusFor maps a service error to the response the client sees. Every
// authentication failure gets the same 401 body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrTokenSignatureInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrDuplicateIdentity):
		return http.StatusConflict, "identity already exists"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInputTooLarge):
		return http.StatusBadRequest, "input too large"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrStorageDisabled):
		return http.StatusServiceUnavailable, "attachments are not available"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := statusFor(err)

	entry := h.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"route":      c.FullPath(),
		"status":     status,
	}).WithError(err)
	switch {
	case status >= http.StatusInternalServerError:
		entry.Error("request failed")
	case status == http.StatusUnauthorized:
		entry.Warn("request rejected")
	default:
		entry.Debug("request rejected")
	}

	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
