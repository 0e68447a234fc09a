package handlers

import (
	"errors"
	"net/http"

	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError translates a service error into its HTTP status and a
// {"error": …} body. Unrecognized errors become a generic 500 so internals
// never leak to clients.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrInputInvalid),
		errors.Is(err, services.ErrSeatAlreadyLocked),
		errors.Is(err, services.ErrSeatAlreadyBooked),
		errors.Is(err, services.ErrLockExpired),
		errors.Is(err, services.ErrPaymentVerificationFailed),
		errors.Is(err, services.ErrPaymentAmountMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logger.WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
