package handlers

import (
	"net/http"

	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/middleware"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler serves the signed-in user's own data
type UserHandler struct {
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(bookingRepo *database.BookingRepository, logger *logrus.Logger) *UserHandler {
	return &UserHandler{bookingRepo: bookingRepo, logger: logger}
}

// GetBookings handles GET /api/user/bookings. Bookings are keyed to the
// user through the passenger contact email.
func (h *UserHandler) GetBookings(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	bookings, err := h.bookingRepo.ListByPassengerEmail(user.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if bookings == nil {
		bookings = []models.UpcomingBookingRow{}
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// GetProfile handles GET /api/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
