package handlers

import (
	"net/http"
	"strconv"

	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminHandler serves the management console endpoints. Routing already
// enforces the bearer + admin gate before these run.
type AdminHandler struct {
	admin    *services.AdminService
	trips    *services.TripService
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	admin *services.AdminService,
	trips *services.TripService,
	bookings *services.BookingService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		trips:    trips,
		bookings: bookings,
		logger:   logger,
	}
}

// GetFleet handles GET /api/admin/fleet
func (h *AdminHandler) GetFleet(c *gin.Context) {
	fleet, err := h.admin.Fleet()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, fleet)
}

// CreateBus handles POST /api/admin/buses
func (h *AdminHandler) CreateBus(c *gin.Context) {
	var req models.CreateBusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and routeId are required"})
		return
	}

	bus, err := h.admin.CreateBus(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, bus)
}

// CreateTrip handles POST /api/admin/trips
func (h *AdminHandler) CreateTrip(c *gin.Context) {
	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "routeId and busId are required"})
		return
	}

	trip, err := h.trips.CreateTrip(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, trip)
}

// EndTrip handles POST /api/admin/trips/:tripId/end
func (h *AdminHandler) EndTrip(c *gin.Context) {
	tripID, err := strconv.ParseInt(c.Param("tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		return
	}

	trip, err := h.trips.EndTrip(tripID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, trip)
}

// ManualBooking handles POST /api/admin/bookings/manual
func (h *AdminHandler) ManualBooking(c *gin.Context) {
	var req models.ManualBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required booking fields"})
		return
	}

	confirmation, err := h.bookings.ManualBooking(&req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, confirmation)
}

// GetDashboard handles GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, recent, err := h.admin.Dashboard()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":           stats,
		"recent_bookings": recent,
	})
}

// GetUpcomingBookings handles GET /api/admin/bookings/upcoming
func (h *AdminHandler) GetUpcomingBookings(c *gin.Context) {
	filter := models.UpcomingBookingsFilter{
		DateFrom: c.Query("dateFrom"),
		DateTo:   c.Query("dateTo"),
		Status:   c.Query("status"),
	}

	if raw := c.Query("routeId"); raw != "" {
		routeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || routeID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid route ID"})
			return
		}
		filter.RouteID = &routeID
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			filter.Offset = offset
		}
	}

	report, err := h.admin.UpcomingBookings(filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
