package handlers

import (
	"net/http"
	"strconv"

	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SeatHandler serves seat availability and the lock/unlock lifecycle
type SeatHandler struct {
	seats  *services.SeatService
	logger *logrus.Logger
}

// NewSeatHandler creates a new seat handler
func NewSeatHandler(seats *services.SeatService, logger *logrus.Logger) *SeatHandler {
	return &SeatHandler{seats: seats, logger: logger}
}

// busID parses the :busId path parameter
func busID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("busId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid bus ID"})
		return 0, false
	}
	return id, true
}

// queryTripID parses the optional ?tripId query parameter
func queryTripID(c *gin.Context) (*int64, bool) {
	raw := c.Query("tripId")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trip ID"})
		return nil, false
	}
	return &id, true
}

// GetSeats handles GET /api/bus/:busId/seats
func (h *SeatHandler) GetSeats(c *gin.Context) {
	id, ok := busID(c)
	if !ok {
		return
	}
	tripID, ok := queryTripID(c)
	if !ok {
		return
	}

	seatMap, err := h.seats.GetSeats(id, tripID, c.Query("lockId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, seatMap)
}

// LockSeat handles POST /api/bus/:busId/lock-seat
func (h *SeatHandler) LockSeat(c *gin.Context) {
	id, ok := busID(c)
	if !ok {
		return
	}

	var req models.LockSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seat is required"})
		return
	}

	resp, err := h.seats.AcquireLock(id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UnlockSeat handles POST /api/bus/:busId/unlock-seat
func (h *SeatHandler) UnlockSeat(c *gin.Context) {
	id, ok := busID(c)
	if !ok {
		return
	}

	var req models.UnlockSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seat is required"})
		return
	}

	tripID, seat, err := h.seats.ReleaseLock(id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unlocked": true,
		"trip_id":  tripID,
		"seat":     seat,
	})
}
