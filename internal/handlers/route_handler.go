package handlers

import (
	"net/http"
	"strconv"

	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouteHandler serves the public route catalog and passenger listing
type RouteHandler struct {
	catalog       *services.CatalogService
	passengerRepo *database.PassengerRepository
	logger        *logrus.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(
	catalog *services.CatalogService,
	passengerRepo *database.PassengerRepository,
	logger *logrus.Logger,
) *RouteHandler {
	return &RouteHandler{
		catalog:       catalog,
		passengerRepo: passengerRepo,
		logger:        logger,
	}
}

// GetRoutes handles GET /api/routes
func (h *RouteHandler) GetRoutes(c *gin.Context) {
	catalog, err := h.catalog.Catalog()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, catalog)
}

// GetPassengers handles GET /api/passengers
func (h *RouteHandler) GetPassengers(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	passengers, err := h.passengerRepo.List(limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"passengers": passengers,
		"limit":      limit,
		"offset":     offset,
	})
}
