package services

import (
	"fmt"

	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// AdminService backs the management console: fleet options, dashboard
// stats, and the upcoming-bookings report
type AdminService struct {
	routeRepo   *database.RouteRepository
	busRepo     *database.BusRepository
	tripRepo    *database.TripRepository
	bookingRepo *database.BookingRepository
	userRepo    *database.UserRepository
	logger      *logrus.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	routeRepo *database.RouteRepository,
	busRepo *database.BusRepository,
	tripRepo *database.TripRepository,
	bookingRepo *database.BookingRepository,
	userRepo *database.UserRepository,
	logger *logrus.Logger,
) *AdminService {
	return &AdminService{
		routeRepo:   routeRepo,
		busRepo:     busRepo,
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		logger:      logger,
	}
}

// FleetOptions is the admin scheduling bootstrap: everything needed to
// populate the trip-creation form plus the live and recent trips
type FleetOptions struct {
	Routes      []models.Route          `json:"routes"`
	Buses       []models.Bus            `json:"buses"`
	ActiveTrips []models.TripWithCounts `json:"active_trips"`
	RecentTrips []models.TripSchedule   `json:"recent_trips"`
}

// Fleet gathers routes, buses, active trips with seat counts, and the
// latest ended trips
func (s *AdminService) Fleet() (*FleetOptions, error) {
	routes, err := s.routeRepo.ListRoutes()
	if err != nil {
		return nil, err
	}

	buses, err := s.busRepo.ListAll()
	if err != nil {
		return nil, err
	}

	active, err := s.tripRepo.ListActiveWithCounts()
	if err != nil {
		return nil, err
	}

	recent, err := s.tripRepo.ListRecentEnded(20)
	if err != nil {
		return nil, err
	}

	return &FleetOptions{
		Routes:      routes,
		Buses:       buses,
		ActiveTrips: active,
		RecentTrips: recent,
	}, nil
}

// CreateBus registers a new bus. The seat hint is clamped to the
// [0, capacity] range.
func (s *AdminService) CreateBus(req *models.CreateBusRequest) (*models.Bus, error) {
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInputInvalid)
	}
	capacity := req.Capacity

	available := req.AvailableSeats
	if available < 0 {
		available = 0
	}
	if available > capacity {
		available = capacity
	}

	routeID := req.RouteID
	bus := &models.Bus{
		RouteID:        &routeID,
		Name:           req.Name,
		PlateNumber:    req.PlateNumber,
		Capacity:       capacity,
		AvailableSeats: available,
		Price:          req.Price,
		RouteText:      req.RouteText,
	}

	bus, err := s.busRepo.Create(bus)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id": bus.ID,
		"name":   bus.Name,
	}).Info("Bus registered")

	return bus, nil
}

// Dashboard aggregates counts and revenue for the admin landing page
func (s *AdminService) Dashboard() (*models.DashboardStats, []models.RecentBooking, error) {
	stats := &models.DashboardStats{}

	var err error
	if stats.Routes, err = s.routeRepo.CountRoutes(); err != nil {
		return nil, nil, err
	}
	if stats.Buses, err = s.busRepo.CountBuses(); err != nil {
		return nil, nil, err
	}
	if stats.Users, err = s.userRepo.CountUsers(); err != nil {
		return nil, nil, err
	}
	if stats.PendingBookings, err = s.bookingRepo.CountByStatus(models.BookingStatusPending); err != nil {
		return nil, nil, err
	}
	if stats.ConfirmedBookings, err = s.bookingRepo.CountByStatus(models.BookingStatusConfirmed); err != nil {
		return nil, nil, err
	}
	if stats.CancelledBookings, err = s.bookingRepo.CountByStatus(models.BookingStatusCancelled); err != nil {
		return nil, nil, err
	}
	if stats.Revenue, err = s.bookingRepo.ConfirmedRevenue(); err != nil {
		return nil, nil, err
	}

	recent, err := s.bookingRepo.RecentWithReceipts(8)
	if err != nil {
		return nil, nil, err
	}

	return stats, recent, nil
}

// UpcomingReport is the paginated upcoming-bookings report with its
// summary footer
type UpcomingReport struct {
	Bookings []models.UpcomingBookingRow `json:"bookings"`
	Summary  models.BookingsSummary      `json:"summary"`
	Limit    int                         `json:"limit"`
	Offset   int                         `json:"offset"`
}

// UpcomingBookings runs the admin report for the given filter
func (s *AdminService) UpcomingBookings(f models.UpcomingBookingsFilter) (*UpcomingReport, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	rows, err := s.bookingRepo.Upcoming(f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.UpcomingBookingRow{}
	}

	summary, err := s.bookingRepo.UpcomingSummary(f)
	if err != nil {
		return nil, err
	}

	return &UpcomingReport{
		Bookings: rows,
		Summary:  *summary,
		Limit:    f.Limit,
		Offset:   f.Offset,
	}, nil
}
