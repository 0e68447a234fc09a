package services

import (
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// CatalogService assembles the public route catalog: groups, routes, and
// the bookable buses under each route with live availability
type CatalogService struct {
	routeRepo   *database.RouteRepository
	busRepo     *database.BusRepository
	tripRepo    *database.TripRepository
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	routeRepo *database.RouteRepository,
	busRepo *database.BusRepository,
	tripRepo *database.TripRepository,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *CatalogService {
	return &CatalogService{
		routeRepo:   routeRepo,
		busRepo:     busRepo,
		tripRepo:    tripRepo,
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Catalog returns the full route catalog keyed by group key:
// {"northern": [{route, buses}, ...], ...}. Each bus carries its active
// trip context when one exists; availability is recomputed from confirmed
// bookings rather than trusting the stored hint.
func (s *CatalogService) Catalog() (map[string][]models.RouteWithBuses, error) {
	groups, err := s.routeRepo.ListGroups()
	if err != nil {
		return nil, err
	}

	routes, err := s.routeRepo.ListRoutes()
	if err != nil {
		return nil, err
	}

	catalog := make(map[string][]models.RouteWithBuses, len(groups))
	routesByGroup := make(map[int64][]models.Route)
	for _, route := range routes {
		routesByGroup[route.GroupID] = append(routesByGroup[route.GroupID], route)
	}

	for _, group := range groups {
		entries := []models.RouteWithBuses{}
		for _, route := range routesByGroup[group.ID] {
			buses, err := s.busRepo.ListByRoute(route.ID)
			if err != nil {
				return nil, err
			}

			options := make([]models.BusOption, 0, len(buses))
			for _, bus := range buses {
				option, err := s.busOption(bus, route.Name)
				if err != nil {
					return nil, err
				}
				options = append(options, *option)
			}

			entries = append(entries, models.RouteWithBuses{
				ID:          route.ID,
				Name:        route.Name,
				Description: route.Description,
				Buses:       options,
			})
		}
		catalog[group.Key] = entries
	}

	return catalog, nil
}

// busOption projects a bus into its catalog entry, overlaying the active
// trip's departure and price when the bus has one
func (s *CatalogService) busOption(bus models.Bus, routeName string) (*models.BusOption, error) {
	option := &models.BusOption{
		ID:             bus.ID,
		Name:           bus.Name,
		PlateNumber:    bus.PlateNumber,
		Capacity:       bus.Capacity,
		AvailableSeats: bus.AvailableSeats,
		Price:          bus.Price,
		Route:          routeName,
	}
	if option.Route == "" {
		option.Route = bus.RouteText
	}

	trip, err := s.tripRepo.GetActiveByBus(bus.ID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return option, nil
	}

	option.TripID = &trip.ID
	option.DepartureDate = trip.DepartureDate
	option.DepartureTime = trip.DepartureTime
	if trip.Price > 0 {
		option.Price = trip.Price
	}

	booked, err := s.bookingRepo.CountConfirmedForTrip(bus.ID, trip.ID)
	if err != nil {
		return nil, err
	}
	remaining := bus.Capacity - booked
	if remaining < 0 {
		remaining = 0
	}
	option.AvailableSeats = remaining

	return option, nil
}
