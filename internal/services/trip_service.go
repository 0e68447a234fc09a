package services

import (
	"fmt"

	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// TripService resolves active trips and runs the admin trip lifecycle
type TripService struct {
	tripRepo    *database.TripRepository
	routeRepo   *database.RouteRepository
	busRepo     *database.BusRepository
	bookingRepo *database.BookingRepository
	lockRepo    *database.SeatLockRepository
	logger      *logrus.Logger
}

// NewTripService creates a new trip service
func NewTripService(
	tripRepo *database.TripRepository,
	routeRepo *database.RouteRepository,
	busRepo *database.BusRepository,
	bookingRepo *database.BookingRepository,
	lockRepo *database.SeatLockRepository,
	logger *logrus.Logger,
) *TripService {
	return &TripService{
		tripRepo:    tripRepo,
		routeRepo:   routeRepo,
		busRepo:     busRepo,
		bookingRepo: bookingRepo,
		lockRepo:    lockRepo,
		logger:      logger,
	}
}

// Resolve returns the scheduled trip for (bus, tripID). With an explicit
// tripID the trip must exist, belong to the bus, and be active. Without
// one, the most recent active trip is returned — or nil, which is the
// legal trip-null mode for buses that predate trip scheduling.
func (s *TripService) Resolve(busID int64, tripID *int64) (*models.TripSchedule, error) {
	if tripID != nil {
		trip, err := s.tripRepo.GetByID(*tripID)
		if err != nil {
			return nil, err
		}
		if trip == nil || trip.BusID != busID {
			return nil, fmt.Errorf("%w: trip %d", ErrNotFound, *tripID)
		}
		if trip.Status != models.TripStatusActive {
			return nil, fmt.Errorf("%w: trip %d is %s", ErrNotFound, *tripID, trip.Status)
		}
		return trip, nil
	}

	return s.tripRepo.GetActiveByBus(busID)
}

// CreateTrip schedules a new active trip for a bus. A bus can have at most
// one active trip; scheduling resets the bus seat hint and adopts the
// trip's route and price onto the bus row.
func (s *TripService) CreateTrip(req *models.CreateTripRequest) (*models.TripSchedule, error) {
	bus, err := s.busRepo.GetByID(req.BusID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: bus %d", ErrNotFound, req.BusID)
	}

	route, err := s.routeRepo.GetRouteByID(req.RouteID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, fmt.Errorf("%w: route %d", ErrNotFound, req.RouteID)
	}

	existing, err := s.tripRepo.GetActiveByBus(req.BusID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: bus %d already has an active trip", ErrInputInvalid, req.BusID)
	}

	price := req.Price
	if price <= 0 {
		price = bus.Price
	}

	trip := &models.TripSchedule{
		RouteID:       req.RouteID,
		BusID:         req.BusID,
		DepartureDate: req.DepartureDate,
		DepartureTime: req.DepartureTime,
		Price:         price,
	}

	trip, err = s.tripRepo.Create(trip)
	if err != nil {
		return nil, err
	}

	if err := s.busRepo.AssignTrip(req.BusID, req.RouteID, price, bus.Capacity); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"trip_id": trip.ID,
		"bus_id":  trip.BusID,
	}).Info("Trip scheduled")

	return trip, nil
}

// EndTrip completes an active trip: marks it completed, resets the bus
// seat hint to capacity, and wipes every seat lock held under the trip.
func (s *TripService) EndTrip(tripID int64) (*models.TripSchedule, error) {
	trip, err := s.tripRepo.GetByID(tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, fmt.Errorf("%w: trip %d", ErrNotFound, tripID)
	}
	if trip.Status != models.TripStatusActive {
		return nil, fmt.Errorf("%w: trip %d is not active", ErrInputInvalid, tripID)
	}

	ended, err := s.tripRepo.End(tripID)
	if err != nil {
		return nil, err
	}
	if !ended {
		// Lost a race with another admin ending the same trip
		return nil, fmt.Errorf("%w: trip %d is not active", ErrInputInvalid, tripID)
	}

	bus, err := s.busRepo.GetByID(trip.BusID)
	if err != nil {
		return nil, err
	}
	if bus != nil {
		if err := s.busRepo.SetAvailableSeats(bus.ID, bus.Capacity); err != nil {
			return nil, err
		}
	}

	if err := s.lockRepo.DeleteForTrip(tripID); err != nil {
		return nil, err
	}

	s.logger.WithField("trip_id", tripID).Info("Trip ended")

	return s.tripRepo.GetByID(tripID)
}
