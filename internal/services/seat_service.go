package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/pkg/seatkey"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LockTTL is how long a seat hold lives without a refresh.
const LockTTL = 5 * time.Minute

// SeatService computes seat availability and manages the seat lock
// lifecycle. All uniqueness guarantees ride on the repository's
// conditional writes; this layer holds no in-process state.
type SeatService struct {
	busRepo     *database.BusRepository
	bookingRepo *database.BookingRepository
	lockRepo    *database.SeatLockRepository
	trips       *TripService
	logger      *logrus.Logger
}

// NewSeatService creates a new seat service
func NewSeatService(
	busRepo *database.BusRepository,
	bookingRepo *database.BookingRepository,
	lockRepo *database.SeatLockRepository,
	trips *TripService,
	logger *logrus.Logger,
) *SeatService {
	return &SeatService{
		busRepo:     busRepo,
		bookingRepo: bookingRepo,
		lockRepo:    lockRepo,
		trips:       trips,
		logger:      logger,
	}
}

// spellings returns the canonical seat plus its legacy form, for matching
// rows written before seat numbers were canonicalized
func spellings(canonical string) []string {
	legacy := seatkey.LegacyOf(canonical)
	if legacy == "" {
		return []string{canonical}
	}
	return []string{canonical, legacy}
}

// sortSeats orders canonical seat strings numerically
func sortSeats(seats []string) []string {
	sort.Slice(seats, func(i, j int) bool {
		a, _ := strconv.Atoi(seats[i])
		b, _ := strconv.Atoi(seats[j])
		return a < b
	})
	return seats
}

// GetSeats returns the availability snapshot for (bus, trip). Seats held
// by ownerLockID stay in the available list (the client renders them as
// its own selection) and also appear in own_locked.
func (s *SeatService) GetSeats(busID int64, tripID *int64, ownerLockID string) (*models.SeatMap, error) {
	bus, err := s.busRepo.GetByID(busID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: bus %d", ErrNotFound, busID)
	}

	trip, err := s.trips.Resolve(busID, tripID)
	if err != nil {
		return nil, err
	}
	var resolvedTripID *int64
	if trip != nil {
		resolvedTripID = &trip.ID
	}

	now := time.Now()

	bookedRaw, err := s.bookingRepo.ListConfirmedSeats(busID, resolvedTripID)
	if err != nil {
		return nil, err
	}

	// Canonicalize and dedupe: a legacy "D8" row and a "38" row are the
	// same seat
	booked := make(map[string]bool)
	for _, raw := range bookedRaw {
		canonical, err := seatkey.Normalize(raw, bus.Capacity)
		if err != nil {
			continue
		}
		booked[canonical] = true
	}

	locks, err := s.lockRepo.ListActive(busID, resolvedTripID, now)
	if err != nil {
		return nil, err
	}

	lockedByOthers := make(map[string]bool)
	ownLocked := make(map[string]bool)
	for _, lock := range locks {
		canonical, err := seatkey.Normalize(lock.SeatNumber, bus.Capacity)
		if err != nil {
			continue
		}
		if ownerLockID != "" && lock.LockedBy == ownerLockID {
			ownLocked[canonical] = true
		} else {
			lockedByOthers[canonical] = true
		}
	}

	seatMap := &models.SeatMap{
		TripID:    resolvedTripID,
		Available: []string{},
		Locked:    []string{},
		OwnLocked: []string{},
		Booked:    []string{},
	}

	for seat := range booked {
		seatMap.Booked = append(seatMap.Booked, seat)
	}
	for seat := range lockedByOthers {
		seatMap.Locked = append(seatMap.Locked, seat)
	}
	for seat := range ownLocked {
		seatMap.OwnLocked = append(seatMap.OwnLocked, seat)
	}
	for n := 1; n <= bus.Capacity; n++ {
		seat := strconv.Itoa(n)
		if !booked[seat] && !lockedByOthers[seat] {
			seatMap.Available = append(seatMap.Available, seat)
		}
	}

	sortSeats(seatMap.Available)
	sortSeats(seatMap.Locked)
	sortSeats(seatMap.OwnLocked)
	sortSeats(seatMap.Booked)

	return seatMap, nil
}

// AcquireLock holds a seat for the lock session. Re-locking from the same
// owner refreshes the TTL; a seat held by anyone else fails with
// ErrSeatAlreadyLocked; a sold seat fails with ErrSeatAlreadyBooked.
func (s *SeatService) AcquireLock(busID int64, req *models.LockSeatRequest) (*models.LockSeatResponse, error) {
	bus, err := s.busRepo.GetByID(busID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: bus %d", ErrNotFound, busID)
	}

	trip, err := s.trips.Resolve(busID, req.TripID)
	if err != nil {
		return nil, err
	}
	var tripID *int64
	if trip != nil {
		tripID = &trip.ID
	}

	canonical, err := seatkey.Normalize(req.Seat, bus.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputInvalid, err)
	}
	seats := spellings(canonical)

	owner := req.LockID
	if owner == "" {
		owner = uuid.NewString()
	}

	now := time.Now()

	// Lazy GC: expired locks for this seat, plus locks written under a
	// different trip namespace for the same physical seat
	if err := s.lockRepo.DeleteExpired(busID, seats, now); err != nil {
		return nil, err
	}
	if tripID != nil {
		if err := s.lockRepo.DeleteTripMismatched(busID, *tripID, seats); err != nil {
			return nil, err
		}
	}

	existing, err := s.lockRepo.GetActiveBySeat(busID, tripID, seats, now)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.LockedBy != owner {
		return nil, ErrSeatAlreadyLocked
	}

	sold, err := s.bookingRepo.HasConfirmedSeat(busID, tripID, seats)
	if err != nil {
		return nil, err
	}
	if sold {
		return nil, ErrSeatAlreadyBooked
	}

	expiresAt := now.Add(LockTTL)

	refreshed, err := s.lockRepo.ExtendOwned(busID, tripID, seats, owner, expiresAt)
	if err != nil {
		return nil, err
	}
	if refreshed == 0 {
		lock := &models.SeatLock{
			BusID:      busID,
			TripID:     tripID,
			SeatNumber: canonical,
			LockedBy:   owner,
			ExpiresAt:  expiresAt,
		}
		inserted, err := s.lockRepo.InsertIfFree(lock, seats, now)
		if err != nil {
			return nil, err
		}
		if !inserted {
			// A concurrent acquirer won between our read and this insert
			return nil, ErrSeatAlreadyLocked
		}
	}

	s.logger.WithFields(logrus.Fields{
		"bus_id": busID,
		"seat":   canonical,
	}).Debug("Seat locked")

	return &models.LockSeatResponse{
		LockID:    owner,
		TripID:    tripID,
		Seat:      canonical,
		ExpiresAt: expiresAt,
	}, nil
}

// ReleaseLock drops the caller's hold on a seat. Releasing a seat that is
// not held is a silent no-op so retries are safe.
func (s *SeatService) ReleaseLock(busID int64, req *models.UnlockSeatRequest) (*int64, string, error) {
	if req.LockID == "" {
		return nil, "", fmt.Errorf("%w: lockId is required", ErrInputInvalid)
	}

	bus, err := s.busRepo.GetByID(busID)
	if err != nil {
		return nil, "", err
	}
	if bus == nil {
		return nil, "", fmt.Errorf("%w: bus %d", ErrNotFound, busID)
	}

	trip, err := s.trips.Resolve(busID, req.TripID)
	if err != nil {
		return nil, "", err
	}
	var tripID *int64
	if trip != nil {
		tripID = &trip.ID
	}

	canonical, err := seatkey.Normalize(req.Seat, bus.Capacity)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInputInvalid, err)
	}

	if _, err := s.lockRepo.DeleteOwned(busID, tripID, spellings(canonical), req.LockID); err != nil {
		return nil, "", err
	}

	return tripID, canonical, nil
}
