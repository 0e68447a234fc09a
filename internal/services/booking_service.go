package services

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/pkg/seatkey"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingService finalizes paid reservations into confirmed bookings and
// handles the admin manual-booking path
type BookingService struct {
	busRepo       *database.BusRepository
	routeRepo     *database.RouteRepository
	passengerRepo *database.PassengerRepository
	bookingRepo   *database.BookingRepository
	lockRepo      *database.SeatLockRepository
	trips         *TripService
	paystack      *PaystackService
	notify        *NotifyService
	logger        *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(
	busRepo *database.BusRepository,
	routeRepo *database.RouteRepository,
	passengerRepo *database.PassengerRepository,
	bookingRepo *database.BookingRepository,
	lockRepo *database.SeatLockRepository,
	trips *TripService,
	paystack *PaystackService,
	notify *NotifyService,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		busRepo:       busRepo,
		routeRepo:     routeRepo,
		passengerRepo: passengerRepo,
		bookingRepo:   bookingRepo,
		lockRepo:      lockRepo,
		trips:         trips,
		paystack:      paystack,
		notify:        notify,
		logger:        logger,
	}
}

// displayID formats a booking row id for passengers
func displayID(id int64) string {
	return fmt.Sprintf("ELITE-%d", id)
}

// seatRef derives the per-seat external reference: the raw processor
// reference for single-seat purchases, "<ref>:<seat>" otherwise
func seatRef(base, seat string, multi bool) string {
	if !multi {
		return base
	}
	return base + ":" + seat
}

// canonicalSeats normalizes raw seat input against the bus capacity and
// drops repeated seats, preserving the caller's order
func canonicalSeats(raw []string, capacity int) ([]string, error) {
	canonical := make([]string, 0, len(raw))
	seen := make(map[string]bool)
	for _, r := range raw {
		seat, err := seatkey.Normalize(r, capacity)
		if err != nil {
			return nil, fmt.Errorf("%w: seat %q: %v", ErrInputInvalid, r, err)
		}
		if seen[seat] {
			continue
		}
		seen[seat] = true
		canonical = append(canonical, seat)
	}
	return canonical, nil
}

// optionalString maps a blank field to NULL
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Confirm turns a paid, locked reservation into confirmed bookings.
// The flow is: idempotency probe, payment verification, lock ownership
// proof, then conditional per-seat inserts with rollback on conflict.
func (s *BookingService) Confirm(req *models.ConfirmBookingRequest) (*models.BookingConfirmation, error) {
	seatsIn := req.SeatList()
	if len(seatsIn) == 0 {
		return nil, fmt.Errorf("%w: at least one seat is required", ErrInputInvalid)
	}
	if req.LockID == "" {
		return nil, fmt.Errorf("%w: lockId is required", ErrInputInvalid)
	}
	if req.PaystackRef == "" {
		return nil, fmt.Errorf("%w: paystackRef is required", ErrInputInvalid)
	}

	bus, err := s.busRepo.GetByID(req.BusID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: bus %d", ErrNotFound, req.BusID)
	}

	// Replay detection comes before payment verification so retried
	// confirmations return the original outcome without another processor
	// round trip
	existing, err := s.bookingRepo.FindByRefPrefix(req.PaystackRef)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return s.rebuildConfirmation(bus, existing)
	}

	trip, err := s.trips.Resolve(req.BusID, req.TripID)
	if err != nil {
		return nil, err
	}
	var tripID *int64
	if trip != nil {
		tripID = &trip.ID
	}

	canonical, err := canonicalSeats(seatsIn, bus.Capacity)
	if err != nil {
		return nil, err
	}

	unitPrice := s.unitPrice(req, trip, bus, len(canonical))
	if unitPrice <= 0 {
		return nil, fmt.Errorf("%w: no price available for bus %d", ErrInputInvalid, req.BusID)
	}
	total := unitPrice * float64(len(canonical))

	payment, err := s.paystack.Verify(req.PaystackRef)
	if err != nil {
		return nil, err
	}

	// The amount cross-check only runs against a caller-supplied price;
	// prices synthesized from trip or bus rows are not the caller's claim
	if req.Price > 0 || req.UnitPrice > 0 {
		expectedMinor := int64(math.Round(total * 100))
		if payment.Amount != expectedMinor {
			s.logger.WithFields(logrus.Fields{
				"reference": req.PaystackRef,
				"expected":  expectedMinor,
				"charged":   payment.Amount,
			}).Warn("Payment amount mismatch")
			return nil, fmt.Errorf("%w: charged %d, expected %d", ErrPaymentAmountMismatch, payment.Amount, expectedMinor)
		}
	}

	// Every seat must still be held by the caller's lock session. A single
	// missing lock aborts the whole purchase before anything is written.
	now := time.Now()
	lockIDs := make([]int64, 0, len(canonical))
	for _, seat := range canonical {
		lock, err := s.lockRepo.GetOwnedActive(req.BusID, tripID, spellings(seat), req.LockID, now)
		if err != nil {
			return nil, err
		}
		if lock == nil {
			return nil, fmt.Errorf("%w: seat %s", ErrLockExpired, seat)
		}
		lockIDs = append(lockIDs, lock.ID)
	}

	passenger, err := s.passengerRepo.Create(&models.Passenger{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		NokName:   optionalString(req.NokName),
		NokPhone:  optionalString(req.NokPhone),
	})
	if err != nil {
		return nil, err
	}

	multi := len(canonical) > 1
	inserted := make([]*models.Booking, 0, len(canonical))
	for _, seat := range canonical {
		booking := &models.Booking{
			PassengerID: passenger.ID,
			BusID:       req.BusID,
			TripID:      tripID,
			SeatNumber:  seat,
			PricePaid:   unitPrice,
			ExternalRef: seatRef(req.PaystackRef, seat, multi),
		}
		ok, err := s.bookingRepo.InsertConfirmedSeat(booking, spellings(seat))
		if err == nil && !ok {
			err = fmt.Errorf("%w: seat %s", ErrSeatAlreadyBooked, seat)
		}
		if err != nil {
			s.rollback(passenger.ID, inserted)
			return nil, err
		}
		inserted = append(inserted, booking)
	}

	if err := s.lockRepo.DeleteByIDs(lockIDs); err != nil {
		s.logger.WithError(err).Warn("Failed to release consumed locks")
	}

	s.refreshSeatHint(bus, trip)

	routeName, err := s.routeRepo.GetRouteName(req.BusID)
	if err != nil {
		routeName = ""
	}

	bookingIDs := make([]int64, len(inserted))
	displayIDs := make([]string, len(inserted))
	for i, b := range inserted {
		bookingIDs[i] = b.ID
		displayIDs[i] = displayID(b.ID)
	}

	receiptURL := s.notify.SendBookingEffects(bookingIDs, &ReceiptRequest{
		BookingID:     displayIDs[0],
		PassengerName: passenger.FirstName + " " + passenger.LastName,
		Email:         passenger.Email,
		Phone:         passenger.Phone,
		RouteName:     routeName,
		BusName:       bus.Name,
		Seats:         canonical,
		Amount:        total,
		Reference:     req.PaystackRef,
	})

	s.logger.WithFields(logrus.Fields{
		"booking_id": inserted[0].ID,
		"bus_id":     req.BusID,
		"seats":      len(canonical),
		"reference":  req.PaystackRef,
	}).Info("Booking confirmed")

	return &models.BookingConfirmation{
		BookingID:     displayIDs[0],
		BookingIDs:    displayIDs,
		PassengerName: passenger.FirstName + " " + passenger.LastName,
		RouteName:     routeName,
		BusName:       bus.Name,
		Seat:          canonical[0],
		Seats:         canonical,
		SeatCount:     len(canonical),
		Price:         total,
		Phone:         passenger.Phone,
		Email:         passenger.Email,
		Status:        string(models.BookingStatusConfirmed),
		ReceiptURL:    receiptURL,
	}, nil
}

// ManualBooking records an admin-created booking without a payment leg.
// Seats must be neither sold nor actively locked by anyone.
func (s *BookingService) ManualBooking(req *models.ManualBookingRequest) (*models.BookingConfirmation, error) {
	if len(req.Seats) == 0 {
		return nil, fmt.Errorf("%w: at least one seat is required", ErrInputInvalid)
	}

	bus, err := s.busRepo.GetByID(req.BusID)
	if err != nil {
		return nil, err
	}
	if bus == nil {
		return nil, fmt.Errorf("%w: bus %d", ErrNotFound, req.BusID)
	}

	trip, err := s.trips.Resolve(req.BusID, req.TripID)
	if err != nil {
		return nil, err
	}
	var tripID *int64
	if trip != nil {
		tripID = &trip.ID
	}

	canonical, err := canonicalSeats(req.Seats, bus.Capacity)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for _, seat := range canonical {
		lock, err := s.lockRepo.GetActiveBySeat(req.BusID, tripID, spellings(seat), now)
		if err != nil {
			return nil, err
		}
		if lock != nil {
			return nil, fmt.Errorf("%w: seat %s", ErrSeatAlreadyLocked, seat)
		}
	}

	unitPrice := req.Price
	if unitPrice <= 0 {
		if trip != nil && trip.Price > 0 {
			unitPrice = trip.Price
		} else {
			unitPrice = bus.Price
		}
	}
	total := unitPrice * float64(len(canonical))

	passenger, err := s.passengerRepo.Create(&models.Passenger{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if err != nil {
		return nil, err
	}

	baseRef := "manual:" + uuid.NewString()
	multi := len(canonical) > 1
	inserted := make([]*models.Booking, 0, len(canonical))
	for _, seat := range canonical {
		booking := &models.Booking{
			PassengerID: passenger.ID,
			BusID:       req.BusID,
			TripID:      tripID,
			SeatNumber:  seat,
			PricePaid:   unitPrice,
			ExternalRef: seatRef(baseRef, seat, multi),
		}
		ok, err := s.bookingRepo.InsertConfirmedSeat(booking, spellings(seat))
		if err == nil && !ok {
			err = fmt.Errorf("%w: seat %s", ErrSeatAlreadyBooked, seat)
		}
		if err != nil {
			s.rollback(passenger.ID, inserted)
			return nil, err
		}
		inserted = append(inserted, booking)
	}

	s.refreshSeatHint(bus, trip)

	routeName, err := s.routeRepo.GetRouteName(req.BusID)
	if err != nil {
		routeName = ""
	}

	bookingIDs := make([]int64, len(inserted))
	displayIDs := make([]string, len(inserted))
	for i, b := range inserted {
		bookingIDs[i] = b.ID
		displayIDs[i] = displayID(b.ID)
	}

	receiptURL := s.notify.SendBookingEffects(bookingIDs, &ReceiptRequest{
		BookingID:     displayIDs[0],
		PassengerName: passenger.FirstName + " " + passenger.LastName,
		Email:         passenger.Email,
		Phone:         passenger.Phone,
		RouteName:     routeName,
		BusName:       bus.Name,
		Seats:         canonical,
		Amount:        total,
		Reference:     baseRef,
	})

	s.logger.WithFields(logrus.Fields{
		"booking_id": inserted[0].ID,
		"bus_id":     req.BusID,
		"seats":      len(canonical),
	}).Info("Manual booking recorded")

	return &models.BookingConfirmation{
		BookingID:     displayIDs[0],
		BookingIDs:    displayIDs,
		PassengerName: passenger.FirstName + " " + passenger.LastName,
		RouteName:     routeName,
		BusName:       bus.Name,
		Seat:          canonical[0],
		Seats:         canonical,
		SeatCount:     len(canonical),
		Price:         total,
		Phone:         passenger.Phone,
		Email:         passenger.Email,
		Status:        string(models.BookingStatusConfirmed),
		ReceiptURL:    receiptURL,
	}, nil
}

// ProcessWebhook handles a verified charge.success event: promotes any
// pending bookings for the reference and, when the synchronous confirm
// never produced a receipt, runs the receipt+SMS fan-out as a fallback.
// A second identical event is a no-op because the receipt row now exists.
func (s *BookingService) ProcessWebhook(event *WebhookEvent) error {
	if event.Event != "charge.success" || event.Data.Reference == "" {
		return nil
	}
	ref := event.Data.Reference

	promoted, err := s.bookingRepo.MarkConfirmedByRef(ref)
	if err != nil {
		return err
	}
	if promoted > 0 {
		s.logger.WithFields(logrus.Fields{
			"reference": ref,
			"promoted":  promoted,
		}).Info("Webhook promoted pending bookings")
	}

	bookings, err := s.bookingRepo.FindByRefPrefix(ref)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		s.logger.WithField("reference", ref).Warn("Webhook for unknown reference")
		return nil
	}

	has, err := s.notify.HasReceipt(bookings[0].ID)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	passenger, err := s.passengerRepo.GetByID(bookings[0].PassengerID)
	if err != nil {
		return err
	}
	bus, err := s.busRepo.GetByID(bookings[0].BusID)
	if err != nil {
		return err
	}

	routeName, err := s.routeRepo.GetRouteName(bookings[0].BusID)
	if err != nil {
		routeName = ""
	}

	seats := make([]string, 0, len(bookings))
	bookingIDs := make([]int64, 0, len(bookings))
	total := 0.0
	for _, b := range bookings {
		seats = append(seats, b.SeatNumber)
		bookingIDs = append(bookingIDs, b.ID)
		total += b.PricePaid
	}
	sortSeats(seats)

	receipt := &ReceiptRequest{
		BookingID: displayID(bookings[0].ID),
		RouteName: routeName,
		Seats:     seats,
		Amount:    total,
		Reference: ref,
	}
	if passenger != nil {
		receipt.PassengerName = passenger.FirstName + " " + passenger.LastName
		receipt.Email = passenger.Email
		receipt.Phone = passenger.Phone
	}
	if bus != nil {
		receipt.BusName = bus.Name
	}

	s.notify.SendBookingEffects(bookingIDs, receipt)

	return nil
}

// unitPrice picks the per-seat price: explicit unitPrice, then total price
// divided across seats, then the trip price, then the bus price
func (s *BookingService) unitPrice(req *models.ConfirmBookingRequest, trip *models.TripSchedule, bus *models.Bus, seatCount int) float64 {
	if req.UnitPrice > 0 {
		return req.UnitPrice
	}
	if req.Price > 0 {
		return req.Price / float64(seatCount)
	}
	if trip != nil && trip.Price > 0 {
		return trip.Price
	}
	return bus.Price
}

// rollback unwinds a partially applied multi-seat finalization: the
// bookings written so far and the passenger row
func (s *BookingService) rollback(passengerID int64, inserted []*models.Booking) {
	for _, b := range inserted {
		if err := s.bookingRepo.DeleteByID(b.ID); err != nil {
			s.logger.WithError(err).WithField("booking_id", b.ID).Error("Rollback failed to delete booking")
		}
	}
	if err := s.passengerRepo.Delete(passengerID); err != nil {
		s.logger.WithError(err).WithField("passenger_id", passengerID).Error("Rollback failed to delete passenger")
	}
}

// refreshSeatHint recomputes the bus available_seats hint from confirmed
// bookings. Only meaningful in trip-aware mode; failures are logged, the
// hint is advisory.
func (s *BookingService) refreshSeatHint(bus *models.Bus, trip *models.TripSchedule) {
	if trip == nil {
		return
	}
	count, err := s.bookingRepo.CountConfirmedForTrip(bus.ID, trip.ID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to count confirmed bookings")
		return
	}
	remaining := bus.Capacity - count
	if remaining < 0 {
		remaining = 0
	}
	if err := s.busRepo.SetAvailableSeats(bus.ID, remaining); err != nil {
		s.logger.WithError(err).Warn("Failed to refresh seat hint")
	}
}

// rebuildConfirmation reconstructs the original response for a replayed
// reference
func (s *BookingService) rebuildConfirmation(bus *models.Bus, bookings []models.Booking) (*models.BookingConfirmation, error) {
	passenger, err := s.passengerRepo.GetByID(bookings[0].PassengerID)
	if err != nil {
		return nil, err
	}

	routeName, err := s.routeRepo.GetRouteName(bus.ID)
	if err != nil {
		routeName = ""
	}

	seats := make([]string, 0, len(bookings))
	displayIDs := make([]string, 0, len(bookings))
	total := 0.0
	for _, b := range bookings {
		seat, err := seatkey.Normalize(b.SeatNumber, bus.Capacity)
		if err != nil {
			seat = b.SeatNumber
		}
		seats = append(seats, seat)
		displayIDs = append(displayIDs, displayID(b.ID))
		total += b.PricePaid
	}
	sortSeats(seats)

	conf := &models.BookingConfirmation{
		BookingID:  displayIDs[0],
		BookingIDs: displayIDs,
		RouteName:  routeName,
		BusName:    bus.Name,
		Seat:       seats[0],
		Seats:      seats,
		SeatCount:  len(seats),
		Price:      total,
		Status:     string(bookings[0].Status),
		Duplicate:  true,
	}
	if passenger != nil {
		conf.PassengerName = passenger.FirstName + " " + passenger.LastName
		conf.Phone = passenger.Phone
		conf.Email = passenger.Email
	}

	return conf, nil
}
