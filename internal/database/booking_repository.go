package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/lib/pq"
)

// BookingRepository handles bookings database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// FindByRefPrefix retrieves bookings whose external_ref equals ref or
// starts with "ref:". This is the idempotency probe: single-seat purchases
// store the raw reference, multi-seat ones append ":<seat>".
func (r *BookingRepository) FindByRefPrefix(ref string) ([]models.Booking, error) {
	var bookings []models.Booking

	query := `
		SELECT id, passenger_id, bus_id, trip_id, seat_number,
		       price_paid, status, external_ref, created_at
		FROM bookings
		WHERE external_ref = $1 OR external_ref LIKE $1 || ':%'
		ORDER BY id
	`

	if err := r.db.Select(&bookings, query, ref); err != nil {
		return nil, fmt.Errorf("failed to find bookings by reference: %w", err)
	}

	return bookings, nil
}

// InsertConfirmedSeat inserts one confirmed booking unless a confirmed
// booking already covers the seat (in canonical or legacy spelling) on
// (bus, trip). Returns false when the seat was already sold.
func (r *BookingRepository) InsertConfirmedSeat(b *models.Booking, seatSpellings []string) (bool, error) {
	query := `
		INSERT INTO bookings (passenger_id, bus_id, trip_id, seat_number,
		                      price_paid, status, external_ref, created_at)
		SELECT $1, $2, $3::bigint, $4, $5, 'confirmed', $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM bookings
			WHERE bus_id = $2
			  AND COALESCE(trip_id, -1) = COALESCE($3::bigint, -1)
			  AND seat_number = ANY($8)
			  AND status = 'confirmed'
		)
		RETURNING id
	`

	b.Status = models.BookingStatusConfirmed
	b.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		b.PassengerID,
		b.BusID,
		b.TripID,
		b.SeatNumber,
		b.PricePaid,
		b.ExternalRef,
		b.CreatedAt,
		pq.Array(seatSpellings),
	).Scan(&b.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert booking: %w", err)
	}

	return true, nil
}

// HasConfirmedSeat reports whether a confirmed booking covers any of the
// given seat spellings on (bus, trip)
func (r *BookingRepository) HasConfirmedSeat(busID int64, tripID *int64, seatSpellings []string) (bool, error) {
	var count int

	query := `
		SELECT COUNT(*) FROM bookings
		WHERE bus_id = $1
		  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
		  AND seat_number = ANY($3)
		  AND status = 'confirmed'
	`

	if err := r.db.QueryRow(query, busID, tripID, pq.Array(seatSpellings)).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check confirmed seat: %w", err)
	}

	return count > 0, nil
}

// DeleteByID removes a booking row. Used to roll back a partially applied
// multi-seat finalization.
func (r *BookingRepository) DeleteByID(id int64) error {
	query := `DELETE FROM bookings WHERE id = $1`

	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	return nil
}

// ListConfirmedSeats returns seat numbers with a confirmed booking on
// (bus, trip)
func (r *BookingRepository) ListConfirmedSeats(busID int64, tripID *int64) ([]string, error) {
	var seats []string

	query := `
		SELECT seat_number FROM bookings
		WHERE bus_id = $1
		  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
		  AND status = 'confirmed'
	`

	if err := r.db.Select(&seats, query, busID, tripID); err != nil {
		return nil, fmt.Errorf("failed to list confirmed seats: %w", err)
	}

	return seats, nil
}

// CountConfirmedForTrip returns the number of confirmed bookings for a
// (bus, trip). Feeds the available_seats hint.
func (r *BookingRepository) CountConfirmedForTrip(busID, tripID int64) (int, error) {
	var count int

	query := `
		SELECT COUNT(*) FROM bookings
		WHERE bus_id = $1 AND trip_id = $2 AND status = 'confirmed'
	`

	if err := r.db.QueryRow(query, busID, tripID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count confirmed bookings: %w", err)
	}

	return count, nil
}

// MarkConfirmedByRef promotes pending bookings matching the reference
// (exact or "ref:<seat>") to confirmed. Best-effort webhook path.
func (r *BookingRepository) MarkConfirmedByRef(ref string) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'confirmed'
		WHERE (external_ref = $1 OR external_ref LIKE $1 || ':%')
		  AND status = 'pending'
	`

	result, err := r.db.Exec(query, ref)
	if err != nil {
		return 0, fmt.Errorf("failed to confirm bookings by reference: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// GetByID retrieves a booking, returning nil when not found
func (r *BookingRepository) GetByID(id int64) (*models.Booking, error) {
	var b models.Booking

	query := `
		SELECT id, passenger_id, bus_id, trip_id, seat_number,
		       price_paid, status, external_ref, created_at
		FROM bookings
		WHERE id = $1
	`

	err := r.db.Get(&b, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking by ID: %w", err)
	}

	return &b, nil
}

// ListByPassengerEmail returns a user's bookings matched through the
// passenger contact email, newest first
func (r *BookingRepository) ListByPassengerEmail(email string) ([]models.UpcomingBookingRow, error) {
	var rows []models.UpcomingBookingRow

	query := `
		SELECT bk.id AS booking_id, bk.seat_number, bk.status, bk.price_paid,
		       p.first_name || ' ' || p.last_name AS passenger_name,
		       p.phone,
		       b.name AS bus_name,
		       b.route_id,
		       rt.name AS route_name,
		       t.departure_date, t.departure_time,
		       TO_CHAR(bk.created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ') AS created_at
		FROM bookings bk
		JOIN passengers p ON p.id = bk.passenger_id
		JOIN buses b ON b.id = bk.bus_id
		LEFT JOIN routes rt ON rt.id = b.route_id
		LEFT JOIN trip_schedules t ON t.id = bk.trip_id
		WHERE LOWER(p.email) = LOWER($1)
		ORDER BY bk.created_at DESC
	`

	if err := r.db.Select(&rows, query, email); err != nil {
		return nil, fmt.Errorf("failed to list bookings by email: %w", err)
	}

	return rows, nil
}

// Upcoming returns the paginated admin report of bookings joined with
// passenger, bus, route, and trip details. Orders by departure timestamp
// ascending with nulls last, then created_at descending.
func (r *BookingRepository) Upcoming(f models.UpcomingBookingsFilter) ([]models.UpcomingBookingRow, error) {
	var rows []models.UpcomingBookingRow

	query := `
		SELECT bk.id AS booking_id, bk.seat_number, bk.status, bk.price_paid,
		       p.first_name || ' ' || p.last_name AS passenger_name,
		       p.phone,
		       b.name AS bus_name,
		       b.route_id,
		       rt.name AS route_name,
		       t.departure_date, t.departure_time,
		       TO_CHAR(bk.created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ') AS created_at
		FROM bookings bk
		JOIN passengers p ON p.id = bk.passenger_id
		JOIN buses b ON b.id = bk.bus_id
		LEFT JOIN routes rt ON rt.id = b.route_id
		LEFT JOIN trip_schedules t ON t.id = bk.trip_id
		WHERE ($1::bigint IS NULL OR b.route_id = $1)
		  AND ($2 = '' OR t.departure_date >= $2)
		  AND ($3 = '' OR t.departure_date <= $3)
		  AND ($4 = '' OR bk.status = $4)
		ORDER BY (t.departure_date || ' ' || t.departure_time) ASC NULLS LAST,
		         bk.created_at DESC
		LIMIT $5 OFFSET $6
	`

	err := r.db.Select(&rows, query,
		f.RouteID, f.DateFrom, f.DateTo, f.Status, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming bookings: %w", err)
	}

	return rows, nil
}

// UpcomingSummary aggregates totals and confirmed revenue for the same
// filter as Upcoming
func (r *BookingRepository) UpcomingSummary(f models.UpcomingBookingsFilter) (*models.BookingsSummary, error) {
	var summary models.BookingsSummary

	query := `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(bk.price_paid) FILTER (WHERE bk.status = 'confirmed'), 0) AS revenue
		FROM bookings bk
		JOIN buses b ON b.id = bk.bus_id
		LEFT JOIN trip_schedules t ON t.id = bk.trip_id
		WHERE ($1::bigint IS NULL OR b.route_id = $1)
		  AND ($2 = '' OR t.departure_date >= $2)
		  AND ($3 = '' OR t.departure_date <= $3)
		  AND ($4 = '' OR bk.status = $4)
	`

	err := r.db.Get(&summary, query, f.RouteID, f.DateFrom, f.DateTo, f.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize bookings: %w", err)
	}

	return &summary, nil
}

// CountByStatus returns the number of bookings in a given status
func (r *BookingRepository) CountByStatus(status models.BookingStatus) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM bookings WHERE status = $1`

	if err := r.db.QueryRow(query, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	return count, nil
}

// ConfirmedRevenue sums price_paid across confirmed bookings
func (r *BookingRepository) ConfirmedRevenue() (float64, error) {
	var revenue float64

	query := `
		SELECT COALESCE(SUM(price_paid), 0) FROM bookings
		WHERE status = 'confirmed'
	`

	if err := r.db.QueryRow(query).Scan(&revenue); err != nil {
		return 0, fmt.Errorf("failed to sum confirmed revenue: %w", err)
	}

	return revenue, nil
}

// RecentWithReceipts returns the newest bookings with passenger, bus, and
// receipt info for the admin dashboard
func (r *BookingRepository) RecentWithReceipts(limit int) ([]models.RecentBooking, error) {
	var rows []models.RecentBooking

	query := `
		SELECT bk.id AS booking_id,
		       p.first_name || ' ' || p.last_name AS passenger_name,
		       b.name AS bus_name,
		       bk.seat_number, bk.price_paid, bk.status,
		       rc.receipt_url,
		       TO_CHAR(bk.created_at, 'YYYY-MM-DD"T"HH24:MI:SSZ') AS created_at
		FROM bookings bk
		JOIN passengers p ON p.id = bk.passenger_id
		JOIN buses b ON b.id = bk.bus_id
		LEFT JOIN booking_receipts rc ON rc.booking_id = bk.id
		ORDER BY bk.created_at DESC
		LIMIT $1
	`

	if err := r.db.Select(&rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent bookings: %w", err)
	}

	return rows, nil
}
