package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
)

// TripRepository handles trip_schedules database operations
type TripRepository struct {
	db DB
}

// NewTripRepository creates a new trip repository
func NewTripRepository(db DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetByID retrieves a trip by ID, returning nil when not found
func (r *TripRepository) GetByID(id int64) (*models.TripSchedule, error) {
	var trip models.TripSchedule

	query := `
		SELECT id, route_id, bus_id, departure_date, departure_time,
		       price, status, started_at, ended_at
		FROM trip_schedules
		WHERE id = $1
	`

	err := r.db.Get(&trip, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trip by ID: %w", err)
	}

	return &trip, nil
}

// GetActiveByBus retrieves the most recent active trip for a bus, or nil
// when the bus has none (trip-null mode)
func (r *TripRepository) GetActiveByBus(busID int64) (*models.TripSchedule, error) {
	var trip models.TripSchedule

	query := `
		SELECT id, route_id, bus_id, departure_date, departure_time,
		       price, status, started_at, ended_at
		FROM trip_schedules
		WHERE bus_id = $1 AND status = 'active'
		ORDER BY started_at DESC, id DESC
		LIMIT 1
	`

	err := r.db.Get(&trip, query, busID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active trip for bus: %w", err)
	}

	return &trip, nil
}

// Create inserts a new active trip and returns it with its assigned ID
func (r *TripRepository) Create(trip *models.TripSchedule) (*models.TripSchedule, error) {
	query := `
		INSERT INTO trip_schedules (route_id, bus_id, departure_date,
		                            departure_time, price, status, started_at)
		VALUES ($1, $2, $3, $4, $5, 'active', $6)
		RETURNING id
	`

	trip.Status = models.TripStatusActive
	trip.StartedAt = time.Now()

	err := r.db.QueryRow(
		query,
		trip.RouteID,
		trip.BusID,
		trip.DepartureDate,
		trip.DepartureTime,
		trip.Price,
		trip.StartedAt,
	).Scan(&trip.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	return trip, nil
}

// End transitions an active trip to completed, recording ended_at. Returns
// false when the trip was not active.
func (r *TripRepository) End(tripID int64) (bool, error) {
	query := `
		UPDATE trip_schedules
		SET status = 'completed', ended_at = $1
		WHERE id = $2 AND status = 'active'
	`

	result, err := r.db.Exec(query, time.Now(), tripID)
	if err != nil {
		return false, fmt.Errorf("failed to end trip: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// ListActiveWithCounts returns active trips with booked counts and seats
// left for the admin fleet view
func (r *TripRepository) ListActiveWithCounts() ([]models.TripWithCounts, error) {
	var trips []models.TripWithCounts

	query := `
		SELECT t.id, t.route_id, t.bus_id, t.departure_date, t.departure_time,
		       t.price, t.status, t.started_at, t.ended_at,
		       b.name AS bus_name,
		       COALESCE(rt.name, b.route_text, '') AS route_name,
		       b.capacity,
		       COALESCE(bk.booked, 0) AS booked_count,
		       b.capacity - COALESCE(bk.booked, 0) AS seats_left
		FROM trip_schedules t
		JOIN buses b ON b.id = t.bus_id
		LEFT JOIN routes rt ON rt.id = t.route_id
		LEFT JOIN (
			SELECT trip_id, COUNT(*) AS booked
			FROM bookings
			WHERE status = 'confirmed' AND trip_id IS NOT NULL
			GROUP BY trip_id
		) bk ON bk.trip_id = t.id
		WHERE t.status = 'active'
		ORDER BY t.started_at DESC
	`

	if err := r.db.Select(&trips, query); err != nil {
		return nil, fmt.Errorf("failed to list active trips: %w", err)
	}

	return trips, nil
}

// ListRecentEnded returns the most recent non-active trips, newest first
func (r *TripRepository) ListRecentEnded(limit int) ([]models.TripSchedule, error) {
	var trips []models.TripSchedule

	query := `
		SELECT id, route_id, bus_id, departure_date, departure_time,
		       price, status, started_at, ended_at
		FROM trip_schedules
		WHERE status <> 'active'
		ORDER BY COALESCE(ended_at, started_at) DESC
		LIMIT $1
	`

	if err := r.db.Select(&trips, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list ended trips: %w", err)
	}

	return trips, nil
}
