package database

import (
	"database/sql"
	"fmt"

	"github.com/elitetransport/booking-backend/internal/models"
)

// BusRepository handles bus database operations
type BusRepository struct {
	db DB
}

// NewBusRepository creates a new bus repository
func NewBusRepository(db DB) *BusRepository {
	return &BusRepository{db: db}
}

// GetByID retrieves a bus by ID, returning nil when not found
func (r *BusRepository) GetByID(id int64) (*models.Bus, error) {
	var bus models.Bus

	query := `
		SELECT id, route_id, name, plate_number, capacity,
		       available_seats, price, route_text
		FROM buses
		WHERE id = $1
	`

	err := r.db.Get(&bus, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get bus by ID: %w", err)
	}

	return &bus, nil
}

// ListByRoute retrieves all buses assigned to a route
func (r *BusRepository) ListByRoute(routeID int64) ([]models.Bus, error) {
	var buses []models.Bus

	query := `
		SELECT id, route_id, name, plate_number, capacity,
		       available_seats, price, route_text
		FROM buses
		WHERE route_id = $1
		ORDER BY name
	`

	if err := r.db.Select(&buses, query, routeID); err != nil {
		return nil, fmt.Errorf("failed to list buses by route: %w", err)
	}

	return buses, nil
}

// ListAll retrieves every bus ordered by name
func (r *BusRepository) ListAll() ([]models.Bus, error) {
	var buses []models.Bus

	query := `
		SELECT id, route_id, name, plate_number, capacity,
		       available_seats, price, route_text
		FROM buses
		ORDER BY name
	`

	if err := r.db.Select(&buses, query); err != nil {
		return nil, fmt.Errorf("failed to list buses: %w", err)
	}

	return buses, nil
}

// Create inserts a new bus and returns it with its assigned ID
func (r *BusRepository) Create(bus *models.Bus) (*models.Bus, error) {
	query := `
		INSERT INTO buses (route_id, name, plate_number, capacity,
		                   available_seats, price, route_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		bus.RouteID,
		bus.Name,
		bus.PlateNumber,
		bus.Capacity,
		bus.AvailableSeats,
		bus.Price,
		bus.RouteText,
	).Scan(&bus.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus: %w", err)
	}

	return bus, nil
}

// SetAvailableSeats updates the denormalized available_seats hint
func (r *BusRepository) SetAvailableSeats(busID int64, available int) error {
	query := `UPDATE buses SET available_seats = $1 WHERE id = $2`

	if _, err := r.db.Exec(query, available, busID); err != nil {
		return fmt.Errorf("failed to update available seats: %w", err)
	}

	return nil
}

// AssignTrip updates the bus's route, price, and seat hint when a trip is
// scheduled for it
func (r *BusRepository) AssignTrip(busID, routeID int64, price float64, capacity int) error {
	query := `
		UPDATE buses
		SET route_id = $1, price = $2, available_seats = $3
		WHERE id = $4
	`

	if _, err := r.db.Exec(query, routeID, price, capacity, busID); err != nil {
		return fmt.Errorf("failed to assign trip to bus: %w", err)
	}

	return nil
}

// CountBuses returns the total number of buses
func (r *BusRepository) CountBuses() (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM buses`

	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count buses: %w", err)
	}

	return count, nil
}
