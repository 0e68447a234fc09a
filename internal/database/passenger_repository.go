package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
)

// PassengerRepository handles passenger database operations
type PassengerRepository struct {
	db DB
}

// NewPassengerRepository creates a new passenger repository
func NewPassengerRepository(db DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// Create inserts a new passenger row. A fresh row is written per booking;
// the same person may appear many times across bookings.
func (r *PassengerRepository) Create(p *models.Passenger) (*models.Passenger, error) {
	query := `
		INSERT INTO passengers (first_name, last_name, email, phone,
		                        nok_name, nok_phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	p.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		p.FirstName,
		p.LastName,
		p.Email,
		p.Phone,
		p.NokName,
		p.NokPhone,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create passenger: %w", err)
	}

	return p, nil
}

// GetByID retrieves a passenger, returning nil when not found
func (r *PassengerRepository) GetByID(id int64) (*models.Passenger, error) {
	var p models.Passenger

	query := `
		SELECT id, first_name, last_name, email, phone,
		       nok_name, nok_phone, created_at
		FROM passengers
		WHERE id = $1
	`

	err := r.db.Get(&p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get passenger by ID: %w", err)
	}

	return &p, nil
}

// Delete removes a passenger row. Used to roll back a failed finalization.
func (r *PassengerRepository) Delete(id int64) error {
	query := `DELETE FROM passengers WHERE id = $1`

	if _, err := r.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete passenger: %w", err)
	}

	return nil
}

// List retrieves passengers newest first with pagination
func (r *PassengerRepository) List(limit, offset int) ([]models.Passenger, error) {
	var passengers []models.Passenger

	query := `
		SELECT id, first_name, last_name, email, phone,
		       nok_name, nok_phone, created_at
		FROM passengers
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	if err := r.db.Select(&passengers, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}

	return passengers, nil
}
