package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone, password_hash,
	       google_id, picture_url, auth_method, verified, created_at`

// Create inserts a new user and returns it with its assigned ID
func (r *UserRepository) Create(user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, first_name, last_name, phone, password_hash,
		                   google_id, picture_url, auth_method, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	user.CreatedAt = time.Now()

	err := r.db.QueryRow(
		query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.PasswordHash,
		user.GoogleID,
		user.PictureURL,
		user.AuthMethod,
		user.Verified,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email (case-insensitive), returning nil
// when not found
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetByGoogleID retrieves a user by federated subject, returning nil when
// not found
func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE google_id = $1
	`

	err := r.db.Get(&user, query, googleID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by google ID: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user by ID, returning nil when not found
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	var user models.User

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`

	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return &user, nil
}

// AttachGoogleID links a federated subject to an existing email account
func (r *UserRepository) AttachGoogleID(userID int64, googleID, pictureURL string) error {
	query := `
		UPDATE users
		SET google_id = $1,
		    picture_url = COALESCE(NULLIF($2, ''), picture_url),
		    verified = TRUE
		WHERE id = $3
	`

	if _, err := r.db.Exec(query, googleID, pictureURL, userID); err != nil {
		return fmt.Errorf("failed to attach google ID: %w", err)
	}

	return nil
}

// UpdatePasswordHash replaces the stored password hash. Used to upgrade
// legacy hashes after a successful login.
func (r *UserRepository) UpdatePasswordHash(userID int64, hash string) error {
	query := `UPDATE users SET password_hash = $1 WHERE id = $2`

	if _, err := r.db.Exec(query, hash, userID); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	return nil
}

// CountUsers returns the total number of users
func (r *UserRepository) CountUsers() (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM users`

	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return count, nil
}
