package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
)

// SessionRepository handles auth_sessions database operations
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create stores a new opaque session token
func (r *SessionRepository) Create(session *models.AuthSession) error {
	query := `
		INSERT INTO auth_sessions (token, user_id, user_agent, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	session.CreatedAt = time.Now()

	_, err := r.db.Exec(
		query,
		session.Token,
		session.UserID,
		session.UserAgent,
		session.ExpiresAt,
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by token, returning nil when not found.
// Expiry is the caller's concern so expired rows can still be reaped.
func (r *SessionRepository) GetByToken(token string) (*models.AuthSession, error) {
	var session models.AuthSession

	query := `
		SELECT token, user_id, user_agent, expires_at, created_at
		FROM auth_sessions
		WHERE token = $1
	`

	err := r.db.Get(&session, query, token)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}

	return &session, nil
}

// Delete revokes a session (row delete is the revocation mechanism for
// opaque tokens)
func (r *SessionRepository) Delete(token string) error {
	query := `DELETE FROM auth_sessions WHERE token = $1`

	if _, err := r.db.Exec(query, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteExpired reaps sessions past their expiry
func (r *SessionRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `DELETE FROM auth_sessions WHERE expires_at <= $1`

	result, err := r.db.Exec(query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
