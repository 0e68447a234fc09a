package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/lib/pq"
)

// SeatLockRepository handles seat_locks database operations. Uniqueness of
// the active lock per (bus, trip, seat) is enforced with conditional writes
// so concurrent acquirers serialize on the database rather than in process.
type SeatLockRepository struct {
	db DB
}

// NewSeatLockRepository creates a new seat lock repository
func NewSeatLockRepository(db DB) *SeatLockRepository {
	return &SeatLockRepository{db: db}
}

// DeleteExpired garbage-collects expired locks for the given seat spellings
// on a bus. Called lazily on every acquire.
func (r *SeatLockRepository) DeleteExpired(busID int64, seats []string, now time.Time) error {
	query := `
		DELETE FROM seat_locks
		WHERE bus_id = $1 AND seat_number = ANY($2) AND expires_at <= $3
	`

	if _, err := r.db.Exec(query, busID, pq.Array(seats), now); err != nil {
		return fmt.Errorf("failed to delete expired locks: %w", err)
	}

	return nil
}

// DeleteTripMismatched removes locks for the same (bus, seat) whose trip_id
// is NULL or differs from the given trip. Keeps trip namespaces isolated
// when a bus moves from trip-null mode to scheduled trips.
func (r *SeatLockRepository) DeleteTripMismatched(busID, tripID int64, seats []string) error {
	query := `
		DELETE FROM seat_locks
		WHERE bus_id = $1 AND seat_number = ANY($2)
		  AND (trip_id IS NULL OR trip_id <> $3)
	`

	if _, err := r.db.Exec(query, busID, pq.Array(seats), tripID); err != nil {
		return fmt.Errorf("failed to delete trip-mismatched locks: %w", err)
	}

	return nil
}

// GetActiveBySeat returns the unexpired lock covering any of the given seat
// spellings on (bus, trip), or nil when the seat is free
func (r *SeatLockRepository) GetActiveBySeat(busID int64, tripID *int64, seats []string, now time.Time) (*models.SeatLock, error) {
	var lock models.SeatLock

	query := `
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1
		  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
		  AND seat_number = ANY($3)
		  AND expires_at > $4
		LIMIT 1
	`

	err := r.db.Get(&lock, query, busID, tripID, pq.Array(seats), now)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active lock: %w", err)
	}

	return &lock, nil
}

// ExtendOwned pushes out the expiry of an existing lock held by owner.
// Returns the number of rows refreshed (0 when the owner holds nothing).
func (r *SeatLockRepository) ExtendOwned(busID int64, tripID *int64, seats []string, owner string, expiresAt time.Time) (int64, error) {
	query := `
		UPDATE seat_locks
		SET expires_at = $1
		WHERE bus_id = $2
		  AND COALESCE(trip_id, -1) = COALESCE($3::bigint, -1)
		  AND seat_number = ANY($4)
		  AND locked_by = $5
	`

	result, err := r.db.Exec(query, expiresAt, busID, tripID, pq.Array(seats), owner)
	if err != nil {
		return 0, fmt.Errorf("failed to extend lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// InsertIfFree inserts a lock only when no unexpired lock covers the seat
// on (bus, trip). Returns false when a concurrent acquirer won the race.
func (r *SeatLockRepository) InsertIfFree(lock *models.SeatLock, seatSpellings []string, now time.Time) (bool, error) {
	query := `
		INSERT INTO seat_locks (bus_id, trip_id, seat_number, locked_by, expires_at)
		SELECT $1, $2::bigint, $3, $4, $5
		WHERE NOT EXISTS (
			SELECT 1 FROM seat_locks
			WHERE bus_id = $1
			  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
			  AND seat_number = ANY($6)
			  AND expires_at > $7
		)
		RETURNING id
	`

	err := r.db.QueryRow(
		query,
		lock.BusID,
		lock.TripID,
		lock.SeatNumber,
		lock.LockedBy,
		lock.ExpiresAt,
		pq.Array(seatSpellings),
		now,
	).Scan(&lock.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert lock: %w", err)
	}

	return true, nil
}

// GetOwnedActive returns the unexpired lock on (bus, trip, seat) held by
// owner, or nil. Used by finalization as the lock ownership proof.
func (r *SeatLockRepository) GetOwnedActive(busID int64, tripID *int64, seats []string, owner string, now time.Time) (*models.SeatLock, error) {
	var lock models.SeatLock

	query := `
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1
		  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
		  AND seat_number = ANY($3)
		  AND locked_by = $4
		  AND expires_at > $5
		LIMIT 1
	`

	err := r.db.Get(&lock, query, busID, tripID, pq.Array(seats), owner, now)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get owned lock: %w", err)
	}

	return &lock, nil
}

// DeleteOwned removes the owner's lock rows for the given seat spellings.
// Deleting an already-released lock is a no-op, which makes unlock
// idempotent.
func (r *SeatLockRepository) DeleteOwned(busID int64, tripID *int64, seats []string, owner string) (int64, error) {
	query := `
		DELETE FROM seat_locks
		WHERE bus_id = $1
		  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
		  AND seat_number = ANY($3)
		  AND locked_by = $4
	`

	result, err := r.db.Exec(query, busID, tripID, pq.Array(seats), owner)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// DeleteByIDs removes consumed locks after finalization
func (r *SeatLockRepository) DeleteByIDs(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM seat_locks WHERE id = ANY($1)`

	if _, err := r.db.Exec(query, pq.Array(ids)); err != nil {
		return fmt.Errorf("failed to delete locks by IDs: %w", err)
	}

	return nil
}

// DeleteForTrip wipes every lock for a trip. Called by admin end-trip.
func (r *SeatLockRepository) DeleteForTrip(tripID int64) error {
	query := `DELETE FROM seat_locks WHERE trip_id = $1`

	if _, err := r.db.Exec(query, tripID); err != nil {
		return fmt.Errorf("failed to delete locks for trip: %w", err)
	}

	return nil
}

// ListActive returns the unexpired locks for (bus, trip)
func (r *SeatLockRepository) ListActive(busID int64, tripID *int64, now time.Time) ([]models.SeatLock, error) {
	var locks []models.SeatLock

	query := `
		SELECT id, bus_id, trip_id, seat_number, locked_by, expires_at
		FROM seat_locks
		WHERE bus_id = $1
		  AND COALESCE(trip_id, -1) = COALESCE($2::bigint, -1)
		  AND expires_at > $3
	`

	if err := r.db.Select(&locks, query, busID, tripID, now); err != nil {
		return nil, fmt.Errorf("failed to list active locks: %w", err)
	}

	return locks, nil
}
