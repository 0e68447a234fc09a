package models

import "time"

// SeatLock is a short-lived hold on a seat, tied to an opaque lock-session
// identifier known only to the holding client. At most one unexpired row
// may exist per (bus, trip, canonical seat).
type SeatLock struct {
	ID         int64     `json:"id" db:"id"`
	BusID      int64     `json:"bus_id" db:"bus_id"`
	TripID     *int64    `json:"trip_id" db:"trip_id"`
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	LockedBy   string    `json:"locked_by" db:"locked_by"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

// LockSeatRequest asks to hold one seat on a bus
type LockSeatRequest struct {
	Seat   string `json:"seat" binding:"required"`
	TripID *int64 `json:"tripId"`
	LockID string `json:"lockId"`
}

// UnlockSeatRequest releases a previously held seat
type UnlockSeatRequest struct {
	Seat   string `json:"seat" binding:"required"`
	TripID *int64 `json:"tripId"`
	LockID string `json:"lockId"`
}

// LockSeatResponse confirms a hold and tells the client when it lapses
type LockSeatResponse struct {
	LockID    string    `json:"lock_id"`
	TripID    *int64    `json:"trip_id"`
	Seat      string    `json:"seat"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SeatMap is the availability snapshot for a (bus, trip). Seats held by
// the requesting lock session appear in both Available and OwnLocked so
// the client can render them as its own selection.
type SeatMap struct {
	TripID    *int64   `json:"trip_id"`
	Available []string `json:"available"`
	Locked    []string `json:"locked"`
	OwnLocked []string `json:"own_locked"`
	Booked    []string `json:"booked"`
}
