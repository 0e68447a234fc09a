package services

import "errors"

// Service error taxonomy. Handlers translate these into HTTP statuses;
// anything unrecognized is a 500.
var (
	// ErrInputInvalid indicates missing or malformed request fields
	ErrInputInvalid = errors.New("invalid input")

	// ErrSeatAlreadyLocked indicates another session holds the seat
	ErrSeatAlreadyLocked = errors.New("seat is already locked by another session")

	// ErrSeatAlreadyBooked indicates a confirmed booking exists for the seat
	ErrSeatAlreadyBooked = errors.New("seat is already booked")

	// ErrLockExpired indicates finalization without a valid owned lock
	ErrLockExpired = errors.New("seat lock expired or not held by this session")

	// ErrPaymentVerificationFailed indicates the processor did not report success
	ErrPaymentVerificationFailed = errors.New("payment verification failed")

	// ErrPaymentAmountMismatch indicates the charged amount differs from the quoted price
	ErrPaymentAmountMismatch = errors.New("payment amount does not match booking price")

	// ErrAuthRequired indicates a missing, invalid, or expired token
	ErrAuthRequired = errors.New("authentication required")

	// ErrForbidden indicates a valid session without admin rights
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates an unknown route, trip, bus, or user
	ErrNotFound = errors.New("not found")
)
