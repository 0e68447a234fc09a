package models

import "time"

// TripScheduleStatus represents the lifecycle state of a scheduled trip
type TripScheduleStatus string

const (
	TripStatusActive    TripScheduleStatus = "active"
	TripStatusCompleted TripScheduleStatus = "completed"
	TripStatusCancelled TripScheduleStatus = "cancelled"
)

// TripSchedule represents one scheduled departure of a bus. A bus has at
// most one active trip at a time; the active trip is the authoritative
// source of price and departure for its bus.
type TripSchedule struct {
	ID            int64              `json:"id" db:"id"`
	RouteID       int64              `json:"route_id" db:"route_id"`
	BusID         int64              `json:"bus_id" db:"bus_id"`
	DepartureDate string             `json:"departure_date" db:"departure_date"`
	DepartureTime string             `json:"departure_time" db:"departure_time"`
	Price         float64            `json:"price" db:"price"`
	Status        TripScheduleStatus `json:"status" db:"status"`
	StartedAt     time.Time          `json:"started_at" db:"started_at"`
	EndedAt       *time.Time         `json:"ended_at,omitempty" db:"ended_at"`
}

// CreateTripRequest is the admin payload for scheduling a trip
type CreateTripRequest struct {
	RouteID       int64   `json:"routeId" binding:"required"`
	BusID         int64   `json:"busId" binding:"required"`
	DepartureDate string  `json:"departure_date"`
	DepartureTime string  `json:"departure_time"`
	Price         float64 `json:"price"`
}

// TripWithCounts is an active trip with live seat accounting for the admin
// fleet view
type TripWithCounts struct {
	TripSchedule
	BusName     string `json:"bus_name" db:"bus_name"`
	RouteName   string `json:"route_name" db:"route_name"`
	Capacity    int    `json:"capacity" db:"capacity"`
	BookedCount int    `json:"booked_count" db:"booked_count"`
	SeatsLeft   int    `json:"seats_left" db:"seats_left"`
}
