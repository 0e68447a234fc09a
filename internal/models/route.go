package models

// RouteGroup is a top-level catalog bucket (e.g. "northern", "coastal")
type RouteGroup struct {
	ID          int64  `json:"id" db:"id"`
	Key         string `json:"key" db:"key"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// Route is a named origin-destination pair within a group
type Route struct {
	ID          int64  `json:"id" db:"id"`
	GroupID     int64  `json:"group_id" db:"group_id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`
}

// BusOption is a bus listed under a route in the public catalog. Departure
// and price come from the bus's active trip when one exists, otherwise from
// the bus row itself (trip-null mode).
type BusOption struct {
	ID             int64   `json:"id"`
	TripID         *int64  `json:"tripId,omitempty"`
	Name           string  `json:"name"`
	PlateNumber    string  `json:"plate_number"`
	Capacity       int     `json:"capacity"`
	AvailableSeats int     `json:"availableSeats"`
	Price          float64 `json:"price"`
	Route          string  `json:"route"`
	DepartureDate  string  `json:"departure_date,omitempty"`
	DepartureTime  string  `json:"departure_time,omitempty"`
}

// RouteWithBuses is a catalog route together with its bookable buses
type RouteWithBuses struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Buses       []BusOption `json:"buses"`
}
