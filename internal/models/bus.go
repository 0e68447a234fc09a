package models

// Bus represents a vehicle assigned to a route. available_seats is a
// denormalized hint only; availability truth is derived from bookings and
// unexpired seat locks.
type Bus struct {
	ID             int64   `json:"id" db:"id"`
	RouteID        *int64  `json:"route_id" db:"route_id"`
	Name           string  `json:"name" db:"name"`
	PlateNumber    string  `json:"plate_number" db:"plate_number"`
	Capacity       int     `json:"capacity" db:"capacity"`
	AvailableSeats int     `json:"available_seats" db:"available_seats"`
	Price          float64 `json:"price" db:"price"`
	RouteText      string  `json:"route" db:"route_text"`
}

// CreateBusRequest is the admin payload for registering a bus
type CreateBusRequest struct {
	Name           string  `json:"name" binding:"required"`
	RouteID        int64   `json:"routeId" binding:"required"`
	PlateNumber    string  `json:"plate_number"`
	Capacity       int     `json:"capacity"`
	AvailableSeats int     `json:"available_seats"`
	Price          float64 `json:"price"`
	RouteText      string  `json:"route"`
}
