package models

import "time"

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is one seat sold on a (bus, trip). ExternalRef is the payment
// processor reference; multi-seat purchases share a base reference with
// ":<seat>" appended per seat.
type Booking struct {
	ID          int64         `json:"id" db:"id"`
	PassengerID int64         `json:"passenger_id" db:"passenger_id"`
	BusID       int64         `json:"bus_id" db:"bus_id"`
	TripID      *int64        `json:"trip_id" db:"trip_id"`
	SeatNumber  string        `json:"seat_number" db:"seat_number"`
	PricePaid   float64       `json:"price_paid" db:"price_paid"`
	Status      BookingStatus `json:"status" db:"status"`
	ExternalRef string        `json:"external_ref" db:"external_ref"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// ConfirmBookingRequest finalizes a paid reservation into bookings
type ConfirmBookingRequest struct {
	FirstName   string   `json:"firstName" binding:"required"`
	LastName    string   `json:"lastName" binding:"required"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone" binding:"required"`
	NokName     string   `json:"nokName"`
	NokPhone    string   `json:"nokPhone"`
	BusID       int64    `json:"busId" binding:"required"`
	TripID      *int64   `json:"tripId"`
	Seats       []string `json:"seats"`
	Seat        string   `json:"seat"` // legacy single-seat clients
	Price       float64  `json:"price"`
	UnitPrice   float64  `json:"unitPrice"`
	LockID      string   `json:"lockId" binding:"required"`
	PaystackRef string   `json:"paystackRef" binding:"required"`
}

// SeatList merges the legacy single-seat field into the seats slice
func (r *ConfirmBookingRequest) SeatList() []string {
	if len(r.Seats) > 0 {
		return r.Seats
	}
	if r.Seat != "" {
		return []string{r.Seat}
	}
	return nil
}

// BookingConfirmation is the response for a finalized (or replayed) booking
type BookingConfirmation struct {
	BookingID     string   `json:"booking_id"`
	BookingIDs    []string `json:"booking_ids"`
	PassengerName string   `json:"passenger_name"`
	RouteName     string   `json:"route_name"`
	BusName       string   `json:"bus_name"`
	Seat          string   `json:"seat"`
	Seats         []string `json:"seats"`
	SeatCount     int      `json:"seat_count"`
	Price         float64  `json:"price"`
	Phone         string   `json:"phone"`
	Email         string   `json:"email"`
	Status        string   `json:"status"`
	ReceiptURL    string   `json:"receipt_url,omitempty"`
	Duplicate     bool     `json:"duplicate,omitempty"`
}

// ManualBookingRequest is the admin payload for a no-payment booking
type ManualBookingRequest struct {
	FirstName string   `json:"firstName" binding:"required"`
	LastName  string   `json:"lastName" binding:"required"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone" binding:"required"`
	BusID     int64    `json:"busId" binding:"required"`
	TripID    *int64   `json:"tripId"`
	Seats     []string `json:"seats" binding:"required,min=1"`
	Price     float64  `json:"price"`
}

// UpcomingBookingRow is one row of the admin upcoming-bookings report
type UpcomingBookingRow struct {
	BookingID     int64   `json:"booking_id" db:"booking_id"`
	SeatNumber    string  `json:"seat_number" db:"seat_number"`
	Status        string  `json:"status" db:"status"`
	PricePaid     float64 `json:"price_paid" db:"price_paid"`
	PassengerName string  `json:"passenger_name" db:"passenger_name"`
	Phone         string  `json:"phone" db:"phone"`
	BusName       string  `json:"bus_name" db:"bus_name"`
	RouteID       *int64  `json:"route_id" db:"route_id"`
	RouteName     *string `json:"route_name" db:"route_name"`
	DepartureDate *string `json:"departure_date" db:"departure_date"`
	DepartureTime *string `json:"departure_time" db:"departure_time"`
	CreatedAt     string  `json:"created_at" db:"created_at"`
}

// UpcomingBookingsFilter narrows the upcoming-bookings report
type UpcomingBookingsFilter struct {
	RouteID  *int64
	DateFrom string
	DateTo   string
	Status   string
	Limit    int
	Offset   int
}

// BookingsSummary aggregates the report footer
type BookingsSummary struct {
	Total   int     `json:"total" db:"total"`
	Revenue float64 `json:"revenue" db:"revenue"`
}

// DashboardStats is the admin dashboard bootstrap payload
type DashboardStats struct {
	Routes            int     `json:"routes" db:"routes"`
	Buses             int     `json:"buses" db:"buses"`
	Users             int     `json:"users" db:"users"`
	PendingBookings   int     `json:"pending_bookings" db:"pending_bookings"`
	ConfirmedBookings int     `json:"confirmed_bookings" db:"confirmed_bookings"`
	CancelledBookings int     `json:"cancelled_bookings" db:"cancelled_bookings"`
	Revenue           float64 `json:"revenue" db:"revenue"`
}

// RecentBooking is one of the latest bookings on the dashboard
type RecentBooking struct {
	BookingID     int64   `json:"booking_id" db:"booking_id"`
	PassengerName string  `json:"passenger_name" db:"passenger_name"`
	BusName       string  `json:"bus_name" db:"bus_name"`
	SeatNumber    string  `json:"seat_number" db:"seat_number"`
	PricePaid     float64 `json:"price_paid" db:"price_paid"`
	Status        string  `json:"status" db:"status"`
	ReceiptURL    *string `json:"receipt_url" db:"receipt_url"`
	CreatedAt     string  `json:"created_at" db:"created_at"`
}
