package models

import "time"

// Passenger holds the contact details captured at booking time. A new row
// is created per booking, so one human may appear many times.
type Passenger struct {
	ID        int64     `json:"id" db:"id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	NokName   *string   `json:"nok_name,omitempty" db:"nok_name"`
	NokPhone  *string   `json:"nok_phone,omitempty" db:"nok_phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
