package models

import "time"

// BookingReceipt links a booking to its generated receipt document. Its
// existence also marks that the confirmation SMS has been sent, which is
// what keeps the webhook fallback from double-texting.
type BookingReceipt struct {
	ID          int64     `json:"id" db:"id"`
	BookingID   int64     `json:"booking_id" db:"booking_id"`
	ReceiptURL  string    `json:"receipt_url" db:"receipt_url"`
	DriveFileID *string   `json:"drive_file_id,omitempty" db:"drive_file_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
