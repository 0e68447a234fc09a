package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/elitetransport/booking-backend/internal/models"
)

// ReceiptRepository handles booking_receipts database operations
type ReceiptRepository struct {
	db DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create links a generated receipt to a booking. booking_id is unique, so
// a duplicate create surfaces as an error the caller may ignore.
func (r *ReceiptRepository) Create(receipt *models.BookingReceipt) error {
	query := `
		INSERT INTO booking_receipts (booking_id, receipt_url, drive_file_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	receipt.CreatedAt = time.Now()

	_, err := r.db.Exec(
		query,
		receipt.BookingID,
		receipt.ReceiptURL,
		receipt.DriveFileID,
		receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create receipt: %w", err)
	}

	return nil
}

// GetByBookingID retrieves the receipt for a booking, or nil when none
// exists yet
func (r *ReceiptRepository) GetByBookingID(bookingID int64) (*models.BookingReceipt, error) {
	var receipt models.BookingReceipt

	query := `
		SELECT id, booking_id, receipt_url, drive_file_id, created_at
		FROM booking_receipts
		WHERE booking_id = $1
	`

	err := r.db.Get(&receipt, query, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get receipt by booking ID: %w", err)
	}

	return &receipt, nil
}
