package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/elitetransport/booking-backend/internal/database"
	"github.com/elitetransport/booking-backend/internal/models"
	"github.com/elitetransport/booking-backend/pkg/sms"
	"github.com/sirupsen/logrus"
)

// NotifyService fans out booking side effects: receipt generation through
// the Apps Script webhook and SMS through the gateway. Every path here is
// best-effort; callers never fail a booking because a notification did.
type NotifyService struct {
	receiptURL  string
	receiptRepo *database.ReceiptRepository
	gateway     sms.Gateway
	logger      *logrus.Logger
	client      *http.Client
}

// NewNotifyService creates a new notify service
func NewNotifyService(
	cfg *config.ReceiptConfig,
	receiptRepo *database.ReceiptRepository,
	gateway sms.Gateway,
	logger *logrus.Logger,
) *NotifyService {
	return &NotifyService{
		receiptURL:  cfg.WebhookURL,
		receiptRepo: receiptRepo,
		gateway:     gateway,
		logger:      logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ReceiptRequest is the payload sent to the receipt service
type ReceiptRequest struct {
	BookingID     string   `json:"booking_id"`
	PassengerName string   `json:"passenger_name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	RouteName     string   `json:"route_name"`
	BusName       string   `json:"bus_name"`
	Seats         []string `json:"seats"`
	Amount        float64  `json:"amount"`
	Reference     string   `json:"reference"`
}

// receiptResponse is what the Apps Script endpoint returns
type receiptResponse struct {
	Status      string `json:"status"`
	ReceiptURL  string `json:"receipt_url"`
	DriveFileID string `json:"drive_file_id"`
}

// GenerateReceipt calls the receipt service and returns the document URL.
// An unconfigured webhook URL is an error the caller is expected to
// swallow.
func (s *NotifyService) GenerateReceipt(req *ReceiptRequest) (*models.BookingReceipt, error) {
	if s.receiptURL == "" {
		return nil, fmt.Errorf("receipt service not configured")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.receiptURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call receipt service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("receipt service returned status %d", resp.StatusCode)
	}

	var parsed receiptResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse receipt response: %w", err)
	}

	if parsed.ReceiptURL == "" {
		return nil, fmt.Errorf("receipt service returned no URL")
	}

	receipt := &models.BookingReceipt{
		ReceiptURL: parsed.ReceiptURL,
	}
	if parsed.DriveFileID != "" {
		receipt.DriveFileID = &parsed.DriveFileID
	}

	return receipt, nil
}

// SendBookingEffects generates a receipt, persists one booking_receipts
// row per booking, and texts the passenger. Errors are logged and
// swallowed: a failed SMS must never unwind a paid booking.
// Returns the receipt URL when one was produced.
func (s *NotifyService) SendBookingEffects(
	bookingIDs []int64,
	req *ReceiptRequest,
) string {
	receiptURL := ""

	receipt, err := s.GenerateReceipt(req)
	if err != nil {
		s.logger.WithError(err).Warn("Receipt generation failed")
	} else {
		receiptURL = receipt.ReceiptURL
		for _, id := range bookingIDs {
			row := &models.BookingReceipt{
				BookingID:   id,
				ReceiptURL:  receipt.ReceiptURL,
				DriveFileID: receipt.DriveFileID,
			}
			if err := s.receiptRepo.Create(row); err != nil {
				s.logger.WithError(err).WithField("booking_id", id).Warn("Failed to persist receipt")
			}
		}
	}

	message := s.buildSMS(req, receiptURL)
	if err := s.gateway.Send(req.Phone, message); err != nil {
		s.logger.WithError(err).WithField("phone", req.Phone).Warn("Booking SMS failed")
	}

	return receiptURL
}

// HasReceipt reports whether a receipt row already exists for the booking.
// The webhook path uses this to avoid double-sending SMS.
func (s *NotifyService) HasReceipt(bookingID int64) (bool, error) {
	receipt, err := s.receiptRepo.GetByBookingID(bookingID)
	if err != nil {
		return false, err
	}
	return receipt != nil, nil
}

// buildSMS composes the confirmation text: booking id, seats, amount, and
// receipt link when one exists
func (s *NotifyService) buildSMS(req *ReceiptRequest, receiptURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking %s confirmed. Seat(s): %s. Amount: GHS %.2f.",
		req.BookingID, strings.Join(req.Seats, ", "), req.Amount)
	if receiptURL != "" {
		fmt.Fprintf(&b, " Receipt: %s", receiptURL)
	}
	b.WriteString(" Thank you for travelling with Elite Transport.")
	return b.String()
}
