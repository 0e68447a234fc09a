package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elitetransport/booking-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// PaystackService talks to the Paystack transaction API and validates
// webhook signatures
type PaystackService struct {
	config *config.PaystackConfig
	logger *logrus.Logger
	client *http.Client
}

// NewPaystackService creates a new Paystack service
func NewPaystackService(cfg *config.PaystackConfig, logger *logrus.Logger) *PaystackService {
	return &PaystackService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// VerifyData is the subset of the Paystack verify response the finalizer
// needs. Amount is in minor units (pesewas/kobo).
type VerifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// verifyResponse is the Paystack transaction verify envelope
type verifyResponse struct {
	Status  bool       `json:"status"`
	Message string     `json:"message"`
	Data    VerifyData `json:"data"`
}

// WebhookEvent is the Paystack webhook envelope
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
	} `json:"data"`
}

// Verify confirms a transaction server-to-server. A reference whose charge
// did not succeed fails with ErrPaymentVerificationFailed.
func (s *PaystackService) Verify(reference string) (*VerifyData, error) {
	if s.config.SecretKey == "" {
		return nil, fmt.Errorf("%w: payment processor not configured", ErrPaymentVerificationFailed)
	}
	if reference == "" {
		return nil, fmt.Errorf("%w: reference is required", ErrInputInvalid)
	}

	endpoint := fmt.Sprintf("%s/transaction/verify/%s",
		strings.TrimRight(s.config.BaseURL, "/"),
		url.PathEscape(reference),
	)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call verify endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verify response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.WithFields(logrus.Fields{
			"reference": reference,
			"status":    resp.StatusCode,
		}).Warn("Paystack verify returned non-200")
		return nil, fmt.Errorf("%w: processor returned status %d", ErrPaymentVerificationFailed, resp.StatusCode)
	}

	var parsed verifyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse verify response: %w", err)
	}

	if !parsed.Status || parsed.Data.Status != "success" {
		return nil, fmt.Errorf("%w: charge status %q", ErrPaymentVerificationFailed, parsed.Data.Status)
	}

	return &parsed.Data, nil
}

// ValidateSignature checks the webhook HMAC. Paystack signs the raw body
// with HMAC-SHA512 of the secret key; comparison is constant time.
func (s *PaystackService) ValidateSignature(body []byte, signature string) bool {
	if s.config.SecretKey == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(s.config.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
