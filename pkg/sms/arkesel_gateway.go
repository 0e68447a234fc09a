package sms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultArkeselAPIURL is the Arkesel v2 SMS endpoint.
const DefaultArkeselAPIURL = "https://sms.arkesel.com/api/v2/sms/send"

// ArkeselGateway implements SMS sending via the Arkesel v2 API
type ArkeselGateway struct {
	apiURL   string
	apiKey   string
	senderID string
	client   *http.Client
}

// ArkeselConfig holds configuration for the Arkesel SMS gateway
type ArkeselConfig struct {
	APIURL   string // defaults to DefaultArkeselAPIURL when empty
	APIKey   string
	SenderID string
}

// NewArkeselGateway creates a new Arkesel SMS gateway client
func NewArkeselGateway(config ArkeselConfig) *ArkeselGateway {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = DefaultArkeselAPIURL
	}
	return &ArkeselGateway{
		apiURL:   apiURL,
		apiKey:   config.APIKey,
		senderID: config.SenderID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendRequest is the Arkesel v2 send payload
type sendRequest struct {
	Sender     string   `json:"sender"`
	Message    string   `json:"message"`
	Recipients []string `json:"recipients"`
}

// sendResponse is the Arkesel v2 send response
type sendResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Send delivers a message to a single phone number via Arkesel
func (g *ArkeselGateway) Send(phone, message string) error {
	if g.apiKey == "" {
		return fmt.Errorf("arkesel gateway not configured: missing API key")
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return fmt.Errorf("recipient phone number is required")
	}

	payload := sendRequest{
		Sender:     g.senderID,
		Message:    message,
		Recipients: []string{phone},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SMS request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read SMS response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("arkesel returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed sendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("failed to parse SMS response: %w", err)
	}

	if !strings.EqualFold(parsed.Status, "success") {
		return fmt.Errorf("arkesel rejected message: %s", parsed.Message)
	}

	return nil
}

// GetName returns the gateway name
func (g *ArkeselGateway) GetName() string {
	return "Arkesel"
}
