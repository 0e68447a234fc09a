package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/elitetransport/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// WebhookHandler receives payment processor events. The same handler backs
// /api/paystack/webhook and the bare POST / fallback some processor
// configurations deliver to.
type WebhookHandler struct {
	paystack *services.PaystackService
	bookings *services.BookingService
	logger   *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	paystack *services.PaystackService,
	bookings *services.BookingService,
	logger *logrus.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		paystack: paystack,
		bookings: bookings,
		logger:   logger,
	}
}

// Receive handles POST /api/paystack/webhook. The signature covers the raw
// body, so the body is read before any JSON decoding. A valid signature
// always gets a 200 so the processor stops retrying; processing failures
// are logged, not surfaced.
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Paystack-Signature")
	if !h.paystack.ValidateSignature(body, signature) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var event services.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.WithError(err).Warn("Webhook payload is not valid JSON")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.bookings.ProcessWebhook(&event); err != nil {
		h.logger.WithError(err).WithField("event", event.Event).Error("Webhook processing failed")
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// ReceiveFallback handles POST /. Only requests carrying the processor
// signature header are treated as webhooks; anything else gets a 404.
func (h *WebhookHandler) ReceiveFallback(c *gin.Context) {
	if c.GetHeader("X-Paystack-Signature") == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	h.Receive(c)
}
