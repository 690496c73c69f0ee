package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/parishpay/internal/domain/errors"
)

const (
	// SignatureHeader carries the payment processor's payload signature.
	SignatureHeader = "Stripe-Signature"
	maxWebhookBody  = 64 << 10
)

// WebhookHandler accepts payment processor notifications.
type WebhookHandler struct {
	facade WebhookFacade
}

// NewWebhookHandler constructs WebhookHandler.
func NewWebhookHandler(facade WebhookFacade) *WebhookHandler {
	return &WebhookHandler{facade: facade}
}

// Receive handles POST /api/webhooks/stripe.
// Authenticated notifications are always acknowledged with 200; failures are tracked in the payment event ledger.
func (h *WebhookHandler) Receive(c *gin.Context) {
	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		c.String(http.StatusBadRequest, "missing signature")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		c.String(http.StatusBadRequest, "unreadable body")
		return
	}

	if err := h.facade.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		if errors.Is(err, domainErrors.ErrInvalidSignature) {
			c.String(http.StatusBadRequest, "invalid signature")
			return
		}
		_ = c.Error(err)
		c.String(http.StatusOK, "received, processing failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MethodNotAllowed answers non-POST webhook requests.
func (h *WebhookHandler) MethodNotAllowed(c *gin.Context) {
	c.String(http.StatusMethodNotAllowed, "method not allowed")
}
