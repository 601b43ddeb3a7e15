package ginserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	bookingapp "vendorhub/internal/app/handlers/booking"
	domainbooking "vendorhub/internal/domain/booking"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	eventIDHeader   = "X-Razorpay-Event-Id"
	maxWebhookBody  = 1 << 20
)

// WebhookHandler receives gateway callbacks. The body HMAC is checked before anything is parsed.
type WebhookHandler struct {
	Commands commands.Bus
	Verifier WebhookVerifier
	Inbox    WebhookInbox
	Logger   *slog.Logger
}

// WebhookInbox records delivered event ids; the gateway redelivers until it gets a 2xx.
type WebhookInbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID string) error
}

type WebhookVerifier interface {
	VerifyWebhook(body []byte, signature string) bool
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorCode        string `json:"error_code"`
				ErrorReason      string `json:"error_reason"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func (h WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, err)
		return
	}
	if h.Verifier == nil || !h.Verifier.VerifyWebhook(body, c.GetHeader(signatureHeader)) {
		respondError(c, h.Logger, domainbooking.ErrSignatureMismatch)
		return
	}
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		badRequest(c, err)
		return
	}
	entity := env.Payload.Payment.Entity
	ctx := c.Request.Context()

	eventID := c.GetHeader(eventIDHeader)
	if eventID != "" && h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, eventID)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		if seen {
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}
	}

	var view *dto.BookingView
	switch env.Event {
	case "payment.authorized":
		view, err = commands.Dispatch[bookingapp.PaymentAuthorizedCommand, *dto.BookingView](ctx, h.Commands, bookingapp.PaymentAuthorizedCommand{
			OrderRef:   entity.OrderID,
			PaymentRef: entity.ID,
		})
	case "payment.failed":
		view, err = commands.Dispatch[bookingapp.PaymentFailedCommand, *dto.BookingView](ctx, h.Commands, bookingapp.PaymentFailedCommand{
			OrderRef:    entity.OrderID,
			PaymentRef:  entity.ID,
			Code:        entity.ErrorCode,
			Reason:      entity.ErrorReason,
			Description: entity.ErrorDescription,
		})
	default:
		if h.Logger != nil {
			h.Logger.Info("webhook event ignored", "event", env.Event)
		}
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if eventID != "" && h.Inbox != nil {
		if err := h.Inbox.Record(ctx, eventID); err != nil && h.Logger != nil {
			h.Logger.Warn("webhook delivery not recorded", "event_id", eventID, "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "processed", "booking_id": view.ID, "booking_status": view.Status})
}
