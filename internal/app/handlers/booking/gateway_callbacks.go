package booking

import (
	"context"
	"strings"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/ledger"
	domainbooking "vendorhub/internal/domain/booking"
)

const (
	paymentAuthorizedKey = "booking.payment_authorized"
	paymentFailedKey     = "booking.payment_failed"
)

// PaymentAuthorizedCommand comes from a verified gateway webhook, not from a user.
type PaymentAuthorizedCommand struct {
	OrderRef   string
	PaymentRef string
}

func (c PaymentAuthorizedCommand) Key() string { return paymentAuthorizedKey }

func (c PaymentAuthorizedCommand) Validate() error {
	if strings.TrimSpace(c.OrderRef) == "" || strings.TrimSpace(c.PaymentRef) == "" {
		return domainbooking.Invalid("payment", "order_id and payment id are required")
	}
	return nil
}

type PaymentAuthorizedHandler struct {
	Ledger *ledger.Ledger
}

func (h *PaymentAuthorizedHandler) Handle(ctx context.Context, cmd PaymentAuthorizedCommand) (*dto.BookingView, error) {
	b, err := h.Ledger.MarkAuthorized(ctx, cmd.OrderRef, cmd.PaymentRef)
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, nil)
	return &view, nil
}

type PaymentFailedCommand struct {
	OrderRef    string
	PaymentRef  string
	Code        string
	Reason      string
	Description string
}

func (c PaymentFailedCommand) Key() string { return paymentFailedKey }

func (c PaymentFailedCommand) Validate() error {
	if strings.TrimSpace(c.OrderRef) == "" {
		return domainbooking.Invalid("order_ref", "is required")
	}
	return nil
}

type PaymentFailedHandler struct {
	Ledger *ledger.Ledger
}

func (h *PaymentFailedHandler) Handle(ctx context.Context, cmd PaymentFailedCommand) (*dto.BookingView, error) {
	b, err := h.Ledger.MarkFailed(ctx, ledger.FailureParams{
		OrderRef:    cmd.OrderRef,
		PaymentRef:  cmd.PaymentRef,
		Code:        cmd.Code,
		Reason:      cmd.Reason,
		Description: cmd.Description,
	})
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, nil)
	return &view, nil
}

var (
	_ commands.Handler[PaymentAuthorizedCommand, *dto.BookingView] = (*PaymentAuthorizedHandler)(nil)
	_ commands.Handler[PaymentFailedCommand, *dto.BookingView]     = (*PaymentFailedHandler)(nil)
)
