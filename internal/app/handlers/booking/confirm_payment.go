package booking

import (
	"context"
	"strings"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/middleware"
	domainbooking "vendorhub/internal/domain/booking"
)

const confirmPaymentKey = "booking.confirm_payment"

type ConfirmPaymentCommand struct {
	OrderRef        string
	PaymentRef      string
	Signature       string
	Preference      string
	CustomerID      string
	ActorRoleV      string
	IdempotencyKeyV string
}

func (c ConfirmPaymentCommand) Key() string { return confirmPaymentKey }

func (c ConfirmPaymentCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c ConfirmPaymentCommand) ResultPrototype() any { return &dto.BookingView{} }

func (c ConfirmPaymentCommand) ActorRole() string { return c.ActorRoleV }

func (c ConfirmPaymentCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleCustomer)}
}

func (c ConfirmPaymentCommand) Validate() error {
	switch {
	case strings.TrimSpace(c.OrderRef) == "":
		return domainbooking.Invalid("order_ref", "is required")
	case strings.TrimSpace(c.PaymentRef) == "":
		return domainbooking.Invalid("payment_ref", "is required")
	case strings.TrimSpace(c.Signature) == "":
		return domainbooking.Invalid("signature", "is required")
	}
	return nil
}

type ConfirmPaymentHandler struct {
	Ledger *ledger.Ledger
}

func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*dto.BookingView, error) {
	b, tx, err := h.Ledger.Confirm(ctx, ledger.ConfirmParams{
		OrderRef:   cmd.OrderRef,
		PaymentRef: cmd.PaymentRef,
		Signature:  cmd.Signature,
		Preference: cmd.Preference,
		ActorID:    cmd.CustomerID,
	})
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, tx)
	return &view, nil
}

var _ commands.Handler[ConfirmPaymentCommand, *dto.BookingView] = (*ConfirmPaymentHandler)(nil)
var _ middleware.IdempotentCommand = (*ConfirmPaymentCommand)(nil)
