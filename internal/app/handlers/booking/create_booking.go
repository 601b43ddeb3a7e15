package booking

import (
	"context"
	"strings"
	"time"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/middleware"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
)

const createBookingKey = "booking.create"

type CreateBookingCommand struct {
	CustomerID        string
	Category          string
	ServiceID         string
	Title             string
	Description       string
	AdditionalRequest string
	Dates             []time.Time
	Preference        string
	ActorRoleV        string
	IdempotencyKeyV   string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.CheckoutView{} }

func (c CreateBookingCommand) ActorRole() string { return c.ActorRoleV }

func (c CreateBookingCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleCustomer)}
}

func (c CreateBookingCommand) Validate() error {
	switch {
	case strings.TrimSpace(c.Category) == "" || strings.TrimSpace(c.ServiceID) == "":
		return domainbooking.Invalid("service", "category and id are required")
	case strings.TrimSpace(c.Title) == "":
		return domainbooking.Invalid("package.title", "is required")
	case len(c.Dates) == 0:
		return domainbooking.Invalid("package.dates", "at least one date is required")
	}
	_, err := domainbooking.ParsePaymentPreference(c.Preference)
	return err
}

type CreateBookingHandler struct {
	Ledger *ledger.Ledger
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.CheckoutView, error) {
	created, err := h.Ledger.Create(ctx, ledger.CreateParams{
		CustomerID:        cmd.CustomerID,
		Service:           catalog.Ref{Category: cmd.Category, ID: cmd.ServiceID},
		Title:             cmd.Title,
		Description:       cmd.Description,
		AdditionalRequest: cmd.AdditionalRequest,
		Dates:             cmd.Dates,
		Preference:        cmd.Preference,
	})
	if err != nil {
		return nil, err
	}
	b := created.Booking
	return &dto.CheckoutView{
		BookingID:        string(b.ID),
		OrderRef:         created.OrderRef,
		Amount:           b.Amount.Amount,
		Currency:         b.Amount.Currency,
		GatewayPublicKey: created.PublicKey,
		Status:           string(b.Status),
		Price:            dto.Breakdown(b.Price),
	}, nil
}

var _ commands.Handler[CreateBookingCommand, *dto.CheckoutView] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*CreateBookingCommand)(nil)
