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
	approveBookingKey = "booking.approve"
	cancelBookingKey  = "booking.cancel"
	rejectBookingKey  = "booking.reject"
	maxReasonLength   = 300
)

type ApproveBookingCommand struct {
	BookingID     string
	VendorID      string
	AutoBookDates bool
	ActorRoleV    string
}

func (c ApproveBookingCommand) Key() string { return approveBookingKey }

func (c ApproveBookingCommand) ActorRole() string { return c.ActorRoleV }

func (c ApproveBookingCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleVendor)}
}

func (c ApproveBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return domainbooking.Invalid("booking_id", "is required")
	}
	return nil
}

type ApproveBookingHandler struct {
	Ledger *ledger.Ledger
}

func (h *ApproveBookingHandler) Handle(ctx context.Context, cmd ApproveBookingCommand) (*dto.BookingView, error) {
	b, tx, err := h.Ledger.Approve(ctx, domainbooking.BookingID(cmd.BookingID), cmd.VendorID, cmd.AutoBookDates)
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, tx)
	return &view, nil
}

type CancelBookingCommand struct {
	BookingID  string
	ActorID    string
	Reason     string
	ActorRoleV string
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

func (c CancelBookingCommand) ActorRole() string { return c.ActorRoleV }

func (c CancelBookingCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleCustomer), string(domainbooking.RoleVendor)}
}

func (c CancelBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return domainbooking.Invalid("booking_id", "is required")
	}
	if len([]rune(strings.TrimSpace(c.Reason))) > maxReasonLength {
		return domainbooking.Invalid("reason", "must be at most 300 characters")
	}
	return nil
}

type CancelBookingHandler struct {
	Ledger *ledger.Ledger
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingView, error) {
	b, tx, err := h.Ledger.Cancel(ctx, ledger.CancelParams{
		BookingID: domainbooking.BookingID(cmd.BookingID),
		ActorID:   cmd.ActorID,
		Role:      domainbooking.Role(cmd.ActorRoleV),
		Reason:    cmd.Reason,
	})
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, tx)
	return &view, nil
}

type RejectBookingCommand struct {
	BookingID  string
	VendorID   string
	Reason     string
	ActorRoleV string
}

func (c RejectBookingCommand) Key() string { return rejectBookingKey }

func (c RejectBookingCommand) ActorRole() string { return c.ActorRoleV }

func (c RejectBookingCommand) AllowedRoles() []string {
	return []string{string(domainbooking.RoleVendor)}
}

func (c RejectBookingCommand) Validate() error {
	if strings.TrimSpace(c.BookingID) == "" {
		return domainbooking.Invalid("booking_id", "is required")
	}
	if len([]rune(strings.TrimSpace(c.Reason))) > maxReasonLength {
		return domainbooking.Invalid("reason", "must be at most 300 characters")
	}
	return nil
}

type RejectBookingHandler struct {
	Ledger *ledger.Ledger
}

func (h *RejectBookingHandler) Handle(ctx context.Context, cmd RejectBookingCommand) (*dto.BookingView, error) {
	b, tx, err := h.Ledger.Reject(ctx, domainbooking.BookingID(cmd.BookingID), cmd.VendorID, cmd.Reason)
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, tx)
	return &view, nil
}

var (
	_ commands.Handler[ApproveBookingCommand, *dto.BookingView] = (*ApproveBookingHandler)(nil)
	_ commands.Handler[CancelBookingCommand, *dto.BookingView]  = (*CancelBookingHandler)(nil)
	_ commands.Handler[RejectBookingCommand, *dto.BookingView]  = (*RejectBookingHandler)(nil)
)
