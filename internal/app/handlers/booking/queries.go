package booking

import (
	"context"

	"vendorhub/internal/app/dto"
	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/queries"
	domainbooking "vendorhub/internal/domain/booking"
)

const (
	getBookingKey    = "booking.get"
	previewRefundKey = "booking.refund_preview"
)

type GetBookingQuery struct {
	BookingID  string
	ActorID    string
	ActorRoleV string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

func (q GetBookingQuery) ActorRole() string { return q.ActorRoleV }

func (q GetBookingQuery) AllowedRoles() []string {
	return []string{string(domainbooking.RoleCustomer), string(domainbooking.RoleVendor), string(domainbooking.RoleAdmin)}
}

type GetBookingHandler struct {
	Ledger *ledger.Ledger
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (*dto.BookingView, error) {
	b, tx, err := h.Ledger.Get(ctx, domainbooking.BookingID(q.BookingID), q.ActorID, domainbooking.Role(q.ActorRoleV))
	if err != nil {
		return nil, err
	}
	view := dto.BookingFrom(b, tx)
	return &view, nil
}

type PreviewRefundQuery struct {
	BookingID  string
	ActorID    string
	ActorRoleV string
}

func (q PreviewRefundQuery) Key() string { return previewRefundKey }

func (q PreviewRefundQuery) ActorRole() string { return q.ActorRoleV }

func (q PreviewRefundQuery) AllowedRoles() []string {
	return []string{string(domainbooking.RoleCustomer), string(domainbooking.RoleAdmin)}
}

type PreviewRefundHandler struct {
	Ledger *ledger.Ledger
}

func (h *PreviewRefundHandler) Handle(ctx context.Context, q PreviewRefundQuery) (*dto.RefundPreviewView, error) {
	p, err := h.Ledger.PreviewRefund(ctx, domainbooking.BookingID(q.BookingID), q.ActorID, domainbooking.Role(q.ActorRoleV))
	if err != nil {
		return nil, err
	}
	return &dto.RefundPreviewView{
		BookingID:    q.BookingID,
		RefundAmount: dto.Money(p.RefundAmount),
		TotalAmount:  dto.Money(p.Total),
		Policy:       string(p.Quote.Tier),
		Percent:      p.Quote.Percent,
		DaysBefore:   p.Quote.DaysBefore,
		Captured:     p.Captured,
	}, nil
}

var (
	_ queries.Handler[GetBookingQuery, *dto.BookingView]          = (*GetBookingHandler)(nil)
	_ queries.Handler[PreviewRefundQuery, *dto.RefundPreviewView] = (*PreviewRefundHandler)(nil)
)
