package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
)

// Approve captures a requested booking on behalf of its vendor.
func (l *Ledger) Approve(ctx context.Context, id domainbooking.BookingID, vendorID string, autoBookDates bool) (*domainbooking.Booking, *domainbooking.Transaction, error) {
	b, tx, err := l.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkOwner(b, vendorID, domainbooking.RoleVendor); err != nil {
		return nil, nil, err
	}
	if b.Status != domainbooking.StatusRequested && b.Status != domainbooking.StatusAuthorized {
		return nil, nil, stateConflict(b, "approve")
	}
	if b.PaymentRef == "" {
		return nil, nil, fmt.Errorf("%w: booking %s has no payment", domainbooking.ErrStateConflict, b.ID)
	}
	if err := l.claim(ctx, b, opCapture); err != nil {
		return nil, nil, err
	}

	captureRef, err := l.captureGuarded(ctx, b.PaymentRef, b.Amount)
	if err != nil {
		l.abandon(ctx, b)
		l.logger().Warn("approval capture failed", "booking_id", b.ID, "error", err)
		return nil, nil, err
	}
	from := b.Status
	now := l.now()
	if err := b.MarkCaptured(now); err != nil {
		l.abandon(ctx, b)
		return nil, nil, err
	}
	tx.Capture(captureRef, b.Amount, now)
	if err := l.persist(ctx, b, tx, nil); err != nil {
		return nil, nil, err
	}
	l.transitioned(b, from)

	if autoBookDates && l.Dates != nil {
		if err := l.Dates.Reserve(ctx, b.Service, b.Package.Dates); err != nil {
			l.logger().Error("reserve dates", "booking_id", b.ID, "service", b.Service.String(), "error", err)
		}
	}
	l.notify(ctx, capturedNotice(b))
	return b, tx, nil
}

type CancelParams struct {
	BookingID domainbooking.BookingID
	ActorID   string
	Role      domainbooking.Role
	Reason    string
}

// Cancel ends a booking for either party. Vendors owe the full amount and carry a penalty;
// customers get what the service's cancellation policy grants.
func (l *Ledger) Cancel(ctx context.Context, p CancelParams) (*domainbooking.Booking, *domainbooking.Transaction, error) {
	if p.Role != domainbooking.RoleCustomer && p.Role != domainbooking.RoleVendor {
		return nil, nil, domainbooking.Invalid("role", "must be customer or vendor")
	}
	reason := strings.TrimSpace(p.Reason)
	if len([]rune(reason)) > maxReason {
		return nil, nil, domainbooking.Invalid("reason", fmt.Sprintf("must be at most %d characters", maxReason))
	}
	b, tx, err := l.load(ctx, p.BookingID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkOwner(b, p.ActorID, p.Role); err != nil {
		return nil, nil, err
	}
	if b.Status.Terminal() || !b.Status.CanTransition(b.CancelTarget(p.Role)) {
		return nil, nil, stateConflict(b, opCancel)
	}
	if err := l.claim(ctx, b, opCancel); err != nil {
		return nil, nil, err
	}

	captured := b.IsCaptured()
	record := domainbooking.Cancellation{
		Role:         p.Role,
		ActorID:      p.ActorID,
		Reason:       reason,
		RefundAmount: money.Money{Currency: b.Amount.Currency},
		RefundStatus: domainbooking.RefundNotInitiated,
	}
	switch p.Role {
	case domainbooking.RoleVendor:
		record.RefundAmount = b.Amount
		record.Penalty = domainbooking.Penalty{Applied: true, Amount: l.Options.VendorPenalty, Reason: "vendor cancellation"}
	case domainbooking.RoleCustomer:
		if captured {
			record.RefundAmount = l.quote(ctx, b).Amount
		}
	}

	refunded := false
	if captured && record.RefundAmount.IsPositive() {
		r, err := l.refundGuarded(ctx, b.PaymentRef, record.RefundAmount)
		switch {
		case err == nil:
			refunded = true
			record.RefundRef = r.ID
			record.RefundStatus = refundStatusOf(r)
			tx.Refund(r.ID, r.Amount, r.Status, l.now())
		case errors.Is(err, domainbooking.ErrNothingToRefund):
			record.RefundStatus = domainbooking.RefundProcessed
		default:
			l.abandon(ctx, b)
			l.logger().Warn("cancellation refund failed", "booking_id", b.ID, "error", err)
			return nil, nil, err
		}
	}
	if !refunded {
		tx.Void(domainbooking.TxCancelled, l.now())
	}

	from := b.Status
	if err := b.Cancel(record, l.now()); err != nil {
		l.abandon(ctx, b)
		return nil, nil, err
	}
	if err := l.persist(ctx, b, tx, nil); err != nil {
		return nil, nil, err
	}
	l.transitioned(b, from)
	l.logger().Info("booking cancelled",
		"booking_id", b.ID,
		"role", p.Role,
		"refund_amount", record.RefundAmount.String(),
		"refund_call", refunded,
	)

	if p.Role == domainbooking.RoleCustomer && l.Dates != nil {
		if err := l.Dates.Release(ctx, b.Service, b.Package.Dates); err != nil {
			l.logger().Error("release dates", "booking_id", b.ID, "error", err)
		}
	}
	recipient, role := b.VendorID, domainbooking.RoleVendor
	if p.Role == domainbooking.RoleVendor {
		recipient, role = b.CustomerID, domainbooking.RoleCustomer
	}
	l.notify(ctx, policies.Notification{
		Event:         "booking.cancelled",
		BookingID:     string(b.ID),
		Recipient:     recipient,
		RecipientRole: string(role),
		Title:         "Booking cancelled",
		Content:       fmt.Sprintf("%s cancelled %s", p.Role, b.ServiceName),
		Data:          map[string]any{"refund_amount": record.RefundAmount.Amount, "reason": reason},
	})
	return b, tx, nil
}

// Reject declines a booking for its vendor. A captured payment is refunded in full.
func (l *Ledger) Reject(ctx context.Context, id domainbooking.BookingID, vendorID, reason string) (*domainbooking.Booking, *domainbooking.Transaction, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) > maxReason {
		return nil, nil, domainbooking.Invalid("reason", fmt.Sprintf("must be at most %d characters", maxReason))
	}
	b, tx, err := l.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkOwner(b, vendorID, domainbooking.RoleVendor); err != nil {
		return nil, nil, err
	}
	if !b.Status.CanTransition(domainbooking.StatusRejected) {
		return nil, nil, stateConflict(b, opReject)
	}
	if err := l.claim(ctx, b, opReject); err != nil {
		return nil, nil, err
	}

	captured := b.IsCaptured()
	if captured {
		r, err := l.refundGuarded(ctx, b.PaymentRef, b.Amount)
		switch {
		case err == nil:
			tx.Refund(r.ID, r.Amount, r.Status, l.now())
		case errors.Is(err, domainbooking.ErrNothingToRefund):
			tx.Void(domainbooking.TxRejected, l.now())
		default:
			l.abandon(ctx, b)
			l.logger().Warn("rejection refund failed", "booking_id", b.ID, "error", err)
			return nil, nil, err
		}
	} else {
		tx.Void(domainbooking.TxRejected, l.now())
	}

	from := b.Status
	if err := b.Reject(vendorID, reason, l.now()); err != nil {
		l.abandon(ctx, b)
		return nil, nil, err
	}
	if err := l.persist(ctx, b, tx, nil); err != nil {
		return nil, nil, err
	}
	l.transitioned(b, from)

	if captured && l.Dates != nil {
		if err := l.Dates.Release(ctx, b.Service, b.Package.Dates); err != nil {
			l.logger().Error("release dates", "booking_id", b.ID, "error", err)
		}
	}
	l.notify(ctx, policies.Notification{
		Event:         "booking.rejected",
		BookingID:     string(b.ID),
		Recipient:     b.CustomerID,
		RecipientRole: string(domainbooking.RoleCustomer),
		Title:         "Booking rejected",
		Content:       fmt.Sprintf("%s declined your booking: %s", b.ServiceName, reason),
	})
	return b, tx, nil
}

type RefundPreview struct {
	Quote        domainbooking.RefundQuote
	Total        money.Money
	RefundAmount money.Money
	Captured     bool
}

// PreviewRefund reports what a customer cancellation would refund right now.
func (l *Ledger) PreviewRefund(ctx context.Context, id domainbooking.BookingID, actorID string, role domainbooking.Role) (*RefundPreview, error) {
	b, _, err := l.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(b, actorID, role); err != nil {
		return nil, err
	}
	q := l.quote(ctx, b)
	out := &RefundPreview{Quote: q, Total: b.Amount, RefundAmount: money.Money{Currency: b.Amount.Currency}, Captured: b.IsCaptured()}
	if out.Captured {
		out.RefundAmount = q.Amount
	}
	return out, nil
}

func (l *Ledger) Get(ctx context.Context, id domainbooking.BookingID, actorID string, role domainbooking.Role) (*domainbooking.Booking, *domainbooking.Transaction, error) {
	b, tx, err := l.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := checkOwner(b, actorID, role); err != nil {
		return nil, nil, err
	}
	return b, tx, nil
}

// quote applies the service's cancellation tier; an unreadable service falls back to moderate.
func (l *Ledger) quote(ctx context.Context, b *domainbooking.Booking) domainbooking.RefundQuote {
	tier := domainbooking.PolicyModerate
	if l.Services != nil {
		svc, err := l.Services.Find(ctx, b.Service)
		if err != nil {
			l.logger().Warn("cancellation policy lookup", "booking_id", b.ID, "service", b.Service.String(), "error", err)
		} else {
			tier = domainbooking.ParsePolicyTier(svc.CancellationPolicy)
		}
	}
	return domainbooking.QuoteRefund(b.Amount, tier, b.FirstDate(), l.now())
}

func refundStatusOf(r policies.Refund) domainbooking.RefundStatus {
	switch strings.ToLower(r.Status) {
	case "processed":
		return domainbooking.RefundProcessed
	case "failed":
		return domainbooking.RefundFailed
	}
	return domainbooking.RefundInitiated
}
