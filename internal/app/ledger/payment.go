package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
)

type CreateParams struct {
	CustomerID        string
	Service           catalog.Ref
	Title             string
	Description       string
	AdditionalRequest string
	Dates             []time.Time
	Preference        string
}

type Created struct {
	Booking   *domainbooking.Booking
	OrderRef  string
	PublicKey string
}

// Create prices the request, opens a gateway order and stores the booking as attempted.
func (l *Ledger) Create(ctx context.Context, p CreateParams) (*Created, error) {
	if l.Quoter == nil || l.Gateway == nil || l.UoW == nil {
		return nil, ErrLedgerMisconfigured
	}
	if strings.TrimSpace(p.CustomerID) == "" {
		return nil, domainbooking.Invalid("customer_id", "is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, domainbooking.Invalid("package.title", "is required")
	}
	if len(p.Dates) == 0 {
		return nil, domainbooking.Invalid("package.dates", "at least one date is required")
	}
	pref, err := domainbooking.ParsePaymentPreference(p.Preference)
	if err != nil {
		return nil, err
	}
	ref, err := catalog.NewRef(p.Service.Category, p.Service.ID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	quote, err := l.Quoter.Quote(ctx, ref, p.Dates, now)
	if err != nil {
		return nil, err
	}
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.BookingID(l.NewID()),
		CustomerID:  p.CustomerID,
		VendorID:    quote.Service.VendorID,
		Service:     ref,
		ServiceName: quote.Service.Name,
		Package: domainbooking.Package{
			Title:             p.Title,
			Description:       p.Description,
			UnitPrice:         quote.UnitPrice,
			Dates:             p.Dates,
			AdditionalRequest: p.AdditionalRequest,
		},
		Price:      quote.Checkout,
		Preference: pref,
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	order, err := l.Gateway.CreateOrder(ctx, b.Amount, policies.CaptureModeFor(pref), string(b.ID))
	if err != nil {
		l.logger().Warn("create order failed", "booking_id", b.ID, "error", err)
		return nil, err
	}
	if err := b.AttachOrder(order.ID, now); err != nil {
		return nil, err
	}
	tx := domainbooking.NewTransaction(l.NewID(), b, l.Gateway.Provider(), now)
	if err := l.persist(ctx, b, tx, nil); err != nil {
		return nil, err
	}
	l.logger().Info("booking created",
		"booking_id", b.ID,
		"service", ref.String(),
		"order_ref", order.ID,
		"amount", b.Amount.String(),
		"preference", pref,
		"status", b.Status,
	)
	return &Created{Booking: b, OrderRef: order.ID, PublicKey: l.Gateway.PublicKey()}, nil
}

type ConfirmParams struct {
	OrderRef   string
	PaymentRef string
	Signature  string
	Preference string
	ActorID    string
}

// Confirm verifies the checkout signature and records the payment. Immediate bookings end
// captured, delayed ones requested with a scheduled capture.
func (l *Ledger) Confirm(ctx context.Context, p ConfirmParams) (*domainbooking.Booking, *domainbooking.Transaction, error) {
	switch {
	case strings.TrimSpace(p.OrderRef) == "":
		return nil, nil, domainbooking.Invalid("order_ref", "is required")
	case strings.TrimSpace(p.PaymentRef) == "":
		return nil, nil, domainbooking.Invalid("payment_ref", "is required")
	case strings.TrimSpace(p.Signature) == "":
		return nil, nil, domainbooking.Invalid("signature", "is required")
	}
	if l.Gateway == nil || l.Bookings == nil {
		return nil, nil, ErrLedgerMisconfigured
	}
	if !l.Gateway.VerifySignature(p.OrderRef, p.PaymentRef, p.Signature) {
		l.logger().Warn("payment signature mismatch", "order_ref", p.OrderRef, "payment_ref", p.PaymentRef)
		return nil, nil, fmt.Errorf("%w: order %s", domainbooking.ErrSignatureMismatch, p.OrderRef)
	}

	found, err := l.Bookings.ByOrderRef(ctx, p.OrderRef)
	if err != nil {
		return nil, nil, err
	}
	b, tx, err := l.load(ctx, found.ID)
	if err != nil {
		return nil, nil, err
	}
	if p.ActorID != "" {
		if err := checkOwner(b, p.ActorID, domainbooking.RoleCustomer); err != nil {
			return nil, nil, err
		}
	}
	if p.Preference != "" {
		pref, err := domainbooking.ParsePaymentPreference(p.Preference)
		if err != nil {
			return nil, nil, err
		}
		if pref != b.Preference {
			return nil, nil, domainbooking.Invalid("payment_preference", "does not match the booking")
		}
	}
	if b.PaymentRef == p.PaymentRef && (b.Status == domainbooking.StatusRequested || b.Status == domainbooking.StatusCaptured) {
		return b, tx, nil
	}
	if b.Status != domainbooking.StatusAttempted && b.Status != domainbooking.StatusAuthorized {
		return nil, nil, stateConflict(b, opConfirm)
	}
	if err := l.claim(ctx, b, opConfirm); err != nil {
		return nil, nil, err
	}

	payment, err := l.fetchPayment(ctx, p.PaymentRef)
	if err != nil {
		l.abandon(ctx, b)
		return nil, nil, err
	}
	if payment.OrderID != "" && payment.OrderID != b.OrderRef {
		l.abandon(ctx, b)
		return nil, nil, domainbooking.Invalid("payment_ref", "belongs to another order")
	}
	now := l.now()
	from := b.Status

	if payment.Status == policies.PaymentFailed {
		if err := b.MarkFailed(payment.ErrorCode, payment.ErrorReason, now); err != nil {
			l.abandon(ctx, b)
			return nil, nil, err
		}
		tx.Gateway.PaymentID = p.PaymentRef
		tx.Fail(payment.ErrorCode, payment.ErrorReason, payment.ErrorDescription, now)
		if err := l.persist(ctx, b, tx, nil); err != nil {
			return nil, nil, err
		}
		l.transitioned(b, from)
		l.notify(ctx, paymentFailedNotice(b, payment.ErrorReason))
		return b, tx, policies.Rejected(opConfirm, payment.ErrorCode, "payment failed: "+payment.ErrorReason)
	}
	if payment.Status != policies.PaymentAuthorized && !payment.Settled() {
		l.abandon(ctx, b)
		return nil, nil, policies.Rejected(opConfirm, "PAYMENT_NOT_AUTHORIZED", "payment is "+string(payment.Status))
	}

	captured := payment.Settled()
	captureRef := payment.ID
	if !captured && b.Preference == domainbooking.PreferImmediate {
		captureRef, err = l.captureGuarded(ctx, p.PaymentRef, b.Amount)
		if err != nil {
			l.abandon(ctx, b)
			return nil, nil, err
		}
		captured = true
	}

	now = l.now()
	if err := b.ConfirmPayment(p.PaymentRef, captured, now); err != nil {
		l.abandon(ctx, b)
		return nil, nil, err
	}
	tx.Authorize(p.PaymentRef, p.Signature, payment.Method, payment.Details, now)
	if captured {
		tx.Capture(captureRef, b.Amount, now)
	}
	var sc *domainbooking.ScheduledCapture
	if !captured {
		sc = domainbooking.NewScheduledCapture(l.NewID(), b, b.FirstDate().Add(-l.Options.CaptureLeadTime), now)
	}
	if err := l.persist(ctx, b, tx, sc); err != nil {
		return nil, nil, err
	}
	l.transitioned(b, from)
	if sc != nil {
		l.logger().Info("capture scheduled", "booking_id", b.ID, "schedule_id", sc.ID, "due_at", sc.DueAt)
		l.notify(ctx, policies.Notification{
			Event:         "booking.requested",
			BookingID:     string(b.ID),
			Recipient:     b.VendorID,
			RecipientRole: string(domainbooking.RoleVendor),
			Title:         "New booking request",
			Content:       fmt.Sprintf("%s requested %s for %s", b.CustomerID, b.ServiceName, b.Amount),
			Data:          map[string]any{"dates": b.DayStrings()},
		})
	} else {
		l.notify(ctx, capturedNotice(b))
	}
	return b, tx, nil
}

// MarkAuthorized applies a gateway authorization reported ahead of the client confirmation.
// Anything but an attempted booking is left as is.
func (l *Ledger) MarkAuthorized(ctx context.Context, orderRef, paymentRef string) (*domainbooking.Booking, error) {
	if strings.TrimSpace(orderRef) == "" || strings.TrimSpace(paymentRef) == "" {
		return nil, domainbooking.Invalid("payment", "order and payment references are required")
	}
	found, err := l.Bookings.ByOrderRef(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	b, tx, err := l.load(ctx, found.ID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	if b.Status != domainbooking.StatusAttempted || b.Lease.Active(now) {
		return b, nil
	}
	from := b.Status
	if err := b.MarkAuthorized(paymentRef, now); err != nil {
		return nil, err
	}
	tx.Authorize(paymentRef, "", "", domainbooking.MethodDetails{}, now)
	if err := l.persist(ctx, b, tx, nil); err != nil {
		return nil, err
	}
	l.transitioned(b, from)
	return b, nil
}

type FailureParams struct {
	OrderRef    string
	PaymentRef  string
	Code        string
	Reason      string
	Description string
}

// MarkFailed records a gateway failure callback. Captured or terminal bookings conflict;
// a booking already failed is returned unchanged.
func (l *Ledger) MarkFailed(ctx context.Context, p FailureParams) (*domainbooking.Booking, error) {
	if strings.TrimSpace(p.OrderRef) == "" {
		return nil, domainbooking.Invalid("order_ref", "is required")
	}
	found, err := l.Bookings.ByOrderRef(ctx, p.OrderRef)
	if err != nil {
		return nil, err
	}
	b, tx, err := l.load(ctx, found.ID)
	if err != nil {
		return nil, err
	}
	if b.Status == domainbooking.StatusFailed {
		return b, nil
	}
	now := l.now()
	if b.Lease.Active(now) {
		return nil, fmt.Errorf("%w: %s in progress", domainbooking.ErrStateConflict, b.Lease.Op)
	}
	from := b.Status
	if err := b.MarkFailed(p.Code, p.Reason, now); err != nil {
		return nil, err
	}
	if tx.Gateway.PaymentID == "" {
		tx.Gateway.PaymentID = p.PaymentRef
	}
	tx.Fail(p.Code, p.Reason, p.Description, now)
	if err := l.persist(ctx, b, tx, nil); err != nil {
		return nil, err
	}
	l.transitioned(b, from)
	l.notify(ctx, paymentFailedNotice(b, p.Reason))
	return b, nil
}

func capturedNotice(b *domainbooking.Booking) policies.Notification {
	return policies.Notification{
		Event:         "booking.captured",
		BookingID:     string(b.ID),
		Recipient:     b.CustomerID,
		RecipientRole: string(domainbooking.RoleCustomer),
		Title:         "Booking confirmed",
		Content:       fmt.Sprintf("Payment of %s for %s was captured", b.Amount, b.ServiceName),
		Data:          map[string]any{"dates": b.DayStrings()},
	}
}

func paymentFailedNotice(b *domainbooking.Booking, reason string) policies.Notification {
	return policies.Notification{
		Event:         "booking.payment_failed",
		BookingID:     string(b.ID),
		Recipient:     b.CustomerID,
		RecipientRole: string(domainbooking.RoleCustomer),
		Title:         "Payment failed",
		Content:       fmt.Sprintf("Payment for %s failed: %s", b.ServiceName, reason),
	}
}
