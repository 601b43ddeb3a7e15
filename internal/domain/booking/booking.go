package booking

import (
	"strings"
	"time"

	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/pricing"
	"vendorhub/internal/domain/shared/daterange"
	"vendorhub/internal/domain/shared/events"
	"vendorhub/internal/domain/shared/money"
)

type BookingID string

type Package struct {
	Title             string
	Description       string
	UnitPrice         money.Money
	Dates             []time.Time
	AdditionalRequest string
}

type RefundStatus string

const (
	RefundNotInitiated RefundStatus = "not_initiated"
	RefundInitiated    RefundStatus = "initiated"
	RefundProcessed    RefundStatus = "processed"
	RefundFailed       RefundStatus = "failed"
)

type Penalty struct {
	Applied bool
	Amount  money.Money
	Reason  string
}

type Cancellation struct {
	Role         Role
	ActorID      string
	Reason       string
	At           time.Time
	RefundAmount money.Money
	RefundStatus RefundStatus
	RefundRef    string
	Penalty      Penalty
}

type Rejection struct {
	Reason  string
	ActorID string
	Role    Role
	At      time.Time
}

// Lease marks an in-flight gateway operation on the booking.
type Lease struct {
	Op      string
	Expires time.Time
}

func (l Lease) Active(now time.Time) bool {
	return l.Op != "" && now.Before(l.Expires)
}

type Booking struct {
	ID           BookingID
	CustomerID   string
	VendorID     string
	Service      catalog.Ref
	ServiceName  string
	Package      Package
	Amount       money.Money
	Price        pricing.Breakdown
	Preference   PaymentPreference
	Status       Status
	OrderRef     string
	PaymentRef   string
	Rejection    *Rejection
	Cancellation *Cancellation
	Lease        Lease
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

type CreateParams struct {
	ID          BookingID
	CustomerID  string
	VendorID    string
	Service     catalog.Ref
	ServiceName string
	Package     Package
	Price       pricing.Breakdown
	Preference  PaymentPreference
	CreatedAt   time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	switch {
	case params.ID == "":
		return nil, Invalid("id", "is required")
	case strings.TrimSpace(params.CustomerID) == "":
		return nil, Invalid("customer_id", "is required")
	case strings.TrimSpace(params.VendorID) == "":
		return nil, Invalid("vendor_id", "is required")
	case params.Service.Category == "" || params.Service.ID == "":
		return nil, Invalid("service", "category and id are required")
	case strings.TrimSpace(params.Package.Title) == "":
		return nil, Invalid("package.title", "is required")
	case len(params.Package.Dates) == 0:
		return nil, Invalid("package.dates", "at least one date is required")
	case !params.Price.Total.IsPositive():
		return nil, Invalid("amount", "must be positive")
	}
	if params.Preference != PreferImmediate && params.Preference != PreferDelayed {
		return nil, Invalid("payment_preference", "must be immediate or delayed")
	}
	now := params.CreatedAt.UTC()
	pkg := params.Package
	pkg.Dates = daterange.Normalize(pkg.Dates)
	return &Booking{
		ID:          params.ID,
		CustomerID:  params.CustomerID,
		VendorID:    params.VendorID,
		Service:     params.Service,
		ServiceName: params.ServiceName,
		Package:     pkg,
		Amount:      params.Price.Total,
		Price:       params.Price,
		Preference:  params.Preference,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// FirstDate is the earliest reserved date.
func (b *Booking) FirstDate() time.Time {
	return daterange.First(b.Package.Dates)
}

func (b *Booking) DayStrings() []string {
	return daterange.FormatAll(b.Package.Dates)
}

func (b *Booking) IsCaptured() bool {
	return b.Status == StatusCaptured
}

// Claim takes the operation lease; a live lease held by anyone is a conflict.
func (b *Booking) Claim(op string, now time.Time, ttl time.Duration) error {
	if b.Lease.Active(now) {
		return conflictLease(b.Lease.Op)
	}
	b.Lease = Lease{Op: op, Expires: now.UTC().Add(ttl)}
	return nil
}

func (b *Booking) ReleaseLease() {
	b.Lease = Lease{}
}

// AttachOrder links the gateway order and moves the booking to attempted.
func (b *Booking) AttachOrder(orderRef string, now time.Time) error {
	if strings.TrimSpace(orderRef) == "" {
		return Invalid("order_ref", "is required")
	}
	if err := b.transition(StatusAttempted, now); err != nil {
		return err
	}
	b.OrderRef = orderRef
	b.Record(BookingAttempted{BookingID: b.ID, CustomerID: b.CustomerID, VendorID: b.VendorID, Service: b.Service, OrderRef: orderRef, Amount: b.Amount, At: b.UpdatedAt})
	return nil
}

// MarkAuthorized records a gateway authorization reported before confirmation.
func (b *Booking) MarkAuthorized(paymentRef string, now time.Time) error {
	if err := b.transition(StatusAuthorized, now); err != nil {
		return err
	}
	b.PaymentRef = paymentRef
	return nil
}

// ConfirmPayment moves to captured when the payment was settled, otherwise to requested.
func (b *Booking) ConfirmPayment(paymentRef string, captured bool, now time.Time) error {
	if strings.TrimSpace(paymentRef) == "" {
		return Invalid("payment_ref", "is required")
	}
	next := StatusRequested
	if captured {
		next = StatusCaptured
	}
	if err := b.transition(next, now); err != nil {
		return err
	}
	b.PaymentRef = paymentRef
	b.Record(PaymentConfirmed{BookingID: b.ID, PaymentRef: paymentRef, Status: next, Amount: b.Amount, At: b.UpdatedAt})
	if captured {
		b.Record(BookingCaptured{BookingID: b.ID, PaymentRef: paymentRef, Amount: b.Amount, At: b.UpdatedAt})
	}
	return nil
}

func (b *Booking) MarkCaptured(now time.Time) error {
	if err := b.transition(StatusCaptured, now); err != nil {
		return err
	}
	b.Record(BookingCaptured{BookingID: b.ID, PaymentRef: b.PaymentRef, Amount: b.Amount, At: b.UpdatedAt})
	return nil
}

// Cancel records the cancellation. Vendor cancellations end in refunded once a payment was
// authorized, everything else in cancelled.
func (b *Booking) Cancel(record Cancellation, now time.Time) error {
	if b.Rejection != nil {
		return conflict(b.Status, StatusCancelled)
	}
	next := b.CancelTarget(record.Role)
	if err := b.transition(next, now); err != nil {
		return err
	}
	record.At = b.UpdatedAt
	b.Cancellation = &record
	b.Record(BookingCancelled{
		BookingID:    b.ID,
		Role:         record.Role,
		ActorID:      record.ActorID,
		Reason:       record.Reason,
		RefundAmount: record.RefundAmount,
		RefundStatus: record.RefundStatus,
		Status:       next,
		At:           b.UpdatedAt,
	})
	return nil
}

func (b *Booking) CancelTarget(role Role) Status {
	if role == RoleVendor && b.Status.CanTransition(StatusRefunded) {
		return StatusRefunded
	}
	return StatusCancelled
}

func (b *Booking) Reject(actorID, reason string, now time.Time) error {
	if b.Cancellation != nil {
		return conflict(b.Status, StatusRejected)
	}
	if err := b.transition(StatusRejected, now); err != nil {
		return err
	}
	b.Rejection = &Rejection{Reason: reason, ActorID: actorID, Role: RoleVendor, At: b.UpdatedAt}
	b.Record(BookingRejected{BookingID: b.ID, VendorID: actorID, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) MarkFailed(code, reason string, now time.Time) error {
	if err := b.transition(StatusFailed, now); err != nil {
		return err
	}
	b.Record(PaymentFailed{BookingID: b.ID, OrderRef: b.OrderRef, Code: code, Reason: reason, At: b.UpdatedAt})
	return nil
}

func (b *Booking) transition(next Status, now time.Time) error {
	if !b.Status.CanTransition(next) {
		return conflict(b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	b.Lease = Lease{}
	return nil
}

// Clone returns a deep copy without pending events.
func (b *Booking) Clone() *Booking {
	c := *b
	c.EventRecorder = events.EventRecorder{}
	c.Package.Dates = append([]time.Time(nil), b.Package.Dates...)
	if b.Cancellation != nil {
		cc := *b.Cancellation
		c.Cancellation = &cc
	}
	if b.Rejection != nil {
		rc := *b.Rejection
		c.Rejection = &rc
	}
	return &c
}
