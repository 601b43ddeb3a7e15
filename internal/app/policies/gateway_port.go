package policies

import (
	"context"
	"fmt"

	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
)

type CaptureMode string

const (
	CaptureAuthorizeOnly CaptureMode = "authorize_only"
	CaptureImmediately   CaptureMode = "capture_immediately"
)

// CaptureModeFor maps a booking payment preference to the order capture mode.
func CaptureModeFor(pref domainbooking.PaymentPreference) CaptureMode {
	if pref == domainbooking.PreferDelayed {
		return CaptureAuthorizeOnly
	}
	return CaptureImmediately
}

type PaymentStatus string

const (
	PaymentCreated    PaymentStatus = "created"
	PaymentAuthorized PaymentStatus = "authorized"
	PaymentCaptured   PaymentStatus = "captured"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentFailed     PaymentStatus = "failed"
)

type Order struct {
	ID     string
	Amount money.Money
	Status string
}

type Payment struct {
	ID       string
	OrderID  string
	Status   PaymentStatus
	Method   string
	Details  domainbooking.MethodDetails
	Amount   money.Money
	Captured money.Money
	Refunded money.Money

	ErrorCode        string
	ErrorReason      string
	ErrorDescription string
}

// Refundable is the captured amount not yet refunded.
func (p Payment) Refundable() money.Money {
	return money.Money{Amount: p.Captured.Amount - p.Refunded.Amount, Currency: p.Amount.Currency}
}

// Settled reports whether the gateway already holds the funds.
func (p Payment) Settled() bool {
	return p.Status == PaymentCaptured || p.Status == PaymentRefunded
}

type Refund struct {
	ID     string
	Amount money.Money
	Status string
}

// Gateway is the payment provider port. Implementations classify every failure as
// ErrGatewayTransient or ErrGatewayRejected and never retry on their own.
type Gateway interface {
	Provider() string
	PublicKey() string
	CreateOrder(ctx context.Context, amount money.Money, mode CaptureMode, receipt string) (Order, error)
	FetchPayment(ctx context.Context, paymentRef string) (Payment, error)
	Capture(ctx context.Context, paymentRef string, amount money.Money) (string, error)
	Refund(ctx context.Context, paymentRef string, amount money.Money) (Refund, error)
	VerifySignature(orderRef, paymentRef, signature string) bool
	VerifyWebhook(body []byte, signature string) bool
}

// GatewayError carries the provider's code and reason; Kind is one of the booking sentinels.
type GatewayError struct {
	Op     string
	Code   string
	Reason string
	Kind   error
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %s: %s (%s)", e.Op, e.Reason, e.Code)
	}
	return fmt.Sprintf("gateway %s: %s", e.Op, e.Reason)
}

func (e *GatewayError) Unwrap() error { return e.Kind }

func Transient(op, reason string) error {
	return &GatewayError{Op: op, Reason: reason, Kind: domainbooking.ErrGatewayTransient}
}

func Rejected(op, code, reason string) error {
	return &GatewayError{Op: op, Code: code, Reason: reason, Kind: domainbooking.ErrGatewayRejected}
}
