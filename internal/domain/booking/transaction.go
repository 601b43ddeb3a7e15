package booking

import (
	"time"

	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/money"
)

type TxStatus string

const (
	TxPending    TxStatus = "pending"
	TxAuthorized TxStatus = "authorized"
	TxCaptured   TxStatus = "captured"
	TxFailed     TxStatus = "failed"
	TxRefunded   TxStatus = "refunded"
	TxCancelled  TxStatus = "cancelled"
	TxRejected   TxStatus = "rejected"
)

type MethodDetails struct {
	CardLast4   string
	CardNetwork string
	CardType    string
	VPA         string
	Bank        string
}

type CaptureRecord struct {
	CaptureID  string
	Amount     money.Money
	CapturedAt time.Time
}

type RefundRecord struct {
	RefundID   string
	Amount     money.Money
	Status     string
	RefundedAt time.Time
}

type FailureRecord struct {
	Reason      string
	Code        string
	Description string
	FailedAt    time.Time
}

// GatewayRecord is the provider sub-record of a transaction.
type GatewayRecord struct {
	OrderID   string
	PaymentID string
	Signature string
	Method    string
	Details   MethodDetails
	Capture   *CaptureRecord
	Refund    *RefundRecord
	Failure   *FailureRecord
}

// Transaction mirrors the money movement of exactly one booking.
type Transaction struct {
	ID         string
	BookingID  BookingID
	CustomerID string
	VendorID   string
	Service    catalog.Ref
	Provider   string
	Amount     money.Money
	Status     TxStatus
	Gateway    GatewayRecord
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
}

func NewTransaction(id string, b *Booking, provider string, now time.Time) *Transaction {
	now = now.UTC()
	return &Transaction{
		ID:         id,
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		VendorID:   b.VendorID,
		Service:    b.Service,
		Provider:   provider,
		Amount:     b.Amount,
		Status:     TxPending,
		Gateway:    GatewayRecord{OrderID: b.OrderRef},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (t *Transaction) Authorize(paymentID, signature, method string, details MethodDetails, now time.Time) {
	t.Gateway.PaymentID = paymentID
	if signature != "" {
		t.Gateway.Signature = signature
	}
	if method != "" {
		t.Gateway.Method = method
		t.Gateway.Details = details
	}
	if t.Status == TxPending {
		t.Status = TxAuthorized
	}
	t.UpdatedAt = now.UTC()
}

func (t *Transaction) Capture(captureID string, amount money.Money, now time.Time) {
	now = now.UTC()
	t.Status = TxCaptured
	t.Gateway.Capture = &CaptureRecord{CaptureID: captureID, Amount: amount, CapturedAt: now}
	t.UpdatedAt = now
}

func (t *Transaction) Refund(refundID string, amount money.Money, status string, now time.Time) {
	now = now.UTC()
	t.Status = TxRefunded
	t.Gateway.Refund = &RefundRecord{RefundID: refundID, Amount: amount, Status: status, RefundedAt: now}
	t.UpdatedAt = now
}

// Void closes a transaction that ends without a refund of its own: an authorization never
// captured, or a capture the cancellation policy keeps.
func (t *Transaction) Void(status TxStatus, now time.Time) {
	t.Status = status
	t.UpdatedAt = now.UTC()
}

func (t *Transaction) Fail(code, reason, description string, now time.Time) {
	t.Status = TxFailed
	t.RecordFailure(code, reason, description, now)
}

// RecordFailure stores the failure sub-record without changing the status.
func (t *Transaction) RecordFailure(code, reason, description string, now time.Time) {
	now = now.UTC()
	t.Gateway.Failure = &FailureRecord{Reason: reason, Code: code, Description: description, FailedAt: now}
	t.UpdatedAt = now
}

func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Gateway.Capture != nil {
		cp := *t.Gateway.Capture
		c.Gateway.Capture = &cp
	}
	if t.Gateway.Refund != nil {
		rf := *t.Gateway.Refund
		c.Gateway.Refund = &rf
	}
	if t.Gateway.Failure != nil {
		f := *t.Gateway.Failure
		c.Gateway.Failure = &f
	}
	return &c
}
