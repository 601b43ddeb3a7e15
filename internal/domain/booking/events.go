package booking

import (
	"time"

	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/money"
)

type BookingAttempted struct {
	BookingID  BookingID   `json:"booking_id"`
	CustomerID string      `json:"customer_id"`
	VendorID   string      `json:"vendor_id"`
	Service    catalog.Ref `json:"service"`
	OrderRef   string      `json:"order_ref"`
	Amount     money.Money `json:"amount"`
	At         time.Time   `json:"at"`
}

func (e BookingAttempted) EventName() string     { return "booking.attempted" }
func (e BookingAttempted) AggregateID() string   { return string(e.BookingID) }
func (e BookingAttempted) OccurredAt() time.Time { return e.At }

type PaymentConfirmed struct {
	BookingID  BookingID   `json:"booking_id"`
	PaymentRef string      `json:"payment_ref"`
	Status     Status      `json:"status"`
	Amount     money.Money `json:"amount"`
	At         time.Time   `json:"at"`
}

func (e PaymentConfirmed) EventName() string     { return "booking.payment_confirmed" }
func (e PaymentConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e PaymentConfirmed) OccurredAt() time.Time { return e.At }

type BookingCaptured struct {
	BookingID  BookingID   `json:"booking_id"`
	PaymentRef string      `json:"payment_ref"`
	Amount     money.Money `json:"amount"`
	At         time.Time   `json:"at"`
}

func (e BookingCaptured) EventName() string     { return "booking.captured" }
func (e BookingCaptured) AggregateID() string   { return string(e.BookingID) }
func (e BookingCaptured) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID    BookingID    `json:"booking_id"`
	Role         Role         `json:"role"`
	ActorID      string       `json:"actor_id"`
	Reason       string       `json:"reason"`
	RefundAmount money.Money  `json:"refund_amount"`
	RefundStatus RefundStatus `json:"refund_status"`
	Status       Status       `json:"status"`
	At           time.Time    `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingRejected struct {
	BookingID BookingID `json:"booking_id"`
	VendorID  string    `json:"vendor_id"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (e BookingRejected) EventName() string     { return "booking.rejected" }
func (e BookingRejected) AggregateID() string   { return string(e.BookingID) }
func (e BookingRejected) OccurredAt() time.Time { return e.At }

type PaymentFailed struct {
	BookingID BookingID `json:"booking_id"`
	OrderRef  string    `json:"order_ref"`
	Code      string    `json:"code"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (e PaymentFailed) EventName() string     { return "booking.payment_failed" }
func (e PaymentFailed) AggregateID() string   { return string(e.BookingID) }
func (e PaymentFailed) OccurredAt() time.Time { return e.At }
