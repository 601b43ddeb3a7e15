package dto

import (
	"time"

	domainbooking "vendorhub/internal/domain/booking"
	domainpricing "vendorhub/internal/domain/pricing"
	"vendorhub/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func Money(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type PriceBreakdown struct {
	PricingType    string   `json:"pricing_type"`
	UnitPrice      MoneyDTO `json:"unit_price"`
	Units          int64    `json:"units"`
	Base           MoneyDTO `json:"base"`
	GuestFee       MoneyDTO `json:"guest_fee"`
	PlatformFee    MoneyDTO `json:"platform_fee"`
	VendorReceives MoneyDTO `json:"vendor_receives"`
	Total          MoneyDTO `json:"total"`
}

func Breakdown(b domainpricing.Breakdown) PriceBreakdown {
	return PriceBreakdown{
		PricingType:    string(b.PricingType),
		UnitPrice:      Money(b.UnitPrice),
		Units:          b.Units,
		Base:           Money(b.Base),
		GuestFee:       Money(b.GuestFee),
		PlatformFee:    Money(b.PlatformFee),
		VendorReceives: Money(b.VendorReceives),
		Total:          Money(b.Total),
	}
}

type ServiceSnapshot struct {
	Category string `json:"category"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

type PackageView struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Dates             []string `json:"dates"`
	AdditionalRequest string   `json:"additional_request,omitempty"`
	UnitPrice         MoneyDTO `json:"unit_price"`
}

type CancellationView struct {
	Role           string    `json:"role"`
	ActorID        string    `json:"actor_id"`
	Reason         string    `json:"reason,omitempty"`
	At             time.Time `json:"at"`
	RefundAmount   MoneyDTO  `json:"refund_amount"`
	RefundStatus   string    `json:"refund_status"`
	RefundRef      string    `json:"refund_ref,omitempty"`
	PenaltyApplied bool      `json:"penalty_applied"`
	PenaltyAmount  MoneyDTO  `json:"penalty_amount"`
}

type RejectionView struct {
	Reason  string    `json:"reason,omitempty"`
	ActorID string    `json:"actor_id"`
	At      time.Time `json:"at"`
}

type TransactionView struct {
	ID          string       `json:"id"`
	Provider    string       `json:"provider"`
	Status      string       `json:"status"`
	Amount      MoneyDTO     `json:"amount"`
	OrderID     string       `json:"order_id"`
	PaymentID   string       `json:"payment_id,omitempty"`
	Method      string       `json:"method,omitempty"`
	CardLast4   string       `json:"card_last4,omitempty"`
	CardNetwork string       `json:"card_network,omitempty"`
	VPA         string       `json:"vpa,omitempty"`
	Bank        string       `json:"bank,omitempty"`
	Capture     *CaptureView `json:"capture,omitempty"`
	Refund      *RefundView  `json:"refund,omitempty"`
	Failure     *FailureView `json:"failure,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type CaptureView struct {
	CaptureID  string    `json:"capture_id"`
	Amount     MoneyDTO  `json:"amount"`
	CapturedAt time.Time `json:"captured_at"`
}

type RefundView struct {
	RefundID   string    `json:"refund_id,omitempty"`
	Amount     MoneyDTO  `json:"amount"`
	Status     string    `json:"status"`
	RefundedAt time.Time `json:"refunded_at"`
}

type FailureView struct {
	Code        string    `json:"code,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Description string    `json:"description,omitempty"`
	FailedAt    time.Time `json:"failed_at"`
}

type BookingView struct {
	ID                string            `json:"id"`
	CustomerID        string            `json:"customer_id"`
	VendorID          string            `json:"vendor_id"`
	Service           ServiceSnapshot   `json:"service"`
	Package           PackageView       `json:"package"`
	Price             PriceBreakdown    `json:"price"`
	Amount            MoneyDTO          `json:"amount"`
	PaymentPreference string            `json:"payment_preference"`
	Status            string            `json:"status"`
	OrderRef          string            `json:"order_ref,omitempty"`
	PaymentRef        string            `json:"payment_ref,omitempty"`
	Cancellation      *CancellationView `json:"cancellation,omitempty"`
	Rejection         *RejectionView    `json:"rejection,omitempty"`
	Transaction       *TransactionView  `json:"transaction,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// BookingFrom renders a booking with its transaction; tx may be nil.
func BookingFrom(b *domainbooking.Booking, tx *domainbooking.Transaction) BookingView {
	view := BookingView{
		ID:         string(b.ID),
		CustomerID: b.CustomerID,
		VendorID:   b.VendorID,
		Service:    ServiceSnapshot{Category: b.Service.Category, ID: b.Service.ID, Name: b.ServiceName},
		Package: PackageView{
			Title:             b.Package.Title,
			Description:       b.Package.Description,
			Dates:             b.DayStrings(),
			AdditionalRequest: b.Package.AdditionalRequest,
			UnitPrice:         Money(b.Package.UnitPrice),
		},
		Price:             Breakdown(b.Price),
		Amount:            Money(b.Amount),
		PaymentPreference: string(b.Preference),
		Status:            string(b.Status),
		OrderRef:          b.OrderRef,
		PaymentRef:        b.PaymentRef,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
	if c := b.Cancellation; c != nil {
		view.Cancellation = &CancellationView{
			Role:           string(c.Role),
			ActorID:        c.ActorID,
			Reason:         c.Reason,
			At:             c.At,
			RefundAmount:   Money(c.RefundAmount),
			RefundStatus:   string(c.RefundStatus),
			RefundRef:      c.RefundRef,
			PenaltyApplied: c.Penalty.Applied,
			PenaltyAmount:  Money(c.Penalty.Amount),
		}
	}
	if r := b.Rejection; r != nil {
		view.Rejection = &RejectionView{Reason: r.Reason, ActorID: r.ActorID, At: r.At}
	}
	if tx != nil {
		t := TransactionFrom(tx)
		view.Transaction = &t
	}
	return view
}

func TransactionFrom(tx *domainbooking.Transaction) TransactionView {
	g := tx.Gateway
	view := TransactionView{
		ID:          tx.ID,
		Provider:    tx.Provider,
		Status:      string(tx.Status),
		Amount:      Money(tx.Amount),
		OrderID:     g.OrderID,
		PaymentID:   g.PaymentID,
		Method:      g.Method,
		CardLast4:   g.Details.CardLast4,
		CardNetwork: g.Details.CardNetwork,
		VPA:         g.Details.VPA,
		Bank:        g.Details.Bank,
		UpdatedAt:   tx.UpdatedAt,
	}
	if c := g.Capture; c != nil {
		view.Capture = &CaptureView{CaptureID: c.CaptureID, Amount: Money(c.Amount), CapturedAt: c.CapturedAt}
	}
	if r := g.Refund; r != nil {
		view.Refund = &RefundView{RefundID: r.RefundID, Amount: Money(r.Amount), Status: r.Status, RefundedAt: r.RefundedAt}
	}
	if f := g.Failure; f != nil {
		view.Failure = &FailureView{Code: f.Code, Reason: f.Reason, Description: f.Description, FailedAt: f.FailedAt}
	}
	return view
}

// CheckoutView is what the client needs to open the gateway checkout.
type CheckoutView struct {
	BookingID        string         `json:"booking_id"`
	OrderRef         string         `json:"order_ref"`
	Amount           int64          `json:"amount"`
	Currency         string         `json:"currency"`
	GatewayPublicKey string         `json:"gateway_public_key"`
	Status           string         `json:"status"`
	Price            PriceBreakdown `json:"price"`
}

type RefundPreviewView struct {
	BookingID    string   `json:"booking_id"`
	RefundAmount MoneyDTO `json:"refund_amount"`
	TotalAmount  MoneyDTO `json:"total_amount"`
	Policy       string   `json:"policy"`
	Percent      int      `json:"percent"`
	DaysBefore   int      `json:"days_before"`
	Captured     bool     `json:"captured"`
}

type ScheduleView struct {
	ID         string    `json:"id"`
	BookingID  string    `json:"booking_id"`
	PaymentRef string    `json:"payment_ref"`
	Amount     MoneyDTO  `json:"amount"`
	DueAt      time.Time `json:"due_at"`
	Status     string    `json:"status"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func ScheduleFrom(s *domainbooking.ScheduledCapture) ScheduleView {
	return ScheduleView{
		ID:         s.ID,
		BookingID:  string(s.BookingID),
		PaymentRef: s.PaymentRef,
		Amount:     Money(s.Amount),
		DueAt:      s.DueAt,
		Status:     string(s.Status),
		LastError:  s.LastError,
		CreatedAt:  s.CreatedAt,
	}
}
