package sandbox

import (
	"context"
	"fmt"
	"sync"

	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
	"vendorhub/internal/infra/gateway"
)

const Provider = "SANDBOX"

const (
	OpCreateOrder  = "create_order"
	OpFetchPayment = "fetch_payment"
	OpCapture      = "capture"
	OpRefund       = "refund"
)

type order struct {
	id      string
	amount  money.Money
	mode    policies.CaptureMode
	receipt string
}

type fault struct {
	err        error
	afterApply bool
}

// Gateway is an in-process payment provider with the same signature scheme as the real one.
// Faults can be queued per operation to simulate declines and timeouts.
type Gateway struct {
	mu            sync.Mutex
	keyID         string
	secret        string
	webhookSecret string
	seq           int
	orders        map[string]*order
	payments      map[string]*policies.Payment
	faults        map[string][]fault
	calls         map[string]int
}

func New(keyID, secret, webhookSecret string) *Gateway {
	return &Gateway{
		keyID:         keyID,
		secret:        secret,
		webhookSecret: webhookSecret,
		orders:        make(map[string]*order),
		payments:      make(map[string]*policies.Payment),
		faults:        make(map[string][]fault),
		calls:         make(map[string]int),
	}
}

func (g *Gateway) Provider() string  { return Provider }
func (g *Gateway) PublicKey() string { return g.keyID }

func (g *Gateway) CreateOrder(ctx context.Context, amount money.Money, mode policies.CaptureMode, receipt string) (policies.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, err := g.enter(OpCreateOrder)
	if err != nil {
		return policies.Order{}, err
	}
	if !amount.IsPositive() {
		return policies.Order{}, policies.Rejected(OpCreateOrder, "BAD_REQUEST_ERROR", "amount must be positive")
	}
	o := &order{id: g.nextID("order"), amount: amount, mode: mode, receipt: receipt}
	g.orders[o.id] = o
	if f != nil {
		return policies.Order{}, f.err
	}
	return policies.Order{ID: o.id, Amount: amount, Status: "created"}, nil
}

func (g *Gateway) FetchPayment(ctx context.Context, paymentRef string) (policies.Payment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, err := g.enter(OpFetchPayment)
	if err != nil {
		return policies.Payment{}, err
	}
	p, ok := g.payments[paymentRef]
	if !ok {
		return policies.Payment{}, policies.Rejected(OpFetchPayment, "BAD_REQUEST_ERROR", "payment not found")
	}
	if f != nil {
		return policies.Payment{}, f.err
	}
	return *p, nil
}

func (g *Gateway) Capture(ctx context.Context, paymentRef string, amount money.Money) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, err := g.enter(OpCapture)
	if err != nil {
		return "", err
	}
	p, ok := g.payments[paymentRef]
	if !ok {
		return "", policies.Rejected(OpCapture, "BAD_REQUEST_ERROR", "payment not found")
	}
	switch p.Status {
	case policies.PaymentCaptured, policies.PaymentRefunded:
		return "", &policies.GatewayError{Op: OpCapture, Code: "BAD_REQUEST_ERROR", Reason: "payment has already been captured", Kind: domainbooking.ErrAlreadyCaptured}
	case policies.PaymentAuthorized:
	default:
		return "", policies.Rejected(OpCapture, "BAD_REQUEST_ERROR", "payment is not authorized")
	}
	if amount.Amount != p.Amount.Amount {
		return "", policies.Rejected(OpCapture, "BAD_REQUEST_ERROR", "capture amount must equal the authorized amount")
	}
	p.Status = policies.PaymentCaptured
	p.Captured = amount
	if f != nil {
		return "", f.err
	}
	return p.ID, nil
}

func (g *Gateway) Refund(ctx context.Context, paymentRef string, amount money.Money) (policies.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f, err := g.enter(OpRefund)
	if err != nil {
		return policies.Refund{}, err
	}
	p, ok := g.payments[paymentRef]
	if !ok {
		return policies.Refund{}, policies.Rejected(OpRefund, "BAD_REQUEST_ERROR", "payment not found")
	}
	refundable := p.Refundable()
	if !amount.IsPositive() || !refundable.IsPositive() {
		return policies.Refund{}, &policies.GatewayError{Op: OpRefund, Reason: "nothing left to refund", Kind: domainbooking.ErrNothingToRefund}
	}
	if amount.Amount > refundable.Amount {
		return policies.Refund{}, policies.Rejected(OpRefund, "BAD_REQUEST_ERROR", "refund exceeds captured balance")
	}
	p.Refunded.Amount += amount.Amount
	p.Refunded.Currency = amount.Currency
	if p.Refunded.Amount >= p.Captured.Amount {
		p.Status = policies.PaymentRefunded
	}
	r := policies.Refund{ID: g.nextID("rfnd"), Amount: amount, Status: "processed"}
	if f != nil {
		return policies.Refund{}, f.err
	}
	return r, nil
}

func (g *Gateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return gateway.VerifyPayment(g.secret, orderRef, paymentRef, signature)
}

func (g *Gateway) VerifyWebhook(body []byte, signature string) bool {
	return gateway.VerifyBody(g.webhookSecret, body, signature)
}

// Pay simulates the customer completing checkout for orderID and returns the payment id and
// the signature the client would post back.
func (g *Gateway) Pay(orderID, method string) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return "", "", fmt.Errorf("sandbox: unknown order %s", orderID)
	}
	p := &policies.Payment{
		ID:       g.nextID("pay"),
		OrderID:  o.id,
		Status:   policies.PaymentAuthorized,
		Method:   method,
		Amount:   o.amount,
		Refunded: money.Money{Currency: o.amount.Currency},
		Captured: money.Money{Currency: o.amount.Currency},
	}
	if method == "card" {
		p.Details = domainbooking.MethodDetails{CardLast4: "4242", CardNetwork: "Visa", CardType: "credit"}
	}
	if o.mode == policies.CaptureImmediately {
		p.Status = policies.PaymentCaptured
		p.Captured = o.amount
	}
	g.payments[p.ID] = p
	return p.ID, gateway.SignPayment(g.secret, o.id, p.ID), nil
}

// Decline simulates a failed checkout attempt.
func (g *Gateway) Decline(orderID, code, reason string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return "", fmt.Errorf("sandbox: unknown order %s", orderID)
	}
	p := &policies.Payment{ID: g.nextID("pay"), OrderID: o.id, Status: policies.PaymentFailed, Amount: o.amount, ErrorCode: code, ErrorReason: reason}
	g.payments[p.ID] = p
	return p.ID, nil
}

// FailNext makes the next call of op fail with err before any state change.
func (g *Gateway) FailNext(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults[op] = append(g.faults[op], fault{err: err})
}

// TimeoutAfterApply makes the next call of op apply its effect and then report a timeout.
func (g *Gateway) TimeoutAfterApply(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.faults[op] = append(g.faults[op], fault{err: policies.Transient(op, "sandbox: timeout after apply"), afterApply: true})
}

func (g *Gateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

func (g *Gateway) Payment(id string) (policies.Payment, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[id]
	if !ok {
		return policies.Payment{}, false
	}
	return *p, true
}

// enter counts the call and pops a queued fault. A fault without afterApply is returned as an
// error; one with afterApply is handed back for the caller to return after mutating.
func (g *Gateway) enter(op string) (*fault, error) {
	g.calls[op]++
	queue := g.faults[op]
	if len(queue) == 0 {
		return nil, nil
	}
	f := queue[0]
	g.faults[op] = queue[1:]
	if f.err == nil {
		f.err = policies.Transient(op, "sandbox: injected fault")
	}
	if !f.afterApply {
		return nil, f.err
	}
	return &f, nil
}

func (g *Gateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_sbx%06d", prefix, g.seq)
}

var _ policies.Gateway = (*Gateway)(nil)
