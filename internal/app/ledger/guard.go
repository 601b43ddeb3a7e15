package ledger

import (
	"context"
	"errors"
	"time"

	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
)

// Gateway calls that time out have an unknown outcome. Every retry below re-reads the payment
// first and treats an already applied effect as success.

func (l *Ledger) fetchPayment(ctx context.Context, paymentRef string) (policies.Payment, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 && !l.backoff(ctx, attempt-1) {
			return policies.Payment{}, lastErr
		}
		p, err := l.Gateway.FetchPayment(ctx, paymentRef)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domainbooking.ErrGatewayTransient) {
			return policies.Payment{}, err
		}
		lastErr = err
	}
}

// captureGuarded returns the capture reference. A payment already settled at the gateway counts
// as captured without another call.
func (l *Ledger) captureGuarded(ctx context.Context, paymentRef string, amount money.Money) (string, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 && !l.backoff(ctx, attempt-1) {
			return "", lastErr
		}
		p, err := l.Gateway.FetchPayment(ctx, paymentRef)
		if err != nil {
			if errors.Is(err, domainbooking.ErrGatewayTransient) {
				lastErr = err
				continue
			}
			return "", err
		}
		if p.Settled() {
			return p.ID, nil
		}
		if p.Status != policies.PaymentAuthorized {
			return "", policies.Rejected(opCapture, p.ErrorCode, "payment is "+string(p.Status))
		}

		ref, err := l.Gateway.Capture(ctx, paymentRef, amount)
		switch {
		case err == nil:
			return ref, nil
		case errors.Is(err, domainbooking.ErrAlreadyCaptured):
			return paymentRef, nil
		case errors.Is(err, domainbooking.ErrGatewayTransient):
			l.logger().Warn("capture outcome unknown", "payment_ref", paymentRef, "attempt", attempt+1, "error", err)
			lastErr = err
		default:
			return "", err
		}
	}
}

// refundGuarded brings the payment's refunded total up to owed, capped by the captured balance.
// Every attempt re-reads the payment first, so a refund whose outcome was lost to a timeout is
// counted instead of paid again. A failed read never leads to a refund call.
func (l *Ledger) refundGuarded(ctx context.Context, paymentRef string, owed money.Money) (policies.Refund, error) {
	if !owed.IsPositive() {
		return policies.Refund{}, nothingToRefund()
	}
	var lastErr error
	for attempt := 0; ; attempt++ {
		if attempt > 0 && !l.backoff(ctx, attempt-1) {
			return policies.Refund{}, lastErr
		}
		p, err := l.Gateway.FetchPayment(ctx, paymentRef)
		if err != nil {
			if errors.Is(err, domainbooking.ErrGatewayTransient) {
				lastErr = err
				continue
			}
			return policies.Refund{}, err
		}
		remaining := owed.Amount - p.Refunded.Amount
		if remaining <= 0 {
			return policies.Refund{Amount: owed, Status: string(domainbooking.RefundProcessed)}, nil
		}
		refundable := p.Refundable()
		if !refundable.IsPositive() {
			return policies.Refund{}, nothingToRefund()
		}
		amount := money.Money{Amount: remaining, Currency: owed.Currency}
		if amount.Amount > refundable.Amount {
			amount.Amount = refundable.Amount
		}

		r, err := l.Gateway.Refund(ctx, paymentRef, amount)
		switch {
		case err == nil:
			r.Amount = money.Money{Amount: p.Refunded.Amount + amount.Amount, Currency: owed.Currency}
			return r, nil
		case errors.Is(err, domainbooking.ErrGatewayTransient):
			l.logger().Warn("refund outcome unknown", "payment_ref", paymentRef, "attempt", attempt+1, "error", err)
			lastErr = err
		default:
			return policies.Refund{}, err
		}
	}
}

func nothingToRefund() error {
	return &policies.GatewayError{Op: "refund", Reason: "nothing left to refund", Kind: domainbooking.ErrNothingToRefund}
}

// backoff waits for the i-th retry delay and reports whether another attempt may run.
func (l *Ledger) backoff(ctx context.Context, i int) bool {
	if i >= len(l.Options.RetryBackoff) {
		return false
	}
	timer := time.NewTimer(l.Options.RetryBackoff[i])
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
