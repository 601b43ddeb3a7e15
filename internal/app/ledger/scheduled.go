package ledger

import (
	"context"
	"errors"
	"fmt"

	domainbooking "vendorhub/internal/domain/booking"
)

type CaptureOutcome string

const (
	OutcomeCaptured        CaptureOutcome = "captured"
	OutcomeAlreadyCaptured CaptureOutcome = "already_captured"
	OutcomeCancelled       CaptureOutcome = "cancelled"
	OutcomeFailed          CaptureOutcome = "failed"
	OutcomeSkipped         CaptureOutcome = "skipped"
)

// CaptureScheduled runs one due capture job and resolves the schedule. A gateway error fails
// the schedule and leaves the booking untouched; a held lease leaves the schedule pending.
func (l *Ledger) CaptureScheduled(ctx context.Context, sc *domainbooking.ScheduledCapture) (CaptureOutcome, error) {
	if l.Schedules == nil {
		return OutcomeSkipped, ErrLedgerMisconfigured
	}
	b, tx, err := l.load(ctx, sc.BookingID)
	if errors.Is(err, domainbooking.ErrBookingNotFound) {
		return l.finishSchedule(ctx, sc, OutcomeCancelled, "booking not found")
	}
	if err != nil {
		return OutcomeSkipped, err
	}

	switch {
	case b.IsCaptured():
		return l.finishSchedule(ctx, sc, OutcomeAlreadyCaptured, "")
	case b.Status.Terminal():
		return l.finishSchedule(ctx, sc, OutcomeCancelled, "booking "+string(b.Status))
	case b.Status != domainbooking.StatusRequested && b.Status != domainbooking.StatusAuthorized:
		return OutcomeSkipped, stateConflict(b, "capture")
	}
	if err := l.claim(ctx, b, opCapture); err != nil {
		return OutcomeSkipped, err
	}

	paymentRef := b.PaymentRef
	if paymentRef == "" {
		paymentRef = sc.PaymentRef
	}
	captureRef, err := l.captureGuarded(ctx, paymentRef, b.Amount)
	if err != nil {
		l.abandon(ctx, b)
		if _, ferr := l.finishSchedule(ctx, sc, OutcomeFailed, err.Error()); ferr != nil {
			return OutcomeFailed, errors.Join(err, ferr)
		}
		return OutcomeFailed, err
	}

	from := b.Status
	now := l.now()
	if err := b.MarkCaptured(now); err != nil {
		l.abandon(ctx, b)
		return OutcomeSkipped, err
	}
	tx.Capture(captureRef, b.Amount, now)
	sc.Succeed(now)
	if err := l.persist(ctx, b, tx, sc); err != nil {
		return OutcomeSkipped, fmt.Errorf("ledger: persist scheduled capture %s: %w", sc.ID, err)
	}
	l.transitioned(b, from)
	l.notify(ctx, capturedNotice(b))
	return OutcomeCaptured, nil
}

func (l *Ledger) finishSchedule(ctx context.Context, sc *domainbooking.ScheduledCapture, outcome CaptureOutcome, reason string) (CaptureOutcome, error) {
	now := l.now()
	switch outcome {
	case OutcomeAlreadyCaptured:
		sc.Succeed(now)
	case OutcomeCancelled:
		sc.Cancel(reason, now)
	case OutcomeFailed:
		sc.Fail(reason, now)
	}
	if err := l.Schedules.Save(ctx, sc); err != nil {
		return OutcomeSkipped, err
	}
	return outcome, nil
}
