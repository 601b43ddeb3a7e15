package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"vendorhub/internal/app/availability"
	"vendorhub/internal/app/outbox"
	"vendorhub/internal/app/policies"
	"vendorhub/internal/app/quoting"
	"vendorhub/internal/app/uow"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
)

const (
	opConfirm  = "confirm"
	opCapture  = "capture"
	opCancel   = "cancel"
	opReject   = "reject"
	maxReason  = 300
	defaultTTL = 2 * time.Minute
)

var ErrLedgerMisconfigured = errors.New("ledger: misconfigured")

type Options struct {
	LeaseTTL        time.Duration
	CaptureLeadTime time.Duration
	RetryBackoff    []time.Duration
	VendorPenalty   money.Money
}

// Ledger owns every status change of a booking and its transaction. Reads go through the plain
// repositories; writes go through a unit of work together with the outbox events.
type Ledger struct {
	UoW          uow.UoWFactory
	Bookings     domainbooking.Repository
	Transactions domainbooking.TransactionRepository
	Schedules    domainbooking.ScheduleRepository
	Quoter       *quoting.Quoter
	Services     *policies.ServiceRegistry
	Dates        *availability.Updater
	Gateway      policies.Gateway
	Notifier     policies.Notifier
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Logger       *slog.Logger
	Now          func() time.Time
	IDGen        func() string
	Options      Options
}

func (l *Ledger) load(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, *domainbooking.Transaction, error) {
	if l.Bookings == nil || l.Transactions == nil || l.Gateway == nil || l.UoW == nil {
		return nil, nil, ErrLedgerMisconfigured
	}
	b, err := l.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	tx, err := l.Transactions.ByBookingID(ctx, b.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("ledger: transaction of %s: %w", b.ID, err)
	}
	return b, tx, nil
}

// claim takes the operation lease and persists it before any gateway mutation. A concurrent
// writer surfaces here as a live lease or a stale version.
func (l *Ledger) claim(ctx context.Context, b *domainbooking.Booking, op string) error {
	if err := b.Claim(op, l.now(), l.leaseTTL()); err != nil {
		return err
	}
	return l.Bookings.Save(ctx, b)
}

// abandon drops the lease after a failed gateway step; the booking keeps its status.
func (l *Ledger) abandon(ctx context.Context, b *domainbooking.Booking) {
	b.ReleaseLease()
	b.ClearEvents()
	if err := l.Bookings.Save(ctx, b); err != nil {
		l.logger().Warn("release operation lease", "booking_id", b.ID, "error", err)
	}
}

// persist writes the aggregates and their pending events in one unit of work.
func (l *Ledger) persist(ctx context.Context, b *domainbooking.Booking, tx *domainbooking.Transaction, sc *domainbooking.ScheduledCapture) error {
	err := uow.Run(ctx, l.UoW, uow.TxOptions{}, func(ctx context.Context, unit uow.UnitOfWork) error {
		if b != nil {
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
		}
		if tx != nil {
			if err := unit.Transactions().Save(ctx, tx); err != nil {
				return err
			}
		}
		if sc != nil {
			if err := unit.Schedules().Save(ctx, sc); err != nil {
				return err
			}
		}
		if b == nil {
			return nil
		}
		return outbox.RecordDomainEvents(ctx, l.Outbox, l.Encoder, b.PendingEvents())
	})
	if err != nil {
		return err
	}
	if b != nil {
		b.ClearEvents()
	}
	return nil
}

func (l *Ledger) transitioned(b *domainbooking.Booking, from domainbooking.Status) {
	l.logger().Info("booking transitioned", "booking_id", b.ID, "from", from, "to", b.Status)
}

func (l *Ledger) notify(ctx context.Context, n policies.Notification) {
	if l.Notifier == nil || n.Recipient == "" {
		return
	}
	if n.At.IsZero() {
		n.At = l.now()
	}
	if err := l.Notifier.Notify(ctx, n); err != nil {
		l.logger().Warn("notification failed", "event", n.Event, "booking_id", n.BookingID, "error", err)
	}
}

func (l *Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *Ledger) NewID() string {
	if l.IDGen != nil {
		return l.IDGen()
	}
	return uuid.NewString()
}

func (l *Ledger) leaseTTL() time.Duration {
	if l.Options.LeaseTTL > 0 {
		return l.Options.LeaseTTL
	}
	return defaultTTL
}

func (l *Ledger) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func checkOwner(b *domainbooking.Booking, actorID string, role domainbooking.Role) error {
	switch role {
	case domainbooking.RoleAdmin:
		return nil
	case domainbooking.RoleCustomer:
		if b.CustomerID == actorID {
			return nil
		}
	case domainbooking.RoleVendor:
		if b.VendorID == actorID {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %s on booking %s", domainbooking.ErrNotOwned, role, actorID, b.ID)
}

func stateConflict(b *domainbooking.Booking, op string) error {
	return fmt.Errorf("%w: cannot %s a %s booking", domainbooking.ErrStateConflict, op, b.Status)
}
