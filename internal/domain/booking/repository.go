package booking

import (
	"context"
	"time"
)

// Repository persists bookings. Save is conditional on the loaded Version and bumps it;
// a stale version fails with ErrStateConflict.
type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByOrderRef(ctx context.Context, orderRef string) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
}

type TransactionRepository interface {
	ByBookingID(ctx context.Context, id BookingID) (*Transaction, error)
	Save(ctx context.Context, tx *Transaction) error
}

type ScheduleRepository interface {
	ByID(ctx context.Context, id string) (*ScheduledCapture, error)
	// PendingByBooking returns nil when the booking has no pending schedule.
	PendingByBooking(ctx context.Context, id BookingID) (*ScheduledCapture, error)
	Due(ctx context.Context, now time.Time, limit int) ([]*ScheduledCapture, error)
	// Save refuses a second pending schedule for the same booking with ErrStateConflict.
	Save(ctx context.Context, schedule *ScheduledCapture) error
}
