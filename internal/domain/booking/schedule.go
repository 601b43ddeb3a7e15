package booking

import (
	"time"

	"vendorhub/internal/domain/shared/money"
)

type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	ScheduleSuccess   ScheduleStatus = "success"
	ScheduleFailed    ScheduleStatus = "failed"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// ScheduledCapture is a deferred capture job for a delayed-payment booking.
type ScheduledCapture struct {
	ID          string
	BookingID   BookingID
	CustomerID  string
	VendorID    string
	PaymentRef  string
	Amount      money.Money
	DueAt       time.Time
	Status      ScheduleStatus
	LastError   string
	AttemptedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

func NewScheduledCapture(id string, b *Booking, dueAt, now time.Time) *ScheduledCapture {
	now = now.UTC()
	if dueAt.Before(now) {
		dueAt = now
	}
	return &ScheduledCapture{
		ID:         id,
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		VendorID:   b.VendorID,
		PaymentRef: b.PaymentRef,
		Amount:     b.Amount,
		DueAt:      dueAt.UTC(),
		Status:     SchedulePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (s *ScheduledCapture) IsDue(now time.Time) bool {
	return s.Status == SchedulePending && !s.DueAt.After(now)
}

func (s *ScheduledCapture) Succeed(now time.Time) {
	s.finish(ScheduleSuccess, "", now)
}

func (s *ScheduledCapture) Fail(reason string, now time.Time) {
	s.finish(ScheduleFailed, reason, now)
}

func (s *ScheduledCapture) Cancel(reason string, now time.Time) {
	s.finish(ScheduleCancelled, reason, now)
}

func (s *ScheduledCapture) finish(status ScheduleStatus, reason string, now time.Time) {
	now = now.UTC()
	s.Status = status
	s.LastError = reason
	s.AttemptedAt = now
	s.UpdatedAt = now
}

func (s *ScheduledCapture) Clone() *ScheduledCapture {
	c := *s
	return &c
}
