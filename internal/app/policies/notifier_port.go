package policies

import (
	"context"
	"time"
)

// Notification is a fire-and-forget message to one party of a booking.
type Notification struct {
	Event         string         `json:"event"`
	BookingID     string         `json:"booking_id"`
	Recipient     string         `json:"recipient"`
	RecipientRole string         `json:"recipient_role"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	Data          map[string]any `json:"data,omitempty"`
	At            time.Time      `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ReportArchiver stores capture cycle reports for audit.
type ReportArchiver interface {
	Archive(ctx context.Context, key string, payload []byte) error
}
