package notify

import (
	"context"
	"log/slog"

	"vendorhub/internal/app/policies"
)

// LogNotifier writes notifications to the log when no broker is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg policies.Notification) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"routing_key", RoutingKey(msg.Event),
		"booking_id", msg.BookingID,
		"recipient", msg.Recipient,
		"recipient_role", msg.RecipientRole,
		"title", msg.Title,
	)
	return nil
}

var _ policies.Notifier = LogNotifier{}
