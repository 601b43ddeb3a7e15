package memory

import (
	"context"
	"time"
)

// Inbox is the in-memory webhook delivery log.
type Inbox struct {
	seen      *Expiring[string, struct{}]
	retention time.Duration
}

func NewInbox(now func() time.Time, retention time.Duration) *Inbox {
	return &Inbox{seen: NewExpiring[string, struct{}](now), retention: retention}
}

func (i *Inbox) Seen(ctx context.Context, eventID string) (bool, error) {
	_, ok := i.seen.Get(eventID)
	return ok, nil
}

func (i *Inbox) Record(ctx context.Context, eventID string) error {
	i.seen.SetIfAbsent(eventID, struct{}{}, i.retention)
	return nil
}
