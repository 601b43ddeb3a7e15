package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "vendorhub/internal/app/outbox"
)

// Outbox buffers events in memory; Flush hands them to the log and forgets them.
type Outbox struct {
	mu        sync.Mutex
	records   []appoutbox.EventRecord
	delivered int
	logger    *slog.Logger
}

func NewOutbox(logger *slog.Logger) *Outbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Outbox{logger: logger}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range o.records {
		o.logger.DebugContext(ctx, "domain event", "event", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
	}
	o.delivered += len(o.records)
	o.records = nil
	return nil
}

// Pending returns a copy of events not yet flushed.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

func (o *Outbox) Delivered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.delivered
}

var _ appoutbox.Outbox = (*Outbox)(nil)
