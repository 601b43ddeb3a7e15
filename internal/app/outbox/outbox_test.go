package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"

	"vendorhub/internal/domain/shared/events"
)

type capturedEvent struct {
	BookingID string    `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e capturedEvent) EventName() string     { return "booking.captured" }
func (e capturedEvent) AggregateID() string   { return e.BookingID }
func (e capturedEvent) OccurredAt() time.Time { return e.At }

type sliceOutbox struct {
	records []EventRecord
}

func (o *sliceOutbox) Add(ctx context.Context, record EventRecord) error {
	o.records = append(o.records, record)
	return nil
}

func (o *sliceOutbox) Flush(ctx context.Context) error { return nil }

func TestRecordDomainEventsCarriesTraceContext(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	box := &sliceOutbox{}
	at := time.Date(2026, 11, 2, 10, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	enc := JSONEventEncoder{IDGenerator: func() string { return "evt-1" }}
	err := RecordDomainEvents(ctx, box, enc, []events.DomainEvent{capturedEvent{BookingID: "bk-1", At: at}})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(box.records) != 1 {
		t.Fatalf("expected one record, got %d", len(box.records))
	}
	rec := box.records[0]
	if rec.ID != "evt-1" || rec.Aggregate != "bk-1" || rec.Name != "booking.captured" || !rec.OccurredAt.Equal(at) || rec.OccurredAt.Location() != time.UTC {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Headers["aggregate_type"] != "booking" {
		t.Fatalf("unexpected aggregate type %q", rec.Headers["aggregate_type"])
	}
	if want := "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"; rec.Headers["traceparent"] != want {
		t.Fatalf("traceparent %q, want %q", rec.Headers["traceparent"], want)
	}
	var body capturedEvent
	if err := json.Unmarshal(rec.Payload, &body); err != nil || body.BookingID != "bk-1" {
		t.Fatalf("unexpected payload %s %v", rec.Payload, err)
	}
}

func TestRecordDomainEventsWithoutSpanOmitsTraceparent(t *testing.T) {
	box := &sliceOutbox{}
	if err := RecordDomainEvents(context.Background(), box, nil, []events.DomainEvent{capturedEvent{BookingID: "bk-2"}}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, ok := box.records[0].Headers["traceparent"]; ok {
		t.Fatalf("traceparent set without an active span")
	}
	if err := RecordDomainEvents(context.Background(), nil, nil, []events.DomainEvent{capturedEvent{}}); err != nil {
		t.Fatalf("nil outbox should be ignored: %v", err)
	}
}
