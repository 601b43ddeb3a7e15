package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/outbox"
)

type receipt struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

type chargeCommand struct {
	Amount int
	Role   string
	IdemK  string
}

func (c chargeCommand) Key() string { return "test.charge" }
func (c chargeCommand) IdempotencyKey() string { return c.IdemK }
func (c chargeCommand) ResultPrototype() any { return &receipt{} }
func (c chargeCommand) ActorRole() string { return c.Role }
func (c chargeCommand) AllowedRoles() []string { return []string{"customer"} }
func (c chargeCommand) Validate() error {
	if c.Amount <= 0 {
		return errInvalidAmount
	}
	return nil
}

var errInvalidAmount = errors.New("amount must be positive")

type chargeHandler struct {
	calls int
	fail  error
}

func (h *chargeHandler) Handle(ctx context.Context, cmd chargeCommand) (*receipt, error) {
	h.calls++
	if h.fail != nil {
		return nil, h.fail
	}
	return &receipt{ID: "r-1", Count: h.calls}, nil
}

type mapStore struct {
	records map[string]IdempotencyRecord
	now     time.Time
}

func newMapStore() *mapStore {
	return &mapStore{records: map[string]IdempotencyRecord{}, now: time.Now()}
}

func (s *mapStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	if !ok || !s.now.Before(rec.ExpiresAt) {
		return IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *mapStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

type countingOutbox struct {
	flushes int
}

func (o *countingOutbox) Add(ctx context.Context, record outbox.EventRecord) error { return nil }
func (o *countingOutbox) Flush(ctx context.Context) error {
	o.flushes++
	return nil
}

func newChain(h *chargeHandler, store IdempotencyStore, box outbox.Outbox) commands.Bus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[chargeCommand, *receipt](bus, "test.charge", h)
	return ChainCommands(bus,
		Authorization(RoleAuthorizer{}),
		Validation(SelfValidator{}),
		Idempotency(store, JSONResultCodec{}, time.Hour),
		OutboxFlush(box, nil),
	)
}

func TestIdempotencyReplaysStoredResult(t *testing.T) {
	h := &chargeHandler{}
	bus := newChain(h, newMapStore(), &countingOutbox{})
	cmd := chargeCommand{Amount: 10, Role: "customer", IdemK: "k1"}

	first, err := commands.Dispatch[chargeCommand, *receipt](context.Background(), bus, cmd)
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := commands.Dispatch[chargeCommand, *receipt](context.Background(), bus, cmd)
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if h.calls != 1 {
		t.Fatalf("handler ran %d times", h.calls)
	}
	if *first != *second {
		t.Fatalf("replayed %+v, want %+v", second, first)
	}

	if _, err := commands.Dispatch[chargeCommand, *receipt](context.Background(), bus, chargeCommand{Amount: 10, Role: "customer", IdemK: "k2"}); err != nil {
		t.Fatalf("fresh key: %v", err)
	}
	if h.calls != 2 {
		t.Fatalf("fresh key should run the handler, calls=%d", h.calls)
	}
}

func TestIdempotencyDoesNotRecordFailures(t *testing.T) {
	h := &chargeHandler{fail: errors.New("gateway down")}
	store := newMapStore()
	bus := newChain(h, store, &countingOutbox{})
	cmd := chargeCommand{Amount: 10, Role: "customer", IdemK: "k1"}

	if _, err := bus.Dispatch(context.Background(), cmd); err == nil {
		t.Fatalf("expected failure")
	}
	h.fail = nil
	if _, err := bus.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if h.calls != 2 || len(store.records) != 1 {
		t.Fatalf("expected retry to run, calls=%d records=%d", h.calls, len(store.records))
	}
}

func TestIdempotencyExpiredRecordRunsAgain(t *testing.T) {
	h := &chargeHandler{}
	store := newMapStore()
	bus := newChain(h, store, &countingOutbox{})
	cmd := chargeCommand{Amount: 10, Role: "customer", IdemK: "k1"}

	if _, err := bus.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	store.now = store.now.Add(2 * time.Hour)
	if _, err := bus.Dispatch(context.Background(), cmd); err != nil {
		t.Fatalf("dispatch after expiry: %v", err)
	}
	if h.calls != 2 {
		t.Fatalf("expired key should not replay, calls=%d", h.calls)
	}
}

func TestAuthorizationAndValidationShortCircuit(t *testing.T) {
	h := &chargeHandler{}
	box := &countingOutbox{}
	bus := newChain(h, newMapStore(), box)

	_, err := bus.Dispatch(context.Background(), chargeCommand{Amount: 10, Role: "vendor"})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	_, err = bus.Dispatch(context.Background(), chargeCommand{Amount: 0, Role: "customer"})
	if !errors.Is(err, errInvalidAmount) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.calls != 0 || box.flushes != 0 {
		t.Fatalf("rejected commands reached the handler: calls=%d flushes=%d", h.calls, box.flushes)
	}

	if _, err := bus.Dispatch(context.Background(), chargeCommand{Amount: 5, Role: "customer"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if box.flushes != 1 {
		t.Fatalf("expected one flush, got %d", box.flushes)
	}
}

func TestTracingPassesResultsThrough(t *testing.T) {
	h := &chargeHandler{}
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[chargeCommand, *receipt](bus, "test.charge", h)
	traced := ChainCommands(bus, Tracing(nil))

	got, err := commands.Dispatch[chargeCommand, *receipt](context.Background(), traced, chargeCommand{Amount: 1, Role: "customer"})
	if err != nil || got.ID != "r-1" {
		t.Fatalf("unexpected result %+v %v", got, err)
	}
	h.fail = errors.New("boom")
	if _, err := traced.Dispatch(context.Background(), chargeCommand{Amount: 1, Role: "customer"}); err == nil || err.Error() != "boom" {
		t.Fatalf("error not propagated: %v", err)
	}
}

func TestDispatchReportsResultTypeMismatch(t *testing.T) {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler[chargeCommand, *receipt](bus, "test.charge", &chargeHandler{})
	_, err := commands.Dispatch[chargeCommand, string](context.Background(), bus, chargeCommand{Amount: 1})
	if !errors.Is(err, commands.ErrResultType) {
		t.Fatalf("expected result type error, got %v", err)
	}
	if _, err := bus.Dispatch(context.Background(), unknownCommand{}); !errors.Is(err, commands.ErrHandlerNotFound) {
		t.Fatalf("expected handler not found, got %v", err)
	}
}

type unknownCommand struct{}

func (unknownCommand) Key() string { return "test.unknown" }
