package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"vendorhub/internal/app/availability"
	"vendorhub/internal/app/outbox"
	"vendorhub/internal/app/policies"
	"vendorhub/internal/app/quoting"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/money"
	"vendorhub/internal/infra/gateway"
	"vendorhub/internal/infra/gateway/sandbox"
	"vendorhub/internal/infra/storage/memory"
)

var baseNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []policies.Notification
}

func (n *recordingNotifier) Notify(ctx context.Context, note policies.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return nil
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, note := range n.sent {
		out = append(out, note.Event)
	}
	return out
}

type harness struct {
	ledger    *Ledger
	gateway   *sandbox.Gateway
	clock     *clock
	services  *memory.ServiceStore
	schedules *memory.ScheduleRepository
	box       *memory.Outbox
	notes     *recordingNotifier
}

func newHarness(t *testing.T, policy string) *harness {
	t.Helper()
	clk := &clock{t: baseNow}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewServiceStore("photography")
	store.Put(catalog.Service{
		Ref:                catalog.Ref{ID: "svc-1"},
		VendorID:           "vendor-1",
		Name:               "Lens and Light",
		Location:           "Pune",
		MinPrice:           10000,
		MaxPrice:           20000,
		Rating:             4.5,
		CancellationPolicy: policy,
		PricingType:        catalog.PricingPerDay,
	})
	registry := policies.NewServiceRegistry()
	registry.Register("photography", store)

	bookings := memory.NewBookingRepository()
	txs := memory.NewTransactionRepository()
	schedules := memory.NewScheduleRepository()
	gw := sandbox.New("key_test", "secret_test", "whsec_test")
	box := memory.NewOutbox(logger)
	notes := &recordingNotifier{}

	l := &Ledger{
		UoW:          memory.Factory{Bookings: bookings, Transactions: txs, Schedules: schedules},
		Bookings:     bookings,
		Transactions: txs,
		Schedules:    schedules,
		Quoter:       &quoting.Quoter{Services: registry, Configs: memory.NewPricingConfigRepository(), Currency: "INR", Now: clk.Now},
		Services:     registry,
		Dates:        &availability.Updater{Services: registry, Logger: logger},
		Gateway:      gw,
		Notifier:     notes,
		Outbox:       box,
		Encoder:      outbox.JSONEventEncoder{},
		Logger:       logger,
		Now:          clk.Now,
		Options: Options{
			LeaseTTL:        time.Minute,
			CaptureLeadTime: 72 * time.Hour,
			RetryBackoff:    []time.Duration{time.Millisecond, time.Millisecond},
			VendorPenalty:   money.FromMajor(100, "INR"),
		},
	}
	return &harness{ledger: l, gateway: gw, clock: clk, services: store, schedules: schedules, box: box, notes: notes}
}

func (h *harness) create(t *testing.T, pref string, daysOut ...int) *Created {
	t.Helper()
	if len(daysOut) == 0 {
		daysOut = []int{18}
	}
	var dates []time.Time
	for _, d := range daysOut {
		dates = append(dates, time.Date(2026, 10, 1+d, 0, 0, 0, 0, time.UTC))
	}
	created, err := h.ledger.Create(context.Background(), CreateParams{
		CustomerID: "cust-1",
		Service:    catalog.Ref{Category: "Photography", ID: "svc-1"},
		Title:      "Wedding shoot",
		Dates:      dates,
		Preference: pref,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return created
}

func (h *harness) confirm(t *testing.T, created *Created) *domainbooking.Booking {
	t.Helper()
	paymentRef, signature, err := h.gateway.Pay(created.OrderRef, "card")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	b, _, err := h.ledger.Confirm(context.Background(), ConfirmParams{
		OrderRef:   created.OrderRef,
		PaymentRef: paymentRef,
		Signature:  signature,
		ActorID:    "cust-1",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return b
}

func TestCreateStoresAttemptedBooking(t *testing.T) {
	h := newHarness(t, "moderate")
	created := h.create(t, "", 18, 19)
	b := created.Booking
	if b.Status != domainbooking.StatusAttempted {
		t.Fatalf("expected attempted, got %s", b.Status)
	}
	if b.VendorID != "vendor-1" || b.Service.Category != "photography" {
		t.Fatalf("unexpected booking identity %+v", b)
	}
	if b.Price.Units != 2 || !b.Amount.IsPositive() {
		t.Fatalf("expected two priced days, got %+v", b.Price)
	}
	if created.PublicKey != "key_test" || created.OrderRef == "" {
		t.Fatalf("unexpected checkout handle %+v", created)
	}
	tx, err := h.ledger.Transactions.ByBookingID(context.Background(), b.ID)
	if err != nil || tx.Status != domainbooking.TxPending || tx.Gateway.OrderID != created.OrderRef {
		t.Fatalf("expected pending transaction for order, got %+v (%v)", tx, err)
	}
	if got := len(h.box.Pending()); got != 1 {
		t.Fatalf("expected one outbox event, got %d", got)
	}
}

func TestImmediateConfirmCaptures(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "immediate"))
	if b.Status != domainbooking.StatusCaptured {
		t.Fatalf("expected captured, got %s", b.Status)
	}
	tx, _ := h.ledger.Transactions.ByBookingID(context.Background(), b.ID)
	if tx.Status != domainbooking.TxCaptured || tx.Gateway.Capture == nil || tx.Gateway.Details.CardLast4 != "4242" {
		t.Fatalf("expected captured transaction with card details, got %+v", tx)
	}
	if b.Lease.Op != "" {
		t.Fatalf("lease should be cleared, got %+v", b.Lease)
	}
	if got := len(h.box.Pending()); got != 3 {
		t.Fatalf("expected attempted, confirmed and captured events, got %d", got)
	}
}

func TestConfirmSignatureMismatchLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, "moderate")
	created := h.create(t, "delayed")
	paymentRef, _, err := h.gateway.Pay(created.OrderRef, "upi")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	_, _, err = h.ledger.Confirm(context.Background(), ConfirmParams{
		OrderRef:   created.OrderRef,
		PaymentRef: paymentRef,
		Signature:  "deadbeef",
	})
	if !errors.Is(err, domainbooking.ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}
	stored, err := h.ledger.Bookings.ByID(context.Background(), created.Booking.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Status != domainbooking.StatusAttempted || stored.Version != created.Booking.Version {
		t.Fatalf("booking changed: %s v%d", stored.Status, stored.Version)
	}
	if calls := h.gateway.Calls(sandbox.OpFetchPayment); calls != 0 {
		t.Fatalf("expected no gateway reads, got %d", calls)
	}
}

func TestConfirmIsIdempotent(t *testing.T) {
	h := newHarness(t, "moderate")
	created := h.create(t, "delayed")
	paymentRef, signature, _ := h.gateway.Pay(created.OrderRef, "card")
	params := ConfirmParams{OrderRef: created.OrderRef, PaymentRef: paymentRef, Signature: signature}
	first, _, err := h.ledger.Confirm(context.Background(), params)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	second, _, err := h.ledger.Confirm(context.Background(), params)
	if err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if second.Status != domainbooking.StatusRequested || second.Version != first.Version {
		t.Fatalf("repeat confirm changed booking: %s v%d vs v%d", second.Status, second.Version, first.Version)
	}
	if calls := h.gateway.Calls(sandbox.OpFetchPayment); calls != 1 {
		t.Fatalf("expected a single payment fetch, got %d", calls)
	}
}

func TestDelayedConfirmSchedulesCapture(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed", 18))
	if b.Status != domainbooking.StatusRequested {
		t.Fatalf("expected requested, got %s", b.Status)
	}
	sc, err := h.schedules.PendingByBooking(context.Background(), b.ID)
	if err != nil || sc == nil {
		t.Fatalf("expected pending schedule, got %v (%v)", sc, err)
	}
	want := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	if !sc.DueAt.Equal(want) {
		t.Fatalf("expected due %s, got %s", want, sc.DueAt)
	}
	if calls := h.gateway.Calls(sandbox.OpCapture); calls != 0 {
		t.Fatalf("delayed confirm must not capture, got %d calls", calls)
	}
}

func TestConfirmDeclinedPaymentMarksFailed(t *testing.T) {
	h := newHarness(t, "moderate")
	created := h.create(t, "immediate")
	paymentRef, err := h.gateway.Decline(created.OrderRef, "BAD_REQUEST_ERROR", "card_declined")
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	signature := gateway.SignPayment("secret_test", created.OrderRef, paymentRef)
	b, tx, err := h.ledger.Confirm(context.Background(), ConfirmParams{OrderRef: created.OrderRef, PaymentRef: paymentRef, Signature: signature})
	if !errors.Is(err, domainbooking.ErrGatewayRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	if b.Status != domainbooking.StatusFailed || tx.Status != domainbooking.TxFailed || tx.Gateway.Failure.Reason != "card_declined" {
		t.Fatalf("expected failed booking with failure record, got %s %+v", b.Status, tx.Gateway.Failure)
	}
}

func TestVendorCancelRefundsFullAmount(t *testing.T) {
	h := newHarness(t, "strict")
	b := h.confirm(t, h.create(t, "immediate", 2))
	got, tx, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "vendor-1", Role: domainbooking.RoleVendor, Reason: "equipment failure"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != domainbooking.StatusRefunded {
		t.Fatalf("expected refunded, got %s", got.Status)
	}
	if got.Cancellation.RefundAmount != b.Amount || !got.Cancellation.Penalty.Applied {
		t.Fatalf("expected full refund with penalty, got %+v", got.Cancellation)
	}
	if tx.Status != domainbooking.TxRefunded || tx.Gateway.Refund.Amount != b.Amount {
		t.Fatalf("expected refund record of full amount, got %+v", tx.Gateway.Refund)
	}
	payment, _ := h.gateway.Payment(b.PaymentRef)
	if payment.Refunded.Amount != b.Amount.Amount {
		t.Fatalf("gateway refunded %d, want %d", payment.Refunded.Amount, b.Amount.Amount)
	}
}

func TestCustomerCancelOfAuthorizedBookingIssuesNoRefund(t *testing.T) {
	h := newHarness(t, "flexible")
	b := h.confirm(t, h.create(t, "delayed"))
	got, tx, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != domainbooking.StatusCancelled || !got.Cancellation.RefundAmount.IsZero() {
		t.Fatalf("expected cancelled without refund, got %s %+v", got.Status, got.Cancellation)
	}
	if tx.Status != domainbooking.TxCancelled {
		t.Fatalf("expected cancelled transaction, got %s", tx.Status)
	}
	if calls := h.gateway.Calls(sandbox.OpRefund); calls != 0 {
		t.Fatalf("expected no refund call, got %d", calls)
	}
}

func TestCustomerCancelAppliesPolicy(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "immediate", 5))
	preview, err := h.ledger.PreviewRefund(context.Background(), b.ID, "cust-1", domainbooking.RoleCustomer)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.Quote.Percent != 50 || preview.RefundAmount != b.Amount.Percent(50) {
		t.Fatalf("expected 50%% preview, got %+v", preview)
	}
	got, _, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer, Reason: "plans changed"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Cancellation.RefundAmount != preview.RefundAmount || got.Cancellation.RefundStatus != domainbooking.RefundProcessed {
		t.Fatalf("unexpected cancellation %+v", got.Cancellation)
	}
}

func TestCancelRejectsForeignActor(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))
	_, _, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-2", Role: domainbooking.RoleCustomer})
	if !errors.Is(err, domainbooking.ErrNotOwned) {
		t.Fatalf("expected not owned, got %v", err)
	}
}

func TestConcurrentApproveCapturesOnce(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = h.ledger.Approve(context.Background(), b.ID, "vendor-1", false)
		}(i)
	}
	wg.Wait()

	succeeded, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domainbooking.ErrStateConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || conflicts != 1 {
		t.Fatalf("expected one capture and one conflict, got %d/%d", succeeded, conflicts)
	}
	if calls := h.gateway.Calls(sandbox.OpCapture); calls != 1 {
		t.Fatalf("expected one capture call, got %d", calls)
	}
}

func TestApproveRefetchesAfterCaptureTimeout(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))
	h.gateway.TimeoutAfterApply(sandbox.OpCapture)

	got, tx, err := h.ledger.Approve(context.Background(), b.ID, "vendor-1", true)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != domainbooking.StatusCaptured || tx.Status != domainbooking.TxCaptured {
		t.Fatalf("expected captured, got %s/%s", got.Status, tx.Status)
	}
	if calls := h.gateway.Calls(sandbox.OpCapture); calls != 1 {
		t.Fatalf("timeout must not trigger a second capture, got %d", calls)
	}
	svc, _ := h.services.FindByID(context.Background(), "svc-1")
	if !svc.Dates.IsBooked("2026-10-19") {
		t.Fatalf("expected dates reserved, got %+v", svc.Dates)
	}
}

func TestApproveDeclineKeepsBookingRequested(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))
	h.gateway.FailNext(sandbox.OpCapture, policies.Rejected(sandbox.OpCapture, "BAD_REQUEST_ERROR", "authorization expired"))

	_, _, err := h.ledger.Approve(context.Background(), b.ID, "vendor-1", false)
	if !errors.Is(err, domainbooking.ErrGatewayRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	stored, _ := h.ledger.Bookings.ByID(context.Background(), b.ID)
	if stored.Status != domainbooking.StatusRequested || stored.Lease.Active(h.clock.Now()) {
		t.Fatalf("expected requested without lease, got %s %+v", stored.Status, stored.Lease)
	}
	if _, _, err := h.ledger.Approve(context.Background(), b.ID, "vendor-1", false); err != nil {
		t.Fatalf("second approve: %v", err)
	}
}

func TestRejectCapturedRefundsAndReleasesDates(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed", 18))
	if _, _, err := h.ledger.Approve(context.Background(), b.ID, "vendor-1", true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, tx, err := h.ledger.Reject(context.Background(), b.ID, "vendor-1", "double booked")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != domainbooking.StatusRejected || got.Rejection == nil || tx.Status != domainbooking.TxRefunded {
		t.Fatalf("expected rejected with refund, got %s %s", got.Status, tx.Status)
	}
	svc, _ := h.services.FindByID(context.Background(), "svc-1")
	if svc.Dates.IsBooked("2026-10-19") {
		t.Fatalf("expected dates released, got %+v", svc.Dates)
	}
}

func TestMarkFailedFromCallback(t *testing.T) {
	h := newHarness(t, "moderate")
	created := h.create(t, "immediate")
	b, err := h.ledger.MarkFailed(context.Background(), FailureParams{OrderRef: created.OrderRef, PaymentRef: "pay_x", Code: "GATEWAY_ERROR", Reason: "bank_down"})
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if b.Status != domainbooking.StatusFailed {
		t.Fatalf("expected failed, got %s", b.Status)
	}
	again, err := h.ledger.MarkFailed(context.Background(), FailureParams{OrderRef: created.OrderRef, Code: "GATEWAY_ERROR"})
	if err != nil || again.Version != b.Version {
		t.Fatalf("repeat callback should be a no-op, got %v", err)
	}
	if events := h.notes.events(); len(events) != 1 || events[0] != "booking.payment_failed" {
		t.Fatalf("unexpected notifications %v", events)
	}
}

func TestCaptureScheduledResolvesCancelledBooking(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))
	if _, _, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	sc, _ := h.schedules.PendingByBooking(context.Background(), b.ID)
	outcome, err := h.ledger.CaptureScheduled(context.Background(), sc)
	if err != nil || outcome != OutcomeCancelled {
		t.Fatalf("expected cancelled outcome, got %s (%v)", outcome, err)
	}
	stored, _ := h.schedules.ByID(context.Background(), sc.ID)
	if stored.Status != domainbooking.ScheduleCancelled {
		t.Fatalf("expected cancelled schedule, got %s", stored.Status)
	}
}

// refetchFailingGateway loses its read path once a refund has been sent, so the outcome of
// that refund cannot be confirmed.
type refetchFailingGateway struct {
	*sandbox.Gateway
	mu       sync.Mutex
	refunded bool
}

func (g *refetchFailingGateway) Refund(ctx context.Context, paymentRef string, amount money.Money) (policies.Refund, error) {
	r, err := g.Gateway.Refund(ctx, paymentRef, amount)
	g.mu.Lock()
	g.refunded = true
	g.mu.Unlock()
	return r, err
}

func (g *refetchFailingGateway) FetchPayment(ctx context.Context, paymentRef string) (policies.Payment, error) {
	g.mu.Lock()
	failing := g.refunded
	g.mu.Unlock()
	if failing {
		return policies.Payment{}, policies.Transient(sandbox.OpFetchPayment, "connection reset")
	}
	return g.Gateway.FetchPayment(ctx, paymentRef)
}

func (g *refetchFailingGateway) heal() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunded = false
}

func TestCancelRefetchesAfterRefundTimeout(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "immediate", 5))
	owed := b.Amount.Percent(50)
	h.gateway.TimeoutAfterApply(sandbox.OpRefund)

	got, tx, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if calls := h.gateway.Calls(sandbox.OpRefund); calls != 1 {
		t.Fatalf("timeout must not trigger a second refund, got %d", calls)
	}
	payment, _ := h.gateway.Payment(b.PaymentRef)
	if payment.Refunded.Amount != owed.Amount {
		t.Fatalf("gateway refunded %d, policy owes %d", payment.Refunded.Amount, owed.Amount)
	}
	if got.Status != domainbooking.StatusCancelled || got.Cancellation.RefundAmount != owed {
		t.Fatalf("unexpected cancellation %s %+v", got.Status, got.Cancellation)
	}
	if tx.Status != domainbooking.TxRefunded || tx.Gateway.Refund.Amount.Amount != owed.Amount {
		t.Fatalf("expected refund record of %d, got %s %+v", owed.Amount, tx.Status, tx.Gateway.Refund)
	}
}

func TestCancelDoesNotRetryRefundWhenPaymentUnreadable(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "immediate", 5))
	owed := b.Amount.Percent(50)
	flaky := &refetchFailingGateway{Gateway: h.gateway}
	h.ledger.Gateway = flaky
	h.gateway.TimeoutAfterApply(sandbox.OpRefund)

	_, _, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer})
	if !errors.Is(err, domainbooking.ErrGatewayTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls := h.gateway.Calls(sandbox.OpRefund); calls != 1 {
		t.Fatalf("refund retried without a successful re-read, got %d calls", calls)
	}
	stored, _ := h.ledger.Bookings.ByID(context.Background(), b.ID)
	if stored.Status != domainbooking.StatusCaptured || stored.Lease.Active(h.clock.Now()) {
		t.Fatalf("expected captured booking without lease, got %s %+v", stored.Status, stored.Lease)
	}

	flaky.heal()
	got, _, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer})
	if err != nil {
		t.Fatalf("cancel after recovery: %v", err)
	}
	if calls := h.gateway.Calls(sandbox.OpRefund); calls != 1 {
		t.Fatalf("earlier refund should be counted, got %d refund calls", calls)
	}
	payment, _ := h.gateway.Payment(b.PaymentRef)
	if payment.Refunded.Amount != owed.Amount || got.Cancellation.RefundAmount != owed {
		t.Fatalf("gateway refunded %d, booking recorded %+v, policy owes %d", payment.Refunded.Amount, got.Cancellation.RefundAmount, owed.Amount)
	}
}

// gatedGateway holds Capture until the test releases it.
type gatedGateway struct {
	*sandbox.Gateway
	entered chan struct{}
	release chan struct{}
}

func (g *gatedGateway) Capture(ctx context.Context, paymentRef string, amount money.Money) (string, error) {
	close(g.entered)
	<-g.release
	return g.Gateway.Capture(ctx, paymentRef, amount)
}

func TestCaptureAndCancelDoNotBothSucceed(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))
	gated := &gatedGateway{Gateway: h.gateway, entered: make(chan struct{}), release: make(chan struct{})}
	h.ledger.Gateway = gated

	var wg sync.WaitGroup
	var approveErr, cancelErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _, approveErr = h.ledger.Approve(context.Background(), b.ID, "vendor-1", false)
	}()
	<-gated.entered
	_, _, cancelErr = h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer})
	close(gated.release)
	wg.Wait()

	if approveErr != nil {
		t.Fatalf("approve: %v", approveErr)
	}
	if !errors.Is(cancelErr, domainbooking.ErrStateConflict) {
		t.Fatalf("expected cancel conflict while capture is in flight, got %v", cancelErr)
	}
	stored, _ := h.ledger.Bookings.ByID(context.Background(), b.ID)
	tx, _ := h.ledger.Transactions.ByBookingID(context.Background(), b.ID)
	if stored.Status != domainbooking.StatusCaptured || tx.Status != domainbooking.TxCaptured || stored.Cancellation != nil {
		t.Fatalf("expected captured booking only, got %s/%s %+v", stored.Status, tx.Status, stored.Cancellation)
	}
	if captures, refunds := h.gateway.Calls(sandbox.OpCapture), h.gateway.Calls(sandbox.OpRefund); captures != 1 || refunds != 0 {
		t.Fatalf("expected one capture and no refund, got %d/%d", captures, refunds)
	}
}

func TestCancelInsideZeroRefundWindowClosesTransaction(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "immediate", 2))
	got, tx, err := h.ledger.Cancel(context.Background(), CancelParams{BookingID: b.ID, ActorID: "cust-1", Role: domainbooking.RoleCustomer})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != domainbooking.StatusCancelled || !got.Cancellation.RefundAmount.IsZero() {
		t.Fatalf("expected cancelled without refund, got %s %+v", got.Status, got.Cancellation)
	}
	if tx.Status != domainbooking.TxCancelled || tx.Gateway.Capture == nil || tx.Gateway.Refund != nil {
		t.Fatalf("expected cancelled transaction keeping its capture, got %s %+v", tx.Status, tx.Gateway)
	}
	if calls := h.gateway.Calls(sandbox.OpRefund); calls != 0 {
		t.Fatalf("expected no refund call, got %d", calls)
	}
}

func TestRejectWithNothingToRefundClosesTransaction(t *testing.T) {
	h := newHarness(t, "moderate")
	b := h.confirm(t, h.create(t, "delayed"))
	if _, _, err := h.ledger.Approve(context.Background(), b.ID, "vendor-1", false); err != nil {
		t.Fatalf("approve: %v", err)
	}
	h.gateway.FailNext(sandbox.OpRefund, &policies.GatewayError{Op: sandbox.OpRefund, Reason: "fully refunded", Kind: domainbooking.ErrNothingToRefund})

	got, tx, err := h.ledger.Reject(context.Background(), b.ID, "vendor-1", "venue closed")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != domainbooking.StatusRejected || tx.Status != domainbooking.TxRejected {
		t.Fatalf("expected rejected booking and transaction, got %s/%s", got.Status, tx.Status)
	}
}
