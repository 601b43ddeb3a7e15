package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"vendorhub/internal/app/availability"
	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/dto"
	bookingapp "vendorhub/internal/app/handlers/booking"
	pricingapp "vendorhub/internal/app/handlers/pricing"
	"vendorhub/internal/app/ledger"
	"vendorhub/internal/app/middleware"
	"vendorhub/internal/app/outbox"
	"vendorhub/internal/app/policies"
	"vendorhub/internal/app/queries"
	"vendorhub/internal/app/quoting"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/catalog"
	"vendorhub/internal/domain/shared/daterange"
	"vendorhub/internal/domain/shared/money"
	"vendorhub/internal/infra/gateway"
	"vendorhub/internal/infra/gateway/sandbox"
	"vendorhub/internal/infra/obs"
	"vendorhub/internal/infra/storage/memory"
)

const (
	testJWTSecret     = "test-secret"
	testWebhookSecret = "whsec_test"
)

type testServer struct {
	router  *gin.Engine
	gateway *sandbox.Gateway
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.NewServiceStore("photography")
	store.Put(catalog.Service{
		Ref:                catalog.Ref{Category: "photography", ID: "svc-1"},
		VendorID:           "vendor-1",
		Name:               "Lens and Light",
		Location:           "Pune",
		MinPrice:           10000,
		MaxPrice:           20000,
		Rating:             4.5,
		CancellationPolicy: "moderate",
		PricingType:        catalog.PricingPerDay,
	})
	registry := policies.NewServiceRegistry()
	registry.Register("photography", store)

	bookings := memory.NewBookingRepository()
	txs := memory.NewTransactionRepository()
	schedules := memory.NewScheduleRepository()
	box := memory.NewOutbox(logger)
	gw := sandbox.New("key_test", "secret_test", testWebhookSecret)
	quoter := &quoting.Quoter{Services: registry, Configs: memory.NewPricingConfigRepository(), Currency: "INR"}

	l := &ledger.Ledger{
		UoW:          memory.Factory{Bookings: bookings, Transactions: txs, Schedules: schedules},
		Bookings:     bookings,
		Transactions: txs,
		Schedules:    schedules,
		Quoter:       quoter,
		Services:     registry,
		Dates:        &availability.Updater{Services: registry, Logger: logger},
		Gateway:      gw,
		Notifier:     noopNotifier{},
		Outbox:       box,
		Encoder:      outbox.JSONEventEncoder{},
		Logger:       logger,
		Options: ledger.Options{
			LeaseTTL:        time.Minute,
			CaptureLeadTime: 72 * time.Hour,
			RetryBackoff:    []time.Duration{time.Millisecond},
			VendorPenalty:   money.FromMajor(100, "INR"),
		},
	}

	cmdBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()
	bookingapp.Register(cmdBus, queryBus, l)
	pricingapp.Register(cmdBus, queryBus, quoter, logger)

	cmds := middleware.ChainCommands(
		cmdBus,
		middleware.Authorization(middleware.RoleAuthorizer{}),
		middleware.Validation(middleware.SelfValidator{}),
		middleware.Idempotency(memory.NewIdempotencyStore(nil), middleware.JSONResultCodec{}, time.Hour),
		middleware.OutboxFlush(box, logger),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.QueryAuthorization(middleware.RoleAuthorizer{}),
		middleware.QueryValidation(middleware.SelfValidator{}),
	)

	router := NewRouter("test", obs.Middleware{Logger: logger}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
		Webhook:        WebhookHandler{Commands: cmds, Verifier: gw, Inbox: memory.NewInbox(nil, time.Hour), Logger: logger},
		Service:        ServiceHandler{Commands: cmds, Queries: qs, Logger: logger},
		AuthMiddleware: AuthMiddleware{Secret: []byte(testJWTSecret), Logger: logger}.Handle,
	})
	return &testServer{router: router, gateway: gw}
}

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, msg policies.Notification) error { return nil }

func token(t *testing.T, subject string, role domainbooking.Role) string {
	t.Helper()
	tok, err := IssueToken([]byte(testJWTSecret), subject, role, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case []byte:
			reader = bytes.NewReader(v)
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func eventDate(daysOut int) string {
	return daterange.Format(time.Now().UTC().AddDate(0, 0, daysOut))
}

func createBody(daysOut int, pref string) map[string]any {
	return map[string]any{
		"service": map[string]string{"category": "Photography", "id": "svc-1"},
		"package": map[string]any{
			"title": "Wedding shoot",
			"dates": []string{eventDate(daysOut)},
		},
		"payment_preference": pref,
	}
}

func (s *testServer) checkout(t *testing.T, customer string, headers map[string]string) dto.CheckoutView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", token(t, customer, domainbooking.RoleCustomer), createBody(20, "delayed"), headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	return decode[dto.CheckoutView](t, rec)
}

func TestBookingCheckoutAndConfirm(t *testing.T) {
	s := newTestServer(t)
	checkout := s.checkout(t, "cust-1", nil)
	if checkout.OrderRef == "" || checkout.GatewayPublicKey != "key_test" {
		t.Fatalf("unexpected checkout %+v", checkout)
	}

	paymentRef, signature, err := s.gateway.Pay(checkout.OrderRef, "card")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	rec := s.do(t, http.MethodPost, "/api/v1/bookings/confirm", token(t, "cust-1", domainbooking.RoleCustomer), map[string]string{
		"razorpay_order_id":   checkout.OrderRef,
		"razorpay_payment_id": paymentRef,
		"razorpay_signature":  signature,
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}
	view := decode[dto.BookingView](t, rec)
	if view.Status != string(domainbooking.StatusRequested) || view.PaymentRef != paymentRef {
		t.Fatalf("unexpected booking %+v", view)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/"+view.ID, token(t, "vendor-1", domainbooking.RoleVendor), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("vendor get: %d %s", rec.Code, rec.Body.String())
	}
}

func TestConfirmWithBadSignatureIsUnauthorized(t *testing.T) {
	s := newTestServer(t)
	checkout := s.checkout(t, "cust-1", nil)
	paymentRef, _, err := s.gateway.Pay(checkout.OrderRef, "upi")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	rec := s.do(t, http.MethodPost, "/api/v1/bookings/confirm", token(t, "cust-1", domainbooking.RoleCustomer), map[string]string{
		"razorpay_order_id":   checkout.OrderRef,
		"razorpay_payment_id": paymentRef,
		"razorpay_signature":  "deadbeef",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d %s", rec.Code, rec.Body.String())
	}
	if body := decode[errorBody](t, rec); body.Code != "SIGNATURE_MISMATCH" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestCreateRequiresCustomerToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", "", createBody(20, "delayed"), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/bookings", token(t, "vendor-1", domainbooking.RoleVendor), createBody(20, "delayed"), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor, got %d", rec.Code)
	}
	expired, err := IssueToken([]byte(testJWTSecret), "cust-1", domainbooking.RoleCustomer, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec = s.do(t, http.MethodPost, "/api/v1/bookings", expired, createBody(20, "delayed"), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rec.Code)
	}
}

func TestCreateRejectsMalformedDates(t *testing.T) {
	s := newTestServer(t)
	body := createBody(20, "delayed")
	body["package"] = map[string]any{"title": "Shoot", "dates": []string{"12/01/2026"}}
	rec := s.do(t, http.MethodPost, "/api/v1/bookings", token(t, "cust-1", domainbooking.RoleCustomer), body, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[errorBody](t, rec); got.Code != "VALIDATION" {
		t.Fatalf("unexpected code %+v", got)
	}
}

func TestCreateReplaysIdempotencyKeyPerUser(t *testing.T) {
	s := newTestServer(t)
	headers := map[string]string{"Idempotency-Key": "retry-1"}
	first := s.checkout(t, "cust-1", headers)
	second := s.checkout(t, "cust-1", headers)
	if first.BookingID != second.BookingID || first.OrderRef != second.OrderRef {
		t.Fatalf("expected replayed checkout, got %s and %s", first.BookingID, second.BookingID)
	}
	other := s.checkout(t, "cust-2", headers)
	if other.BookingID == first.BookingID {
		t.Fatalf("idempotency key leaked across users")
	}
}

func TestBookingReadsEnforceOwnership(t *testing.T) {
	s := newTestServer(t)
	checkout := s.checkout(t, "cust-1", nil)

	rec := s.do(t, http.MethodGet, "/api/v1/bookings/"+checkout.BookingID, token(t, "cust-2", domainbooking.RoleCustomer), nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", rec.Code)
	}
	if got := decode[errorBody](t, rec); got.Code != "NOT_OWNED" {
		t.Fatalf("unexpected code %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/"+checkout.BookingID+"/refund-preview", token(t, "vendor-1", domainbooking.RoleVendor), nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for vendor refund preview, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/bookings/missing", token(t, "cust-1", domainbooking.RoleCustomer), nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func webhookBody(t *testing.T, event, orderRef, paymentRef string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]string{"id": paymentRef, "order_id": orderRef, "status": "authorized"},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal webhook: %v", err)
	}
	return raw
}

func TestWebhookAuthorizesAndDeduplicates(t *testing.T) {
	s := newTestServer(t)
	checkout := s.checkout(t, "cust-1", nil)
	paymentRef, _, err := s.gateway.Pay(checkout.OrderRef, "card")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	body := webhookBody(t, "payment.authorized", checkout.OrderRef, paymentRef)
	headers := map[string]string{
		signatureHeader: gateway.SignBody(testWebhookSecret, body),
		eventIDHeader:   "evt_1",
	}

	rec := s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: %d %s", rec.Code, rec.Body.String())
	}
	got := decode[map[string]string](t, rec)
	if got["status"] != "processed" || got["booking_status"] != string(domainbooking.StatusAuthorized) {
		t.Fatalf("unexpected webhook response %+v", got)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery: %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "duplicate" {
		t.Fatalf("expected duplicate, got %+v", got)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s := newTestServer(t)
	body := webhookBody(t, "payment.authorized", "order_x", "pay_x")
	rec := s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, map[string]string{signatureHeader: "00"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	s := newTestServer(t)
	body := webhookBody(t, "refund.processed", "order_x", "pay_x")
	rec := s.do(t, http.MethodPost, "/api/v1/payments/webhook", "", body, map[string]string{signatureHeader: gateway.SignBody(testWebhookSecret, body)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); got["status"] != "ignored" {
		t.Fatalf("expected ignored, got %+v", got)
	}
}

func TestQuoteIsPublic(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/v1/services/photography/svc-1/quote?date="+eventDate(30)+","+eventDate(31), "", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("quote: %d %s", rec.Code, rec.Body.String())
	}
	view := decode[dto.QuoteView](t, rec)
	if view.ServiceID != "svc-1" || view.EventDate != eventDate(30) {
		t.Fatalf("unexpected quote %+v", view)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/services/catering/svc-1/quote?date="+eventDate(30), "", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown category, got %d", rec.Code)
	}
}

func TestPricingConfigRequiresOwnership(t *testing.T) {
	s := newTestServer(t)
	body := map[string]any{"peak_days": []string{"Saturday"}, "peak_months": []string{"December"}}

	rec := s.do(t, http.MethodPost, "/api/v1/services/photography/svc-1/pricing-config", token(t, "vendor-2", domainbooking.RoleVendor), body, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for other vendor, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/services/photography/svc-1/pricing-config", token(t, "vendor-1", domainbooking.RoleVendor), body, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("append config: %d %s", rec.Code, rec.Body.String())
	}
	if view := decode[dto.PricingConfigView](t, rec); view.ID == "" || view.EditedBy != "vendor-1" {
		t.Fatalf("unexpected config view %+v", view)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/services/photography/svc-1/pricing-config", token(t, "vendor-1", domainbooking.RoleVendor), map[string]any{"peak_days": []string{"Funday"}}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad weekday, got %d", rec.Code)
	}
}
