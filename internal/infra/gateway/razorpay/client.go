package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vendorhub/internal/app/policies"
	domainbooking "vendorhub/internal/domain/booking"
	"vendorhub/internal/domain/shared/money"
	"vendorhub/internal/infra/gateway"
)

const (
	Provider       = "RAZORPAY"
	DefaultBaseURL = "https://api.razorpay.com/v1"
)

// Client talks to the Razorpay REST API with basic auth. It classifies failures and never
// retries; retry policy belongs to the caller.
type Client struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	BaseURL       string
	HTTP          *http.Client
	Logger        *slog.Logger
}

func New(keyID, keySecret, webhookSecret, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		KeyID:         keyID,
		KeySecret:     keySecret,
		WebhookSecret: webhookSecret,
		BaseURL:       baseURL,
		HTTP:          &http.Client{Timeout: timeout},
		Logger:        logger,
	}
}

type orderRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Receipt        string `json:"receipt,omitempty"`
	PaymentCapture int    `json:"payment_capture"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type paymentResponse struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Status           string `json:"status"`
	Method           string `json:"method"`
	Amount           int64  `json:"amount"`
	AmountRefunded   int64  `json:"amount_refunded"`
	Currency         string `json:"currency"`
	Captured         bool   `json:"captured"`
	VPA              string `json:"vpa"`
	Bank             string `json:"bank"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
	ErrorReason      string `json:"error_reason"`
	Card             *struct {
		Last4   string `json:"last4"`
		Network string `json:"network"`
		Type    string `json:"type"`
	} `json:"card"`
}

type captureRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

type refundResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Reason      string `json:"reason"`
	} `json:"error"`
}

func (c *Client) Provider() string  { return Provider }
func (c *Client) PublicKey() string { return c.KeyID }

func (c *Client) CreateOrder(ctx context.Context, amount money.Money, mode policies.CaptureMode, receipt string) (policies.Order, error) {
	capture := 0
	if mode == policies.CaptureImmediately {
		capture = 1
	}
	var resp orderResponse
	err := c.do(ctx, "create_order", http.MethodPost, "/orders", orderRequest{
		Amount:         amount.Amount,
		Currency:       amount.Currency,
		Receipt:        receipt,
		PaymentCapture: capture,
	}, &resp)
	if err != nil {
		return policies.Order{}, err
	}
	return policies.Order{ID: resp.ID, Amount: money.Money{Amount: resp.Amount, Currency: resp.Currency}, Status: resp.Status}, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentRef string) (policies.Payment, error) {
	var resp paymentResponse
	if err := c.do(ctx, "fetch_payment", http.MethodGet, "/payments/"+url.PathEscape(paymentRef), nil, &resp); err != nil {
		return policies.Payment{}, err
	}
	return resp.toPayment(), nil
}

func (c *Client) Capture(ctx context.Context, paymentRef string, amount money.Money) (string, error) {
	var resp paymentResponse
	err := c.do(ctx, "capture", http.MethodPost, "/payments/"+url.PathEscape(paymentRef)+"/capture", captureRequest{
		Amount:   amount.Amount,
		Currency: amount.Currency,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) Refund(ctx context.Context, paymentRef string, amount money.Money) (policies.Refund, error) {
	if !amount.IsPositive() {
		return policies.Refund{}, &policies.GatewayError{Op: "refund", Reason: "refund amount must be positive", Kind: domainbooking.ErrNothingToRefund}
	}
	var resp refundResponse
	err := c.do(ctx, "refund", http.MethodPost, "/payments/"+url.PathEscape(paymentRef)+"/refund", refundRequest{Amount: amount.Amount}, &resp)
	if err != nil {
		return policies.Refund{}, err
	}
	return policies.Refund{ID: resp.ID, Amount: money.Money{Amount: resp.Amount, Currency: resp.Currency}, Status: resp.Status}, nil
}

func (c *Client) VerifySignature(orderRef, paymentRef, signature string) bool {
	return gateway.VerifyPayment(c.KeySecret, orderRef, paymentRef, signature)
}

func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	return gateway.VerifyBody(c.WebhookSecret, body, signature)
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, body)
	if err != nil {
		return err
	}
	request.SetBasicAuth(c.KeyID, c.KeySecret)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client().Do(request)
	if err != nil {
		c.logError("razorpay request failed", op, err)
		return policies.Transient(op, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		gwErr := classify(op, resp.StatusCode, snippet)
		c.logError("razorpay returned error", op, gwErr)
		return gwErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logError("razorpay decode failed", op, err)
		return policies.Transient(op, "decode response: "+err.Error())
	}
	return nil
}

// classify maps an HTTP error response onto the gateway taxonomy.
func classify(op string, status int, body []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	code := env.Error.Code
	reason := env.Error.Description
	if reason == "" {
		reason = fmt.Sprintf("status %d: %s", status, strings.TrimSpace(string(body)))
	}
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return &policies.GatewayError{Op: op, Code: code, Reason: reason, Kind: domainbooking.ErrGatewayTransient}
	}
	lower := strings.ToLower(reason)
	switch {
	case op == "capture" && strings.Contains(lower, "already been captured"):
		return &policies.GatewayError{Op: op, Code: code, Reason: reason, Kind: domainbooking.ErrAlreadyCaptured}
	case op == "refund" && (strings.Contains(lower, "fully refunded") || strings.Contains(lower, "greater than the refund")):
		return &policies.GatewayError{Op: op, Code: code, Reason: reason, Kind: domainbooking.ErrNothingToRefund}
	}
	return &policies.GatewayError{Op: op, Code: code, Reason: reason, Kind: domainbooking.ErrGatewayRejected}
}

func (p paymentResponse) toPayment() policies.Payment {
	currency := p.Currency
	out := policies.Payment{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Status:           policies.PaymentStatus(p.Status),
		Method:           p.Method,
		Amount:           money.Money{Amount: p.Amount, Currency: currency},
		Refunded:         money.Money{Amount: p.AmountRefunded, Currency: currency},
		Captured:         money.Money{Currency: currency},
		ErrorCode:        p.ErrorCode,
		ErrorReason:      p.ErrorReason,
		ErrorDescription: p.ErrorDescription,
		Details:          domainbooking.MethodDetails{VPA: p.VPA, Bank: p.Bank},
	}
	if p.Captured || p.Status == string(policies.PaymentCaptured) || p.Status == string(policies.PaymentRefunded) {
		out.Captured.Amount = p.Amount
	}
	if p.Card != nil {
		out.Details.CardLast4 = p.Card.Last4
		out.Details.CardNetwork = p.Card.Network
		out.Details.CardType = p.Card.Type
	}
	return out
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *Client) client() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logError(msg, op string, err error) {
	if c.Logger == nil {
		return
	}
	level := slog.LevelError
	if errors.Is(err, domainbooking.ErrGatewayTransient) || errors.Is(err, domainbooking.ErrAlreadyCaptured) || errors.Is(err, domainbooking.ErrNothingToRefund) {
		level = slog.LevelWarn
	}
	c.Logger.Log(context.Background(), level, msg, "op", op, "error", err)
}

var _ policies.Gateway = (*Client)(nil)
