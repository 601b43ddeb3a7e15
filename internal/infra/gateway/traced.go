package gateway

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vendorhub/internal/app/policies"
	"vendorhub/internal/domain/shared/money"
)

const tracerName = "vendorhub/gateway"

// Traced wraps a gateway with one span per remote call.
type Traced struct {
	Next   policies.Gateway
	Tracer trace.Tracer
}

func NewTraced(next policies.Gateway) *Traced {
	return &Traced{Next: next, Tracer: otel.Tracer(tracerName)}
}

func (t *Traced) Provider() string  { return t.Next.Provider() }
func (t *Traced) PublicKey() string { return t.Next.PublicKey() }

func (t *Traced) CreateOrder(ctx context.Context, amount money.Money, mode policies.CaptureMode, receipt string) (policies.Order, error) {
	ctx, span := t.start(ctx, "gateway.create_order",
		attribute.Int64("payment.amount", amount.Amount),
		attribute.String("payment.currency", amount.Currency),
		attribute.String("payment.capture_mode", string(mode)),
	)
	order, err := t.Next.CreateOrder(ctx, amount, mode, receipt)
	span.SetAttributes(attribute.String("payment.order_ref", order.ID))
	end(span, err)
	return order, err
}

func (t *Traced) FetchPayment(ctx context.Context, paymentRef string) (policies.Payment, error) {
	ctx, span := t.start(ctx, "gateway.fetch_payment", attribute.String("payment.ref", paymentRef))
	p, err := t.Next.FetchPayment(ctx, paymentRef)
	span.SetAttributes(attribute.String("payment.status", string(p.Status)))
	end(span, err)
	return p, err
}

func (t *Traced) Capture(ctx context.Context, paymentRef string, amount money.Money) (string, error) {
	ctx, span := t.start(ctx, "gateway.capture",
		attribute.String("payment.ref", paymentRef),
		attribute.Int64("payment.amount", amount.Amount),
	)
	ref, err := t.Next.Capture(ctx, paymentRef, amount)
	end(span, err)
	return ref, err
}

func (t *Traced) Refund(ctx context.Context, paymentRef string, amount money.Money) (policies.Refund, error) {
	ctx, span := t.start(ctx, "gateway.refund",
		attribute.String("payment.ref", paymentRef),
		attribute.Int64("payment.amount", amount.Amount),
	)
	r, err := t.Next.Refund(ctx, paymentRef, amount)
	end(span, err)
	return r, err
}

func (t *Traced) VerifySignature(orderRef, paymentRef, signature string) bool {
	return t.Next.VerifySignature(orderRef, paymentRef, signature)
}

func (t *Traced) VerifyWebhook(body []byte, signature string) bool {
	return t.Next.VerifyWebhook(body, signature)
}

func (t *Traced) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := t.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	attrs = append(attrs, attribute.String("payment.provider", t.Next.Provider()))
	return tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ policies.Gateway = (*Traced)(nil)
