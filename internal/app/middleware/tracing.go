package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vendorhub/internal/app/commands"
	"vendorhub/internal/app/queries"
)

const tracerName = "vendorhub/app"

// Tracing opens one span per command so gateway spans nest under the operation that caused them.
func Tracing(tracer trace.Tracer) CommandMiddleware {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx, span := tracer.Start(ctx, "command "+cmd.Key(), trace.WithAttributes(messageAttributes(cmd)...))
			defer span.End()
			res, err := nextFn(ctx, cmd)
			endSpan(span, err)
			return res, err
		})
	}
}

func QueryTracing(tracer trace.Tracer) QueryMiddleware {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return func(next queries.Bus) queries.Bus {
		nextFn := wrapQuery(next)
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			ctx, span := tracer.Start(ctx, "query "+q.Key(), trace.WithAttributes(messageAttributes(q)...))
			defer span.End()
			res, err := nextFn(ctx, q)
			endSpan(span, err)
			return res, err
		})
	}
}

func messageAttributes(message interface{ Key() string }) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("vendorhub.message", message.Key())}
	if r, ok := message.(RoleRestricted); ok {
		attrs = append(attrs, attribute.String("vendorhub.actor_role", r.ActorRole()))
	}
	if idem, ok := message.(IdempotentCommand); ok && idem.IdempotencyKey() != "" {
		attrs = append(attrs, attribute.Bool("vendorhub.idempotent", true))
	}
	return attrs
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
