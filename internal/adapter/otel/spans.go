package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bookline"

// StartResolveSpan starts a span for an availability resolution.
func StartResolveSpan(ctx context.Context, tenantID, serviceID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "availability.resolve",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("service.id", serviceID),
		),
	)
}

// StartReserveSpan starts a span for a reservation attempt.
func StartReserveSpan(ctx context.Context, tenantID, resourceID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "booking.reserve",
		trace.WithAttributes(
			attribute.String("tenant.id", tenantID),
			attribute.String("resource.id", resourceID),
		),
	)
}
