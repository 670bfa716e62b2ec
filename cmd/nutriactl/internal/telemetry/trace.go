package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span for a CLI or console operation.
//
//	ctx, span := telemetry.StartSpan(ctx, "nutriactl/console", "console.Section",
//	    attribute.String(telemetry.AttrSectionPath, section.Path),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span and sets the span status to error.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Common attribute keys
const (
	AttrPrincipalID = "principal.id"
	AttrCapability  = "authz.capability"
	AttrAllowed     = "authz.allowed"
	AttrSectionPath = "console.section"
)
