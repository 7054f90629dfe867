package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"linkage/internal/relationship/models"
	id "linkage/pkg/domain"
)

const tracerName = "linkage/relationship"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on the span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func edgeIDAttr(edgeID id.EdgeID) attribute.KeyValue {
	return attribute.String("edge.id", edgeID.String())
}

func edgeKindAttr(kind models.Kind) attribute.KeyValue {
	return attribute.String("edge.kind", string(kind))
}
