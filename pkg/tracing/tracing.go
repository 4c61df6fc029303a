// Package tracing carries OpenTelemetry context across ADT HTTP requests.
package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used by adt-lib spans.
const TracerName = "github.com/Goden-Gun/adt-lib"

// RequestIDHeader mirrors the request id as a plain header so that SAP
// side traces (ST05, SICF recorder) can be correlated without W3C support.
const RequestIDHeader = "sap-adt-request-id"

var propagator = propagation.TraceContext{}

// InjectHeaders writes the span context of ctx into h.
func InjectHeaders(ctx context.Context, h http.Header) {
	if h == nil {
		return
	}
	propagator.Inject(ctx, propagation.HeaderCarrier(h))
}

// ExtractHeaders returns ctx enriched with the span context carried by h.
func ExtractHeaders(ctx context.Context, h http.Header) context.Context {
	if h == nil {
		return ctx
	}
	return propagator.Extract(ctx, propagation.HeaderCarrier(h))
}

// StartRequest starts a client span for one ADT request.
func StartRequest(ctx context.Context, method, path, requestID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "adt "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("adt.request_id", requestID),
		),
	)
}

// Tracer returns the adt-lib tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
