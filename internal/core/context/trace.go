package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext carries the ids log lines are correlated by.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, tc)
}

// GetTrace returns TraceContext from context.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// RequestID returns the request id of ctx, or "".
func RequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext builds ids for a unit of work: an HTTP request, a worker
// task or a CLI command. An OpenTelemetry span in ctx supplies the trace and
// span ids; traceID is used otherwise, and generated when empty.
func NewTraceContext(ctx context.Context, requestID, traceID string) *TraceContext {
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return &TraceContext{TraceID: sc.TraceID().String(), SpanID: sc.SpanID().String(), RequestID: requestID}
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return &TraceContext{TraceID: traceID, SpanID: uuid.NewString()[:16], RequestID: requestID}
}
