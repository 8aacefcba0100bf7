package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestNewTraceContext(t *testing.T) {
	tc := NewTraceContext(context.Background(), "req-1", "trace-1")
	assert.Equal(t, "req-1", tc.RequestID)
	assert.Equal(t, "trace-1", tc.TraceID)

	generated := NewTraceContext(context.Background(), "", "")
	assert.NotEmpty(t, generated.RequestID)
	assert.NotEmpty(t, generated.TraceID)
	assert.Len(t, generated.SpanID, 16)
}

func TestNewTraceContext_PrefersSpan(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1, 2, 3},
		SpanID:  trace.SpanID{4, 5, 6},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	tc := NewTraceContext(ctx, "req-1", "ignored")
	assert.Equal(t, sc.TraceID().String(), tc.TraceID)
	assert.Equal(t, sc.SpanID().String(), tc.SpanID)
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	ctx := WithTrace(context.Background(), &TraceContext{RequestID: "r"})
	assert.Equal(t, "r", RequestID(ctx))
}
