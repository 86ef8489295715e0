package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"devlog-ai/internal/handler/http/requestid"
)

func setupExporter(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })
	return exporter, tp
}

func TestGetTracer_FollowsProviderChanges(t *testing.T) {
	first, firstTP := setupExporter(t)
	_, span := GetTracer().Start(context.Background(), "first")
	span.End()
	require.NoError(t, firstTP.ForceFlush(context.Background()))
	require.Len(t, first.GetSpans(), 1)

	second, secondTP := setupExporter(t)
	_, span = GetTracer().Start(context.Background(), "second")
	span.End()
	require.NoError(t, secondTP.ForceFlush(context.Background()))

	require.Len(t, second.GetSpans(), 1)
	assert.Equal(t, "second", second.GetSpans()[0].Name)
	assert.Len(t, first.GetSpans(), 1)
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "bad request is not an error", status: http.StatusBadRequest},
		{name: "server error", status: http.StatusInternalServerError, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, tp := setupExporter(t)

			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			req := httptest.NewRequest(http.MethodPost, "/generate/title", nil)
			req = req.WithContext(requestid.WithRequestID(req.Context(), "req-1"))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.NoError(t, tp.ForceFlush(context.Background()))

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]
			assert.Equal(t, "POST /generate/title", span.Name)
			assert.Equal(t, TracerName, span.InstrumentationScope.Name)

			attrs := attrMap(span.Attributes)
			assert.Equal(t, int64(tt.status), attrs["http.status_code"].AsInt64())
			assert.Equal(t, "req-1", attrs["http.request_id"].AsString())
			if tt.wantError {
				assert.Equal(t, codes.Error, span.Status.Code)
			} else {
				assert.NotEqual(t, codes.Error, span.Status.Code)
			}

			assert.Equal(t, span.SpanContext.TraceID().String(), rec.Header().Get("X-Trace-Id"))
		})
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := setupExporter(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}
