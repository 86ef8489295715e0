package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span in this service.
const TracerName = "devlog-ai"

// GetTracer returns the service tracer from the current global provider.
// It is resolved on every call so a provider installed after startup takes effect.
func GetTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
