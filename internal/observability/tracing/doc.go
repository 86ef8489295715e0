// Package tracing exposes the service tracer and an HTTP middleware that
// starts a server span per request, continuing any incoming W3C trace context.
//
// Spans are created through the global otel provider. Without an SDK provider
// installed they are no-ops.
package tracing
