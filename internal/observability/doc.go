// Package observability groups the logging, metrics and tracing helpers
// shared by the API server, the queue worker and the operator CLI.
//
// Subpackages:
//   - logging: slog construction (JSON or tint text) and context helpers
//   - metrics: Prometheus HTTP and generation metrics
//   - tracing: OpenTelemetry tracer and HTTP middleware
package observability
