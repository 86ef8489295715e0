// Package metrics holds the process-wide Prometheus metrics registered with
// the default registry and exposed on /metrics:
//   - HTTP request count, duration and sizes
//   - generation requests, duration and extracted experience counts
package metrics
