package llm

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder records backend call metrics.
// Tests inject a fake instead of the Prometheus implementation.
type MetricsRecorder interface {
	// RecordCall records one backend call with its outcome ("success" or a retry kind).
	RecordCall(backend, outcome string, duration time.Duration)

	// RecordOutputLength records the length of generated text in characters.
	RecordOutputLength(backend string, length int)

	// RecordThrottleWait records time spent waiting on the client-side rate limiter.
	RecordThrottleWait(backend string, wait time.Duration)
}

// PrometheusMetrics implements MetricsRecorder using Prometheus metrics.
type PrometheusMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	length   *prometheus.HistogramVec
	wait     *prometheus.HistogramVec
}

var (
	prometheusMetricsInstance *PrometheusMetrics
	prometheusMetricsOnce     sync.Once
)

// getOrCreateCounterVec gets an existing counter vec or creates a new one if it doesn't exist
func getOrCreateCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec)
		}
		return promauto.NewCounterVec(opts, labels)
	}
	return c
}

// getOrCreateHistogramVec gets an existing histogram vec or creates a new one if it doesn't exist
func getOrCreateHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.HistogramVec)
		}
		return promauto.NewHistogramVec(opts, labels)
	}
	return h
}

// NewPrometheusMetrics returns the process-wide Prometheus recorder.
// Uses singleton pattern to avoid duplicate metric registration in tests.
func NewPrometheusMetrics() *PrometheusMetrics {
	prometheusMetricsOnce.Do(func() {
		prometheusMetricsInstance = &PrometheusMetrics{
			calls: getOrCreateCounterVec(prometheus.CounterOpts{
				Name: "generation_backend_calls_total",
				Help: "Backend calls by backend and outcome",
			}, []string{"backend", "outcome"}),
			duration: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "generation_backend_call_duration_seconds",
				Help:    "Duration of a single backend call",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			}, []string{"backend"}),
			length: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "generation_output_length_characters",
				Help:    "Distribution of generated text lengths in characters (Unicode runes)",
				Buckets: []float64{35, 100, 300, 700, 1500, 3000, 6000},
			}, []string{"backend"}),
			wait: getOrCreateHistogramVec(prometheus.HistogramOpts{
				Name:    "generation_backend_throttle_wait_seconds",
				Help:    "Time spent waiting on the client-side rate limiter",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			}, []string{"backend"}),
		}
	})
	return prometheusMetricsInstance
}

// RecordCall implements MetricsRecorder.RecordCall
func (p *PrometheusMetrics) RecordCall(backend, outcome string, duration time.Duration) {
	p.calls.WithLabelValues(backend, outcome).Inc()
	p.duration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordOutputLength implements MetricsRecorder.RecordOutputLength
func (p *PrometheusMetrics) RecordOutputLength(backend string, length int) {
	p.length.WithLabelValues(backend).Observe(float64(length))
}

// RecordThrottleWait implements MetricsRecorder.RecordThrottleWait
func (p *PrometheusMetrics) RecordThrottleWait(backend string, wait time.Duration) {
	p.wait.WithLabelValues(backend).Observe(wait.Seconds())
}
