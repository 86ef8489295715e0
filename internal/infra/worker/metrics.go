package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"devlog-ai/internal/pkg/config"
)

// WorkerMetrics embeds the worker_config_* metrics and adds queue and prompt
// reload metrics. It satisfies queue.Recorder.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// MessagesTotal counts handled messages by queue and outcome.
	MessagesTotal *prometheus.CounterVec

	// MessageDuration observes time from receipt to acknowledgement.
	MessageDuration *prometheus.HistogramVec

	// PromptReloadsTotal counts prompt reloads by status (success, failure).
	PromptReloadsTotal *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics with reg.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),
		MessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_queue_messages_total",
			Help: "Total number of queue messages handled",
		}, []string{"queue", "outcome"}),
		MessageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name: "worker_queue_message_duration_seconds",
			Help: "Time spent handling one queue message",
			// generation with retries can take minutes
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"queue"}),
		PromptReloadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_prompt_reloads_total",
			Help: "Total number of prompt reload attempts",
		}, []string{"status"}),
	}
}

// RecordMessage implements queue.Recorder.
func (m *WorkerMetrics) RecordMessage(queue, outcome string, d time.Duration) {
	m.MessagesTotal.WithLabelValues(queue, outcome).Inc()
	m.MessageDuration.WithLabelValues(queue).Observe(d.Seconds())
}

// RecordPromptReload counts one reload attempt.
func (m *WorkerMetrics) RecordPromptReload(err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.PromptReloadsTotal.WithLabelValues(status).Inc()
}
