package retry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess      = "success"
	outcomeRetry        = "retry"
	outcomeNonRetryable = "non_retryable"
	outcomeExhausted    = "exhausted"
	outcomeAborted      = "aborted"
)

var (
	// AttemptsTotal counts executor decisions by operation and outcome
	AttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_retry_attempts_total",
			Help: "Retry executor decisions by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// DelaySecondsTotal accumulates time spent waiting between attempts
	DelaySecondsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_retry_delay_seconds_total",
			Help: "Total backoff delay scheduled by the retry executor",
		},
		[]string{"operation"},
	)
)

func recordAttempt(operation, outcome string) {
	AttemptsTotal.WithLabelValues(operation, outcome).Inc()
}

func recordDelay(operation string, d time.Duration) {
	DelaySecondsTotal.WithLabelValues(operation).Add(d.Seconds())
}
