package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_requests_total",
		Help: "Bearer token checks on generation routes by result",
	}, []string{"result"})

	tokenCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "authz_check_duration_seconds",
		Help: "Time spent parsing and verifying one bearer token",
		// HS256 verification is sub-millisecond
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
)

// observeCheck records one token check that started at start.
func observeCheck(start time.Time, err error) {
	tokenCheckDuration.Observe(time.Since(start).Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	tokenChecks.WithLabelValues(result).Inc()
}
