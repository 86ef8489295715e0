package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"devlog-ai/internal/handler/http/pathutil"
	"devlog-ai/internal/handler/http/responsewriter"
	"devlog-ai/internal/observability/metrics"
)

// MetricsMiddleware records request count, duration and sizes labelled by the
// normalized route so unknown paths cannot grow label cardinality.
func MetricsMiddleware(normalizer *pathutil.Normalizer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			wrapped := responsewriter.Wrap(w)
			start := time.Now()
			next.ServeHTTP(wrapped, r)

			requestSize := 0
			if r.ContentLength > 0 {
				requestSize = int(r.ContentLength)
			}
			metrics.RecordHTTPRequest(
				r.Method,
				normalizer.Normalize(r.URL.Path),
				strconv.Itoa(wrapped.StatusCode()),
				time.Since(start),
				requestSize,
				wrapped.BytesWritten(),
			)
		})
	}
}

// MetricsHandler serves the default Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
