package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"devlog-ai/internal/resilience/circuitbreaker"
	"devlog-ai/internal/resilience/retry"
	"devlog-ai/internal/utils/text"
)

// Guarded wraps a Backend with a circuit breaker, an optional client-side rate
// limiter and metrics. It does not retry; that is left to the caller.
type Guarded struct {
	backend Backend
	breaker *circuitbreaker.CircuitBreaker
	limiter *RateLimiter
	metrics MetricsRecorder
}

// GuardOption customizes a Guarded backend.
type GuardOption func(*Guarded)

// WithRateLimiter throttles calls before they reach the backend.
func WithRateLimiter(l *RateLimiter) GuardOption {
	return func(g *Guarded) { g.limiter = l }
}

// WithMetrics replaces the Prometheus recorder.
func WithMetrics(m MetricsRecorder) GuardOption {
	return func(g *Guarded) { g.metrics = m }
}

// NewGuarded wraps backend with the given breaker.
func NewGuarded(backend Backend, breaker *circuitbreaker.CircuitBreaker, opts ...GuardOption) *Guarded {
	g := &Guarded{
		backend: backend,
		breaker: breaker,
		metrics: NewPrometheusMetrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name implements Backend.
func (g *Guarded) Name() string { return g.backend.Name() }

// Healthy reports false while the circuit is open.
func (g *Guarded) Healthy() bool { return !g.breaker.IsOpen() }

// Complete implements Backend.
func (g *Guarded) Complete(ctx context.Context, prompt string) (string, error) {
	name := g.backend.Name()

	waitStart := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if g.limiter != nil {
		g.metrics.RecordThrottleWait(name, time.Since(waitStart))
	}

	start := time.Now()
	result, err := circuitbreaker.Call(g.breaker, func() (string, error) {
		return g.backend.Complete(ctx, prompt)
	})
	duration := time.Since(start)

	if err != nil {
		if circuitbreaker.IsRejection(err) {
			slog.WarnContext(ctx, "backend circuit breaker open, request rejected",
				slog.String("backend", name),
				slog.String("state", g.breaker.State().String()))
			err = rejectionError(name, err)
		}
		g.metrics.RecordCall(name, outcomeLabel(err), duration)
		return "", err
	}

	g.metrics.RecordCall(name, "success", duration)
	g.metrics.RecordOutputLength(name, text.CountRunes(result))
	return result, nil
}

// rejectionError maps breaker rejections onto retry kinds: an open circuit is
// fatal for this request, a saturated half-open probe is transient.
func rejectionError(name string, err error) error {
	wrapped := fmt.Errorf("%s api unavailable: %w", name, err)
	if errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.Transient(wrapped)
	}
	return retry.Fatal(wrapped)
}

func outcomeLabel(err error) string {
	var re *retry.Error
	if !errors.As(err, &re) && retry.IsContextError(err) {
		return "canceled"
	}
	return retry.KindOf(err).String()
}
