// Package circuitbreaker stops calls to a generation backend that keeps
// failing. It wraps github.com/sony/gobreaker with per-backend presets, a
// failure classification that ignores caller mistakes, and a state gauge.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"

	"devlog-ai/internal/resilience/retry"
)

// stateGauge is 0 closed, 1 half-open, 2 open.
var stateGauge = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	},
	[]string{"circuit"},
)

// Config describes when a circuit trips and how it recovers.
type Config struct {
	Name string

	// HalfOpenProbes is how many calls may run while half-open.
	HalfOpenProbes uint32

	// Window resets the closed-state counts.
	Window time.Duration

	// Cooldown is how long the circuit stays open.
	Cooldown time.Duration

	// TripRatio is the failure ratio that opens the circuit once MinCalls is reached.
	TripRatio float64
	MinCalls  uint32
}

// DefaultConfig returns the preset used by every backend unless overridden.
func DefaultConfig(name string) Config {
	return Config{
		Name:           name,
		HalfOpenProbes: 3,
		Window:         30 * time.Second,
		Cooldown:       60 * time.Second,
		TripRatio:      0.6,
		MinCalls:       5,
	}
}

// ForBackend returns the preset for a backend name ("claude", "openai",
// "gemini", ...). The circuit is named "<backend>-api".
func ForBackend(backend string) Config {
	cfg := DefaultConfig(backend + "-api")
	if backend == "gemini" {
		// the free tier throttles in bursts
		cfg.TripRatio = 0.7
		cfg.MinCalls = 10
	}
	return cfg
}

// CircuitBreaker guards calls to one backend.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a closed circuit.
func New(cfg Config) *CircuitBreaker {
	stateGauge.WithLabelValues(cfg.Name).Set(gaugeValue(gobreaker.StateClosed))

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenProbes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinCalls &&
				float64(c.TotalFailures)/float64(c.Requests) >= cfg.TripRatio
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			stateGauge.WithLabelValues(name).Set(gaugeValue(to))
		},
	})}
}

// Call runs fn through cb. An open circuit returns gobreaker.ErrOpenState
// without calling fn.
func Call[T any](cb *CircuitBreaker, fn func() (T, error)) (T, error) {
	out, err := cb.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (b *CircuitBreaker) Name() string { return b.cb.Name() }

func (b *CircuitBreaker) State() gobreaker.State { return b.cb.State() }

func (b *CircuitBreaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// IsRejection reports whether err came from the breaker rather than the call.
func IsRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// countsAsSuccess keeps invalid requests and cancellations from tripping the circuit.
func countsAsSuccess(err error) bool {
	switch {
	case err == nil, retry.IsContextError(err):
		return true
	default:
		return retry.KindOf(err) == retry.KindClientInvalid
	}
}

func gaugeValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
