// Package retry provides retry logic with capped exponential backoff for calls
// to generation backends. Only failures classified as throttled or transient
// are retried; everything else is returned after a single attempt.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Policy is a deterministic exponential backoff schedule.
type Policy struct {
	// BaseDelay is the wait after the first failed attempt
	BaseDelay time.Duration

	// MaxDelay caps every wait
	MaxDelay time.Duration
}

// DefaultPolicy returns the backoff used for generation calls: 2s doubling up to 60s.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay: 2 * time.Second,
		MaxDelay:  60 * time.Second,
	}
}

// Delay returns min(BaseDelay * 2^(attempt-1), MaxDelay).
// Attempts below 1 are treated as 1. Large attempts saturate at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = math.MaxInt64
	}
	if attempt < 1 {
		attempt = 1
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if d > ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

// Config holds the configuration for retry logic.
type Config struct {
	// MaxAttempts is the maximum number of calls, including the first
	MaxAttempts int

	// Policy computes the wait between attempts
	Policy Policy

	// MaxElapsed bounds the total time spent retrying; 0 disables the bound
	MaxElapsed time.Duration

	// Operation labels logs and metrics
	Operation string

	// Sleep waits for d or until ctx is done. Tests replace it to avoid real waits.
	Sleep func(ctx context.Context, d time.Duration) error

	// Now returns the current time. Tests replace it to control elapsed time.
	Now func() time.Time
}

// DefaultConfig returns a default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		Policy:      DefaultPolicy(),
		MaxElapsed:  2 * time.Minute,
		Operation:   "generate",
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Sleep == nil {
		c.Sleep = SleepContext
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Operation == "" {
		c.Operation = "unknown"
	}
	return c
}

// SleepContext waits for d, returning early with ctx.Err() if ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithBackoff executes the given function with retry logic and exponential backoff.
// It returns nil if the function succeeds, the unchanged error if it is not
// retryable, or an *ExhaustedError wrapping the last error if all attempts fail.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	_, err := Do(ctx, cfg, func(context.Context) (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempt or time budget runs out.
func Do[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	cfg = cfg.withDefaults()
	start := cfg.Now()

	var lastErr error
	attempt := 1
	for ; ; attempt++ {
		v, err := op(ctx)

		// Success - return immediately
		if err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.String("operation", cfg.Operation),
					slog.Int("attempt", attempt))
			}
			recordAttempt(cfg.Operation, outcomeSuccess)
			return v, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			slog.Warn("non-retryable error, aborting",
				slog.String("operation", cfg.Operation),
				slog.Int("attempt", attempt),
				slog.String("kind", KindOf(err).String()),
				slog.Any("error", err))
			recordAttempt(cfg.Operation, outcomeNonRetryable)
			return zero, err
		}

		// Don't wait after last attempt
		if attempt >= cfg.MaxAttempts {
			break
		}

		delay := cfg.Policy.Delay(attempt)
		if cfg.MaxElapsed > 0 && cfg.Now().Sub(start)+delay > cfg.MaxElapsed {
			slog.Warn("retry time budget exhausted",
				slog.String("operation", cfg.Operation),
				slog.Int("attempt", attempt),
				slog.Duration("max_elapsed", cfg.MaxElapsed),
				slog.Duration("delay", delay))
			break
		}

		slog.Warn("operation failed, retrying",
			slog.String("operation", cfg.Operation),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("kind", KindOf(err).String()),
			slog.Any("error", err))
		recordAttempt(cfg.Operation, outcomeRetry)
		recordDelay(cfg.Operation, delay)

		// Wait with context cancellation support
		if err := cfg.Sleep(ctx, delay); err != nil {
			recordAttempt(cfg.Operation, outcomeAborted)
			return zero, fmt.Errorf("retry aborted: %w", err)
		}
	}

	elapsed := cfg.Now().Sub(start)
	slog.Error("max retry attempts exceeded",
		slog.String("operation", cfg.Operation),
		slog.Int("attempts", attempt),
		slog.Duration("elapsed", elapsed),
		slog.Any("error", lastErr))
	recordAttempt(cfg.Operation, outcomeExhausted)
	return zero, &ExhaustedError{Attempts: attempt, Elapsed: elapsed, Last: lastErr}
}
