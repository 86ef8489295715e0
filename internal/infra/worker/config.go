// Package worker holds the queue worker's process-level plumbing: its
// configuration, health endpoints and Prometheus metrics.
package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"devlog-ai/internal/pkg/config"
)

// WorkerConfig holds the worker process settings.
type WorkerConfig struct {
	// HealthPort serves /health and /health/ready. Range: 1024-65535.
	HealthPort int

	// MetricsPort serves /metrics. Range: 1024-65535.
	MetricsPort int

	// GRPCPort serves grpc.health.v1. 0 disables the gRPC health server.
	GRPCPort int

	// ShutdownTimeout bounds the wait for in-flight messages on shutdown.
	ShutdownTimeout time.Duration

	// Timezone is the IANA zone used by the prompt reload schedule.
	Timezone string
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		HealthPort:      9091,
		MetricsPort:     9090,
		GRPCPort:        0,
		ShutdownTimeout: 30 * time.Second,
		Timezone:        "Asia/Seoul",
	}
}

// Validate checks every field and joins all failures.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("HealthPort: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("MetricsPort: %w", err))
	}
	if err := config.ValidatePort(c.GRPCPort); err != nil {
		errs = append(errs, fmt.Errorf("GRPCPort: %w", err))
	}
	if err := config.ValidateDuration(c.ShutdownTimeout, time.Second, 10*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("ShutdownTimeout: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("Timezone: %w", err))
	}
	if c.HealthPort == c.MetricsPort || (c.GRPCPort != 0 && (c.GRPCPort == c.HealthPort || c.GRPCPort == c.MetricsPort)) {
		errs = append(errs, errors.New("ports must be distinct"))
	}
	return errors.Join(errs...)
}

// Location returns the loaded Timezone, or UTC if it cannot be loaded.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration with a fail-open strategy:
// invalid values fall back to their defaults, are logged and are counted in
// metrics. The returned config is always usable.
//
// Environment variables: WORKER_HEALTH_PORT, WORKER_METRICS_PORT,
// WORKER_GRPC_PORT, WORKER_SHUTDOWN_TIMEOUT, WORKER_TIMEZONE.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *WorkerConfig {
	cfg := DefaultConfig()
	fallback := false

	note := func(field, warning string, applied bool) {
		if !applied {
			return
		}
		fallback = true
		metrics.RecordFallback(field)
		logger.Warn("Configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", warning))
	}

	port := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }

	hp := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, port)
	cfg.HealthPort = hp.Value
	note("health_port", hp.Warning, hp.FallbackApplied)

	mp := config.LoadEnvInt("WORKER_METRICS_PORT", cfg.MetricsPort, port)
	cfg.MetricsPort = mp.Value
	note("metrics_port", mp.Warning, mp.FallbackApplied)

	gp := config.LoadEnvInt("WORKER_GRPC_PORT", cfg.GRPCPort, config.ValidatePort)
	cfg.GRPCPort = gp.Value
	note("grpc_port", gp.Warning, gp.FallbackApplied)

	st := config.LoadEnvDuration("WORKER_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 10*time.Minute)
	})
	cfg.ShutdownTimeout = st.Value
	note("shutdown_timeout", st.Warning, st.FallbackApplied)

	tz := config.LoadEnvString("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = tz.Value
	note("timezone", tz.Warning, tz.FallbackApplied)

	metrics.SetFallbackActive(fallback)
	metrics.RecordLoadTimestamp()
	return &cfg
}
