package worker

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
		want   string
	}{
		{name: "privileged health port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }, want: "HealthPort"},
		{name: "metrics port too high", mutate: func(c *WorkerConfig) { c.MetricsPort = 70000 }, want: "MetricsPort"},
		{name: "grpc port privileged", mutate: func(c *WorkerConfig) { c.GRPCPort = 443 }, want: "GRPCPort"},
		{name: "shutdown timeout too short", mutate: func(c *WorkerConfig) { c.ShutdownTimeout = time.Millisecond }, want: "ShutdownTimeout"},
		{name: "bad timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Nowhere/Land" }, want: "Timezone"},
		{name: "port clash", mutate: func(c *WorkerConfig) { c.GRPCPort = c.HealthPort }, want: "distinct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("WORKER_HEALTH_PORT", "9191")
	t.Setenv("WORKER_METRICS_PORT", "not-a-port")
	t.Setenv("WORKER_GRPC_PORT", "50051")
	t.Setenv("WORKER_SHUTDOWN_TIMEOUT", "1h")
	t.Setenv("WORKER_TIMEZONE", "UTC")

	metrics := NewWorkerMetrics(prometheus.NewRegistry())
	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	assert.Equal(t, 9191, cfg.HealthPort)
	assert.Equal(t, 9090, cfg.MetricsPort)
	assert.Equal(t, 50051, cfg.GRPCPort)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "UTC", cfg.Timezone)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("metrics_port")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("shutdown_timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FallbackActive))
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"WORKER_HEALTH_PORT", "WORKER_METRICS_PORT", "WORKER_GRPC_PORT", "WORKER_SHUTDOWN_TIMEOUT", "WORKER_TIMEZONE"} {
		t.Setenv(key, "")
	}

	metrics := NewWorkerMetrics(prometheus.NewRegistry())
	cfg := LoadConfigFromEnv(discardLogger(), metrics)

	assert.Equal(t, DefaultConfig(), *cfg)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.FallbackActive))
}
