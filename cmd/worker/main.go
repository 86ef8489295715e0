package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"devlog-ai/internal/config"
	"devlog-ai/internal/infra/amqp"
	"devlog-ai/internal/infra/llm"
	"devlog-ai/internal/infra/redisstream"
	workerPkg "devlog-ai/internal/infra/worker"
	"devlog-ai/internal/observability/logging"
	"devlog-ai/internal/queue"
	genUC "devlog-ai/internal/usecase/generate"
)

// transport is the queue connection shared by the consumer and publisher side.
type transport struct {
	queue.Consumer
	queue.Publisher
	check workerPkg.Check
	close func() error
}

func main() {
	os.Exit(run())
}

// run wires and runs the worker. It returns the process exit code so deferred
// cleanup, including closing the broker connection, always runs.
func run() int {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}
	logger := initLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort),
		slog.Int("grpc_port", workerConfig.GRPCPort),
		slog.String("timezone", workerConfig.Timezone))

	brokerConfig, err := config.LoadBrokerConfig()
	if err != nil {
		logger.Error("failed to load broker configuration", slog.Any("error", err))
		return 1
	}
	genConfig, err := config.LoadGenerationConfig()
	if err != nil {
		logger.Error("failed to load generation configuration", slog.Any("error", err))
		return 1
	}

	startMetricsServer(ctx, logger, workerConfig.MetricsPort)

	// Start health check server
	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	logger.Info("health check server started", slog.String("addr", healthAddr))

	if workerConfig.GRPCPort != 0 {
		grpcAddr := fmt.Sprintf(":%d", workerConfig.GRPCPort)
		grpcHealth := workerPkg.NewGRPCHealthServer(grpcAddr, healthServer, 5*time.Second, logger)
		go func() {
			if err := grpcHealth.Start(ctx); err != nil {
				logger.Error("gRPC health server failed", slog.Any("error", err))
			}
		}()
	}

	backend, err := llm.New(ctx, genConfig, llm.WithMetrics(llm.NewPrometheusMetrics()))
	if err != nil {
		logger.Error("failed to create generation backend", slog.Any("error", err))
		return 1
	}
	svc, err := setupGenerateService(ctx, logger, backend, genConfig, workerConfig, workerMetrics)
	if err != nil {
		logger.Error("failed to create generation service", slog.Any("error", err))
		return 1
	}

	tr, err := openTransport(ctx, logger, brokerConfig)
	if err != nil {
		logger.Error("failed to connect to broker", slog.Any("error", err))
		return 1
	}
	defer func() {
		if err := tr.close(); err != nil {
			logger.Error("failed to close broker connection", slog.Any("error", err))
		}
	}()

	healthServer.AddCheck("broker", tr.check)
	healthServer.AddCheck("generator", func(context.Context) error {
		if !backend.Healthy() {
			return fmt.Errorf("%s circuit breaker is open", backend.Name())
		}
		return nil
	})

	if err := runDispatcher(ctx, logger, tr, svc, brokerConfig, workerConfig, workerMetrics, healthServer); err != nil {
		return 1
	}
	return 0
}

// initLogger initializes the default structured logger from LOG_FORMAT and LOG_LEVEL.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// setupGenerateService creates the generation service. When PROMPTS_FILE is set
// it is loaded at startup and, with PROMPTS_RELOAD_SCHEDULE, reloaded in the
// worker's timezone.
func setupGenerateService(
	ctx context.Context,
	logger *slog.Logger,
	backend *llm.Guarded,
	cfg *config.GenerationConfig,
	workerConfig *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
) (*genUC.Service, error) {
	opts := []genUC.Option{
		genUC.WithRetry(cfg.Retry.Executor()),
		genUC.WithLanguage(cfg.Language),
	}
	if cfg.PromptsFile != "" {
		p, err := genUC.LoadPromptsFile(cfg.PromptsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, genUC.WithPrompts(p))
	}
	svc := genUC.NewService(backend, opts...)

	if cfg.PromptsReloadSchedule != "" {
		reloader, err := genUC.NewReloader(cfg.PromptsFile, cfg.PromptsReloadSchedule, svc,
			genUC.WithLocation(workerConfig.Location()),
			genUC.WithReloadHook(metrics.RecordPromptReload))
		if err != nil {
			return nil, err
		}
		reloader.Start(ctx)
		logger.Info("prompt reload scheduled",
			slog.String("path", cfg.PromptsFile),
			slog.String("schedule", cfg.PromptsReloadSchedule),
			slog.String("timezone", workerConfig.Timezone))
	}

	logger.Info("generation service initialized",
		slog.String("backend", backend.Name()),
		slog.String("language", cfg.Language))
	return svc, nil
}

// openTransport connects the queue driver selected by QUEUE_DRIVER and declares
// every request and reply queue.
func openTransport(ctx context.Context, logger *slog.Logger, cfg *config.BrokerConfig) (*transport, error) {
	switch cfg.Driver {
	case config.QueueDriverRedis:
		client, err := redisstream.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if err := client.DeclareQueues(ctx, queue.AllQueues()...); err != nil {
			_ = client.Close()
			return nil, err
		}
		logger.Info("using Redis Streams transport", slog.String("addr", cfg.Redis.Addr))
		return &transport{
			Consumer:  client,
			Publisher: client,
			check: func(ctx context.Context) error {
				if !client.Healthy(ctx) {
					return errors.New("redis is unreachable")
				}
				return nil
			},
			close: client.Close,
		}, nil
	default:
		broker := amqp.New(cfg.RabbitMQ)
		if err := broker.Connect(); err != nil {
			return nil, err
		}
		if err := broker.DeclareQueues(queue.AllQueues()...); err != nil {
			_ = broker.Close()
			return nil, err
		}
		logger.Info("using RabbitMQ transport", slog.String("host", cfg.RabbitMQ.Host))
		return &transport{
			Consumer:  broker,
			Publisher: broker,
			check: func(context.Context) error {
				if !broker.Healthy() {
					return errors.New("rabbitmq connection is closed")
				}
				return nil
			},
			close: broker.Close,
		}, nil
	}
}

// runDispatcher consumes every request queue until a shutdown signal arrives
// or a worker fails, then waits up to the shutdown timeout for it to drain.
func runDispatcher(
	ctx context.Context,
	logger *slog.Logger,
	tr *transport,
	svc *genUC.Service,
	brokerConfig *config.BrokerConfig,
	workerConfig *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
	healthServer *workerPkg.HealthServer,
) error {
	dispatcher := queue.NewDispatcher(tr, tr, svc,
		queue.WithRecorder(metrics),
		queue.WithReplyOnFailure(brokerConfig.ReplyOnFailure))

	done := make(chan error, 1)
	go func() {
		done <- dispatcher.RunAll(ctx, queue.RequestQueues()...)
	}()

	// Mark as ready after the consumers are set up
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("driver", brokerConfig.Driver),
		slog.Any("queues", queue.RequestQueues()),
		slog.Bool("reply_on_failure", brokerConfig.ReplyOnFailure))

	select {
	case err := <-done:
		healthServer.SetReady(false)
		if err != nil {
			logger.Error("dispatcher stopped", slog.Any("error", err))
		}
		return err
	case <-ctx.Done():
	}

	healthServer.SetReady(false)
	logger.Info("shutting down worker...")
	select {
	case err := <-done:
		if err != nil {
			logger.Error("dispatcher stopped with error", slog.Any("error", err))
			return err
		}
	case <-time.After(workerConfig.ShutdownTimeout):
		logger.Warn("dispatcher did not stop in time",
			slog.Duration("shutdown_timeout", workerConfig.ShutdownTimeout))
	}
	logger.Info("worker stopped")
	return nil
}
