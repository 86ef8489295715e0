package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"devlog-ai/internal/config"
	hhttp "devlog-ai/internal/handler/http"
	hauth "devlog-ai/internal/handler/http/auth"
	hgenerate "devlog-ai/internal/handler/http/generate"
	"devlog-ai/internal/handler/http/middleware"
	"devlog-ai/internal/handler/http/pathutil"
	"devlog-ai/internal/handler/http/requestid"
	"devlog-ai/internal/infra/llm"
	"devlog-ai/internal/observability/logging"
	"devlog-ai/internal/observability/tracing"
	genUC "devlog-ai/internal/usecase/generate"

	_ "devlog-ai/docs" // swagger docs
)

// @title           devlog-ai API
// @version         1.0
// @description     Generates titles, retrospectives and experience summaries from developer dev logs.

// @contact.name   API Support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description HS256 JWT. Send "Bearer {token}" in the Authorization header.

func main() {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}
	logger := initLogger()

	apiCfg, err := config.LoadAPIConfig()
	if err != nil {
		logger.Error("failed to load API configuration", slog.Any("error", err))
		os.Exit(1)
	}
	genCfg, err := config.LoadGenerationConfig()
	if err != nil {
		logger.Error("failed to load generation configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := llm.New(ctx, genCfg, llm.WithMetrics(llm.NewPrometheusMetrics()))
	if err != nil {
		logger.Error("failed to create generation backend", slog.Any("error", err))
		os.Exit(1)
	}
	svc, err := newService(ctx, logger, backend, genCfg)
	if err != nil {
		logger.Error("failed to create generation service", slog.Any("error", err))
		os.Exit(1)
	}

	version := getVersion()
	handler := setupServer(logger, apiCfg, svc, backend, version)
	runServer(ctx, cancel, logger, apiCfg, handler, version)
}

// initLogger initializes the default structured logger from LOG_FORMAT and LOG_LEVEL.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// newService builds the generation service and, when PROMPTS_FILE is set,
// loads it and schedules its reloads.
func newService(ctx context.Context, logger *slog.Logger, backend *llm.Guarded, cfg *config.GenerationConfig) (*genUC.Service, error) {
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
		reloader, err := genUC.NewReloader(cfg.PromptsFile, cfg.PromptsReloadSchedule, svc)
		if err != nil {
			return nil, err
		}
		reloader.Start(ctx)
		logger.Info("prompt reload scheduled",
			slog.String("path", cfg.PromptsFile),
			slog.String("schedule", cfg.PromptsReloadSchedule))
	}

	logger.Info("generation service initialized",
		slog.String("backend", backend.Name()),
		slog.String("language", cfg.Language))
	return svc, nil
}

// setupServer registers every route and wraps the mux with the middleware chain.
func setupServer(logger *slog.Logger, cfg *config.APIConfig, svc *genUC.Service, backend *llm.Guarded, version string) http.Handler {
	checks := map[string]hhttp.Check{
		"generator": func(context.Context) error {
			if !backend.Healthy() {
				return fmt.Errorf("%s circuit breaker is open", backend.Name())
			}
			return nil
		},
	}

	mux := http.NewServeMux()
	// ヘルスチェックエンドポイント（認証不要）
	for _, prefix := range prefixes(cfg.RootPath) {
		mux.Handle("GET "+prefix+"/health", &hhttp.HealthHandler{Version: version, Checks: checks})
		mux.Handle("GET "+prefix+"/ready", &hhttp.ReadyHandler{Checks: checks})
		mux.Handle("GET "+prefix+"/live", &hhttp.LiveHandler{})
	}
	mux.Handle("GET /metrics", hhttp.MetricsHandler())
	// Swagger UI（認証不要）
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	var protect func(http.Handler) http.Handler
	if cfg.AuthEnabled() {
		protect = hauth.Authz([]byte(cfg.JWTSecret), nil)
		logger.Info("bearer token authentication enabled for generation routes")
	} else {
		logger.Warn("AUTH_JWT_SECRET is not set, generation routes are open")
	}
	hgenerate.Register(mux, svc, cfg.RootPath, protect)

	return applyMiddleware(logger, cfg, mux)
}

// prefixes returns the path prefixes every route is mounted under.
func prefixes(rootPath string) []string {
	if rootPath == "" || rootPath == "/" {
		return []string{""}
	}
	return []string{"", rootPath}
}

// applyMiddleware wraps the handler with the middleware chain.
// Order: CORS → Request ID → Tracing → Recovery → Logging → Input validation →
// Body limit → Metrics → Timeout
func applyMiddleware(logger *slog.Logger, cfg *config.APIConfig, handler http.Handler) http.Handler {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = cfg.AllowedOrigins
	corsConfig.Logger = logger
	logger.Info("CORS enabled",
		slog.Any("allowed_origins", corsConfig.AllowedOrigins),
		slog.Any("allowed_methods", corsConfig.AllowedMethods))

	routes := append([]string{"/health", "/ready", "/live", "/metrics"}, hgenerate.Paths()...)
	normalizer := pathutil.NewNormalizer(cfg.RootPath, routes...)

	return hhttp.Chain(handler,
		middleware.CORS(corsConfig),
		requestid.Middleware,
		tracing.Middleware,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.InputValidation(),
		hhttp.LimitRequestBody(hhttp.DefaultMaxBodyBytes),
		hhttp.MetricsMiddleware(normalizer),
		hhttp.Timeout(cfg.RequestTimeout),
	)
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger, cfg *config.APIConfig, handler http.Handler, version string) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", cfg.Addr),
			slog.String("root_path", cfg.RootPath),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// Stops the prompt reloader once in-flight requests are done
	cancel()
	logger.Info("server stopped")
}
