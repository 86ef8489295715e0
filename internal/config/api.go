package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "devlog-ai/pkg/config"
)

// APIConfig holds configuration for the HTTP API server.
type APIConfig struct {
	// Addr is the listen address. Default: ":8000"
	Addr string

	// RootPath mounts every route a second time under this prefix,
	// matching the reverse-proxy deployment. Default: "/ai"
	RootPath string

	// AllowedOrigins for CORS. "*" allows any origin. Default: ["*"]
	AllowedOrigins []string

	// JWTSecret enables bearer-token auth on the generation routes when set.
	JWTSecret string

	// RequestTimeout bounds one request, including all generation retries. Default: 5m
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration
}

// LoadAPIConfig loads API configuration from environment variables.
func LoadAPIConfig() (*APIConfig, error) {
	config := &APIConfig{
		Addr:            pkgconfig.GetEnvString("HTTP_ADDR", ":8000"),
		RootPath:        pkgconfig.GetEnvString("HTTP_ROOT_PATH", "/ai"),
		AllowedOrigins:  pkgconfig.GetEnvStringList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		JWTSecret:       pkgconfig.GetEnvString("AUTH_JWT_SECRET", ""),
		RequestTimeout:  pkgconfig.GetEnvDuration("HTTP_REQUEST_TIMEOUT", 5*time.Minute),
		ShutdownTimeout: pkgconfig.GetEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid API configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration correctness.
func (c *APIConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("HTTP_ADDR cannot be empty")
	}

	if c.RootPath != "" && (!strings.HasPrefix(c.RootPath, "/") || strings.HasSuffix(c.RootPath, "/")) {
		return fmt.Errorf("HTTP_ROOT_PATH must start with '/' and not end with '/', got %q", c.RootPath)
	}

	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters")
	}

	if err := pkgconfig.ValidatePositiveDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("HTTP_REQUEST_TIMEOUT: %w", err)
	}

	if err := pkgconfig.ValidatePositiveDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return nil
}

// AuthEnabled reports whether generation routes require a bearer token.
func (c *APIConfig) AuthEnabled() bool {
	return c.JWTSecret != ""
}
