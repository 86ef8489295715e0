package config

import (
	"fmt"
	"strings"
	"time"

	internalconfig "devlog-ai/internal/pkg/config"
	"devlog-ai/internal/resilience/retry"
	pkgconfig "devlog-ai/pkg/config"
)

// Supported generation backends.
const (
	BackendClaude = "claude"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
	BackendNoop   = "noop"
)

// GenerationConfig holds configuration for the text-generation backend and
// the retry executor wrapped around it.
type GenerationConfig struct {
	// Backend selects the adapter: claude, openai, gemini or noop.
	// Default: "claude"
	Backend string

	// APIKey for the selected backend, read from ANTHROPIC_API_KEY,
	// OPENAI_API_KEY or GEMINI_API_KEY.
	APIKey string

	// Model overrides the backend's default model when set.
	Model string

	// BaseURL overrides the backend endpoint (proxies, local stubs).
	BaseURL string

	// MaxTokens caps the response size. Default: 2048
	MaxTokens int

	// Timeout bounds a single backend call. Default: 60s
	Timeout time.Duration

	// Language is the language generated text is written in. Default: "한국어"
	Language string

	// PromptsFile replaces the embedded prompt set when set.
	PromptsFile string

	// PromptsReloadSchedule is a cron expression for re-reading PromptsFile.
	PromptsReloadSchedule string

	// RateLimit is the client-side request budget.
	RateLimit pkgconfig.RateLimit

	// Retry configures the backoff executor.
	Retry RetryConfig
}

// RetryConfig holds retry executor settings.
type RetryConfig struct {
	// MaxAttempts including the first call. Default: 5
	MaxAttempts int
	// BaseDelay before the second attempt. Default: 2s
	BaseDelay time.Duration
	// MaxDelay caps each wait. Default: 60s
	MaxDelay time.Duration
	// MaxElapsed bounds total retry time, 0 disables. Default: 2m
	MaxElapsed time.Duration
}

// LoadGenerationConfig loads generation configuration from environment variables.
// Returns a config with defaults if environment variables are not set.
func LoadGenerationConfig() (*GenerationConfig, error) {
	backend := strings.ToLower(pkgconfig.GetEnvString("GENERATOR_TYPE", BackendClaude))

	config := &GenerationConfig{
		Backend:               backend,
		APIKey:                apiKeyFor(backend),
		Model:                 pkgconfig.GetEnvString("GENERATOR_MODEL", ""),
		BaseURL:               pkgconfig.GetEnvString("GENERATOR_BASE_URL", ""),
		MaxTokens:             pkgconfig.GetEnvInt("GENERATOR_MAX_TOKENS", 2048),
		Timeout:               pkgconfig.GetEnvDuration("GENERATOR_TIMEOUT", 60*time.Second),
		Language:              pkgconfig.GetEnvString("GENERATOR_LANGUAGE", "한국어"),
		PromptsFile:           pkgconfig.GetEnvString("PROMPTS_FILE", ""),
		PromptsReloadSchedule: pkgconfig.GetEnvString("PROMPTS_RELOAD_SCHEDULE", ""),
		RateLimit:             pkgconfig.LoadRateLimit("GENERATOR"),
		Retry: RetryConfig{
			MaxAttempts: pkgconfig.GetEnvInt("RETRY_MAX_ATTEMPTS", 5),
			BaseDelay:   pkgconfig.GetEnvDuration("RETRY_BACKOFF_BASE", 2*time.Second),
			MaxDelay:    pkgconfig.GetEnvDuration("RETRY_BACKOFF_MAX", 60*time.Second),
			MaxElapsed:  pkgconfig.GetEnvDuration("RETRY_MAX_ELAPSED", 2*time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation configuration: %w", err)
	}

	return config, nil
}

func apiKeyFor(backend string) string {
	switch backend {
	case BackendClaude:
		return pkgconfig.GetEnvString("ANTHROPIC_API_KEY", "")
	case BackendOpenAI:
		return pkgconfig.GetEnvString("OPENAI_API_KEY", "")
	case BackendGemini:
		return pkgconfig.GetEnvString("GEMINI_API_KEY", "")
	default:
		return ""
	}
}

// Validate checks configuration correctness.
func (c *GenerationConfig) Validate() error {
	switch c.Backend {
	case BackendClaude, BackendOpenAI, BackendGemini:
		if c.APIKey == "" {
			return fmt.Errorf("API key for GENERATOR_TYPE=%s is not set", c.Backend)
		}
	case BackendNoop:
	default:
		return fmt.Errorf("GENERATOR_TYPE must be one of claude, openai, gemini, noop; got %q", c.Backend)
	}

	if c.MaxTokens <= 0 {
		return fmt.Errorf("GENERATOR_MAX_TOKENS must be positive")
	}

	if err := pkgconfig.ValidatePositiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("GENERATOR_TIMEOUT: %w", err)
	}

	if c.Language == "" {
		return fmt.Errorf("GENERATOR_LANGUAGE cannot be empty")
	}

	if c.PromptsReloadSchedule != "" && c.PromptsFile == "" {
		return fmt.Errorf("PROMPTS_RELOAD_SCHEDULE requires PROMPTS_FILE")
	}
	if c.PromptsReloadSchedule != "" {
		if err := internalconfig.ValidateCronSchedule(c.PromptsReloadSchedule); err != nil {
			return fmt.Errorf("PROMPTS_RELOAD_SCHEDULE: %w", err)
		}
	}

	return c.Retry.Validate()
}

// Validate checks retry settings.
func (r RetryConfig) Validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}

	if err := pkgconfig.ValidatePositiveDuration(r.BaseDelay); err != nil {
		return fmt.Errorf("RETRY_BACKOFF_BASE: %w", err)
	}

	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("RETRY_BACKOFF_MAX (%v) must not be below RETRY_BACKOFF_BASE (%v)", r.MaxDelay, r.BaseDelay)
	}

	if err := pkgconfig.ValidateNonNegativeDuration(r.MaxElapsed); err != nil {
		return fmt.Errorf("RETRY_MAX_ELAPSED: %w", err)
	}

	return nil
}

// Executor converts the settings into a retry executor configuration.
func (r RetryConfig) Executor() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = r.MaxAttempts
	cfg.Policy = retry.Policy{BaseDelay: r.BaseDelay, MaxDelay: r.MaxDelay}
	cfg.MaxElapsed = r.MaxElapsed
	return cfg
}
