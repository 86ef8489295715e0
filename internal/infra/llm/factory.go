package llm

import (
	"context"
	"fmt"
	"time"

	"devlog-ai/internal/config"
	"devlog-ai/internal/resilience/circuitbreaker"
)

// New builds the backend selected by cfg, wrapped with its circuit breaker and rate limiter.
// opts are applied after the rate limiter.
func New(ctx context.Context, cfg *config.GenerationConfig, opts ...GuardOption) (*Guarded, error) {
	var (
		backend Backend
		breaker circuitbreaker.Config
	)

	switch cfg.Backend {
	case config.BackendClaude:
		c := DefaultClaudeConfig(cfg.APIKey)
		o := overridesFrom(cfg)
		o.apply(&c.Model, &c.Timeout, &c.BaseURL)
		if o.maxTokens > 0 {
			c.MaxTokens = o.maxTokens
		}
		backend = NewClaude(c)
		breaker = circuitbreaker.ForBackend("claude")
	case config.BackendOpenAI:
		c := DefaultOpenAIConfig(cfg.APIKey)
		o := overridesFrom(cfg)
		o.apply(&c.Model, &c.Timeout, &c.BaseURL)
		if o.maxTokens > 0 {
			c.MaxTokens = o.maxTokens
		}
		client, err := NewOpenAI(c)
		if err != nil {
			return nil, err
		}
		backend = client
		breaker = circuitbreaker.ForBackend("openai")
	case config.BackendGemini:
		c := DefaultGeminiConfig(cfg.APIKey)
		overridesFrom(cfg).apply(&c.Model, &c.Timeout, &c.BaseURL)
		g, err := NewGemini(ctx, c)
		if err != nil {
			return nil, err
		}
		backend = g
		breaker = circuitbreaker.ForBackend("gemini")
	case config.BackendNoop:
		backend = NewNoOp()
		breaker = circuitbreaker.ForBackend("noop")
	default:
		return nil, fmt.Errorf("unknown generator type %q", cfg.Backend)
	}

	opts = append([]GuardOption{
		WithRateLimiter(NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)),
	}, opts...)
	return NewGuarded(backend, circuitbreaker.New(breaker), opts...), nil
}

// overrides are the backend-independent settings from GenerationConfig.
type overrides struct {
	model     string
	maxTokens int
	timeout   time.Duration
	baseURL   string
}

func overridesFrom(cfg *config.GenerationConfig) overrides {
	return overrides{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		baseURL:   cfg.BaseURL,
	}
}

func (o overrides) apply(model *string, timeout *time.Duration, baseURL *string) {
	if o.model != "" {
		*model = o.model
	}
	if o.timeout > 0 {
		*timeout = o.timeout
	}
	if o.baseURL != "" {
		*baseURL = o.baseURL
	}
}
