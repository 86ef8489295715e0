package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"devlog-ai/internal/resilience/retry"
	"devlog-ai/internal/utils/text"
)

// ClaudeConfig holds configuration parameters for the Claude backend.
type ClaudeConfig struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string

	// Model is the Claude API model identifier.
	Model string

	// MaxTokens is the maximum number of tokens for the API response.
	MaxTokens int

	// Timeout is the maximum duration for a single API call.
	Timeout time.Duration

	// BaseURL overrides the API endpoint when set.
	BaseURL string
}

// DefaultClaudeConfig returns the defaults used when no overrides are configured.
func DefaultClaudeConfig(apiKey string) ClaudeConfig {
	return ClaudeConfig{
		APIKey:    apiKey,
		Model:     string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens: 2048,
		Timeout:   60 * time.Second,
	}
}

// Claude implements Backend using Anthropic's Messages API.
type Claude struct {
	client anthropic.Client
	config ClaudeConfig
}

// NewClaude creates a new Claude backend.
// SDK-level retries are disabled; retrying is the caller's decision.
func NewClaude(cfg ClaudeConfig) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	slog.Info("Initialized Claude backend",
		slog.String("model", cfg.Model),
		slog.Int("max_tokens", cfg.MaxTokens))

	return &Claude{
		client: anthropic.NewClient(opts...),
		config: cfg,
	}
}

// Name implements Backend.
func (c *Claude) Name() string { return "claude" }

// Complete implements Backend.
func (c *Claude) Complete(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	slog.DebugContext(ctx, "Starting generation",
		slog.String("backend", c.Name()),
		slog.String("request_id", requestID),
		slog.Int("prompt_length", text.CountRunes(prompt)))

	start := time.Now()
	message, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	duration := time.Since(start)

	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		slog.WarnContext(ctx, "Claude API call failed",
			slog.String("request_id", requestID),
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", classifyError(ctx, fmt.Errorf("claude api error: %w", err), status)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(tb.Text)
		}
	}
	if sb.Len() == 0 {
		slog.ErrorContext(ctx, "Claude API returned empty response",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration))
		return "", retry.Fatal(errors.New("claude api returned empty response"))
	}

	slog.DebugContext(ctx, "Generation completed",
		slog.String("backend", c.Name()),
		slog.String("request_id", requestID),
		slog.Duration("duration", duration))

	return sb.String(), nil
}
