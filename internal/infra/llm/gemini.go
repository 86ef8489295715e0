package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"devlog-ai/internal/resilience/retry"
)

// GeminiConfig holds configuration parameters for the Gemini backend.
type GeminiConfig struct {
	// APIKey authenticates against the Gemini API.
	APIKey string

	// Model is the Gemini model name.
	Model string

	// Timeout is the maximum duration for a single API call.
	Timeout time.Duration

	// BaseURL overrides the API endpoint when set.
	BaseURL string
}

// DefaultGeminiConfig returns the defaults used when no overrides are configured.
func DefaultGeminiConfig(apiKey string) GeminiConfig {
	return GeminiConfig{
		APIKey:  apiKey,
		Model:   "gemini-2.0-flash",
		Timeout: 60 * time.Second,
	}
}

// Gemini implements Backend using Google's genai client.
type Gemini struct {
	client *genai.Client
	config GeminiConfig
}

// NewGemini creates a new Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini model name cannot be empty")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	slog.Info("Initialized Gemini backend", slog.String("model", cfg.Model))

	return &Gemini{client: client, config: cfg}, nil
}

// Name implements Backend.
func (g *Gemini) Name() string { return "gemini" }

// Complete implements Backend.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(prompt), nil)
	duration := time.Since(start)

	if err != nil {
		status := geminiStatus(err)
		slog.WarnContext(ctx, "Gemini API call failed",
			slog.Int("status", status),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", classifyError(ctx, fmt.Errorf("gemini api error: %w", err), status)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", retry.Fatal(errors.New("gemini api returned no content"))
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", retry.Invalid(errors.New("gemini blocked the prompt by safety filters"))
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", retry.Fatal(errors.New("gemini api returned empty response"))
	}

	return sb.String(), nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}
