// Package llm provides text-generation backend adapters.
// It includes adapters for Claude (Anthropic), OpenAI and Gemini, plus a no-op
// backend for local development. Every adapter classifies its failures into
// retry kinds so callers can decide what to retry without inspecting messages.
package llm

import (
	"context"
)

// Backend completes a single prompt. Implementations return *retry.Error for
// backend failures and the raw context error when the caller's context ends.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Complete sends prompt and returns the generated text.
	Complete(ctx context.Context, prompt string) (string, error)
}
