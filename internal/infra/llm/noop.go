package llm

import (
	"context"

	"devlog-ai/internal/utils/text"
)

// NoOp is a backend that echoes the prompt back without calling any API.
// This is useful for testing and development when no API key is available.
type NoOp struct {
	// Reply, when set, is returned instead of the echoed prompt.
	Reply string
}

// NewNoOp creates a new NoOp backend.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Name implements Backend.
func (n *NoOp) Name() string { return "noop" }

// Complete returns Reply, or the first 500 characters of the prompt.
func (n *NoOp) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if n.Reply != "" {
		return n.Reply, nil
	}
	const maxLength = 500
	return text.Truncate(prompt, maxLength), nil
}
