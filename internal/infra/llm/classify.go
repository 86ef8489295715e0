package llm

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"devlog-ai/internal/resilience/retry"
)

// classifyError turns a backend call failure into a retry kind.
// parent is the caller's context; if it has ended, its error is returned unclassified
// so the retry executor stops. status is the HTTP status reported by the SDK, or 0.
func classifyError(parent context.Context, err error, status int) error {
	if err == nil {
		return nil
	}
	if perr := parent.Err(); perr != nil {
		return perr
	}

	if status > 0 {
		return retry.NewError(status, "", err)
	}

	// Per-call timeout expired while the caller is still waiting
	if errors.Is(err, context.DeadlineExceeded) {
		return retry.Transient(err)
	}

	// Network errors (timeout)
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return retry.Transient(err)
	}

	// Syscall errors
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return retry.Transient(err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return retry.Transient(err)
	}

	return retry.Fatal(err)
}
