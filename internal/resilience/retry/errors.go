package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a failed call to a generation backend.
type Kind int

const (
	// KindServerFatal is a server-side failure that will not go away by retrying.
	// It is the zero value so unclassified errors are never retried.
	KindServerFatal Kind = iota
	// KindThrottled means the backend asked us to slow down (HTTP 429).
	KindThrottled
	// KindServerTransient is a temporary server-side or network failure.
	KindServerTransient
	// KindClientInvalid means the request itself was rejected.
	KindClientInvalid
)

// String returns the metric/log label for the kind.
func (k Kind) String() string {
	switch k {
	case KindThrottled:
		return "throttled"
	case KindServerTransient:
		return "server_transient"
	case KindClientInvalid:
		return "client_invalid"
	default:
		return "server_fatal"
	}
}

// IsRetryableKind reports whether a failure of kind k may succeed on a later attempt.
func IsRetryableKind(k Kind) bool {
	return k == KindThrottled || k == KindServerTransient
}

// KindFromStatus maps an HTTP status code returned by a backend to a Kind.
func KindFromStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindThrottled
	case code == http.StatusRequestTimeout:
		return KindServerTransient
	case code == http.StatusNotImplemented || code == http.StatusHTTPVersionNotSupported:
		return KindServerFatal
	case code >= 500 && code < 600:
		return KindServerTransient
	case code >= 400 && code < 500:
		return KindClientInvalid
	default:
		return KindServerFatal
	}
}

// Error is a classified backend failure.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewError classifies err by HTTP status code.
func NewError(status int, message string, err error) *Error {
	return &Error{Kind: KindFromStatus(status), StatusCode: status, Message: message, Err: err}
}

// Throttled wraps err as a KindThrottled failure.
func Throttled(err error) *Error { return &Error{Kind: KindThrottled, Err: err} }

// Transient wraps err as a KindServerTransient failure.
func Transient(err error) *Error { return &Error{Kind: KindServerTransient, Err: err} }

// Fatal wraps err as a KindServerFatal failure.
func Fatal(err error) *Error { return &Error{Kind: KindServerFatal, Err: err} }

// Invalid wraps err as a KindClientInvalid failure.
func Invalid(err error) *Error { return &Error{Kind: KindClientInvalid, Err: err} }

// KindOf returns the kind carried by err. Errors without a kind are ServerFatal.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindServerFatal
}

// IsRetryable determines if an error is worth retrying.
// Only the classified kind is consulted, never the message text.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re *Error
	if errors.As(err, &re) {
		return IsRetryableKind(re.Kind)
	}

	// Unclassified errors, context cancellation included, are not retryable
	return false
}

// IsContextError reports whether err stems from context cancellation or deadline.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExhaustedError is returned when every allowed attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Elapsed  time.Duration
	Last     error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retry attempts (%d) exceeded after %s: %v", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Last)
}

// Unwrap returns the last error so errors.Is/As reach the backend failure.
func (e *ExhaustedError) Unwrap() error { return e.Last }
