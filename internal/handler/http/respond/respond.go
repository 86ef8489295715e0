// Package respond writes JSON responses and keeps internal error details out
// of them. Every error body has the shape {"error": "..."}.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"devlog-ai/internal/domain/entity"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error string `json:"error" example:"invalid request body"`
}

// JSON writes v as JSON with the given status code. HTML characters are not
// escaped so Hangul and symbols pass through unchanged.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// headers are already sent
		slog.Default().Error("failed to encode JSON response",
			slog.Int("status_code", code),
			slog.Any("error", err))
	}
}

// Error writes err's message as the error body without filtering.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, ErrorBody{Error: err.Error()})
}

// safePhrases mark client errors whose message is safe to return verbatim.
var safePhrases = []string{
	"required",
	"invalid",
	"empty",
	"duplicate",
	"must be",
	"cannot be",
	"too long",
	"too large",
	"not found",
}

// SafeError writes err without leaking internals:
//   - *AppError: its user message, internal error logged
//   - 5xx: always "internal server error", sanitized error logged
//   - 4xx: the message when it is a validation error or reads like one,
//     otherwise the status text
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil {
			slog.Default().Error("application error",
				slog.Int("code", appErr.Code),
				slog.String("user_message", appErr.UserMsg),
				slog.String("error", SanitizeError(appErr.Err)))
		}
		JSON(w, appErr.Code, ErrorBody{Error: appErr.UserMsg})
		return
	}

	if code >= http.StatusInternalServerError {
		slog.Default().Error("internal server error",
			slog.Int("code", code),
			slog.String("error", SanitizeError(err)))
		JSON(w, code, ErrorBody{Error: "internal server error"})
		return
	}

	var ve *entity.ValidationError
	if errors.As(err, &ve) {
		JSON(w, code, ErrorBody{Error: ve.Message})
		return
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, phrase := range safePhrases {
		if strings.Contains(lower, phrase) {
			JSON(w, code, ErrorBody{Error: SanitizeString(msg)})
			return
		}
	}
	JSON(w, code, ErrorBody{Error: strings.ToLower(http.StatusText(code))})
}

// AppError carries a message meant for the client next to the internal cause.
type AppError struct {
	UserMsg string
	Err     error
	Code    int
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMsg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError.
func NewAppError(code int, userMsg string, err error) *AppError {
	return &AppError{Code: code, UserMsg: userMsg, Err: err}
}
