package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"devlog-ai/internal/handler/http/respond"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string                 `json:"status" example:"healthy"`
	Timestamp string                 `json:"timestamp" example:"2025-01-01T00:00:00Z"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version" example:"1.0.0"`
}

// CheckStatus is the result of one named check.
type CheckStatus struct {
	Status  string `json:"status" example:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthHandler reports every check and answers 503 when any fails.
type HealthHandler struct {
	Version string
	Checks  map[string]Check
}

// ServeHTTP godoc
// @Summary      Service health
// @Description  Runs every dependency check. The generation backend is unhealthy while its circuit breaker is open.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks, healthy := runChecks(ctx, h.Checks)
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}
	code := http.StatusOK
	if !healthy {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, resp)
}

// ReadyHandler answers 200 "ready" when every check passes.
type ReadyHandler struct {
	Checks map[string]Check
}

func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, ok := runChecks(ctx, h.Checks); !ok {
		writeText(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeText(w, http.StatusOK, "ready")
}

// LiveHandler always answers 200 "alive".
type LiveHandler struct{}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "alive")
}

func runChecks(ctx context.Context, checks map[string]Check) (map[string]CheckStatus, bool) {
	out := make(map[string]CheckStatus, len(checks))
	ok := true
	for name, check := range checks {
		if err := check(ctx); err != nil {
			out[name] = CheckStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
			ok = false
			continue
		}
		out[name] = CheckStatus{Status: "healthy"}
	}
	return out, ok
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("failed to write probe response", slog.Any("error", err))
	}
}
