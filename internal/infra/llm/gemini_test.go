package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlog-ai/internal/resilience/retry"
)

func newGeminiTestServer(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultGeminiConfig("test-key")
	cfg.BaseURL = srv.URL + "/"
	cfg.Timeout = 2 * time.Second
	g, err := NewGemini(context.Background(), cfg)
	require.NoError(t, err)
	return g
}

func TestNewGemini_RequiresKeyAndModel(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{Model: "m"})
	assert.Error(t, err)

	_, err = NewGemini(context.Background(), GeminiConfig{APIKey: "k"})
	assert.Error(t, err)
}

func TestGemini_Complete_Success(t *testing.T) {
	var gotPath string
	g := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"경험 "},{"text":"추출"}]},"finishReason":"STOP"}]}`))
	})

	out, err := g.Complete(context.Background(), "prompt")

	require.NoError(t, err)
	assert.Equal(t, "경험 추출", out)
	assert.True(t, strings.HasSuffix(gotPath, "gemini-2.0-flash:generateContent"), "unexpected path %q", gotPath)
}

func TestGemini_Complete_RateLimited(t *testing.T) {
	g := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := g.Complete(context.Background(), "prompt")

	assert.Equal(t, retry.KindThrottled, retry.KindOf(err))
}

func TestGemini_Complete_SafetyBlock(t *testing.T) {
	g := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]},"finishReason":"SAFETY"}]}`))
	})

	_, err := g.Complete(context.Background(), "prompt")

	assert.Equal(t, retry.KindClientInvalid, retry.KindOf(err))
}

func TestGemini_Complete_NoCandidates(t *testing.T) {
	g := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})

	_, err := g.Complete(context.Background(), "prompt")

	assert.Equal(t, retry.KindServerFatal, retry.KindOf(err))
}
