package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		wantStatus  int
	}{
		{name: "json post", method: http.MethodPost, target: "/generate/title", contentType: "application/json", wantStatus: http.StatusOK},
		{name: "json with charset", method: http.MethodPost, target: "/generate/title", contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "no content type", method: http.MethodPost, target: "/generate/title", wantStatus: http.StatusOK},
		{name: "form post", method: http.MethodPost, target: "/generate/title", contentType: "application/x-www-form-urlencoded", wantStatus: http.StatusUnsupportedMediaType},
		{name: "get ignores content type", method: http.MethodGet, target: "/health", contentType: "text/plain", wantStatus: http.StatusOK},
		{name: "long uri", method: http.MethodGet, target: "/health?q=" + strings.Repeat("a", 2100), wantStatus: http.StatusRequestURITooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := InputValidation()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
