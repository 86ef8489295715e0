// Package middleware holds HTTP middleware that needs its own configuration.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists exact origins. "*" allows any origin.
	AllowedOrigins []string

	AllowedMethods []string

	AllowedHeaders []string

	// AllowCredentials is ignored for wildcard origins.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int

	Logger *slog.Logger
}

// DefaultCORSConfig allows any origin to call the generation routes.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		MaxAge:         86400,
	}
}

// OriginValidator checks origins against an allow-list.
type OriginValidator struct {
	any     bool
	allowed map[string]struct{}
}

// NewOriginValidator builds a validator. Origins are compared case-insensitively
// without a trailing slash.
func NewOriginValidator(origins []string) *OriginValidator {
	v := &OriginValidator{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "*" {
			v.any = true
			continue
		}
		if o != "" {
			v.allowed[normalizeOrigin(o)] = struct{}{}
		}
	}
	return v
}

// IsAllowed reports whether origin may make cross-origin requests.
func (v *OriginValidator) IsAllowed(origin string) bool {
	if v.any {
		return true
	}
	_, ok := v.allowed[normalizeOrigin(origin)]
	return ok
}

// AllowsAny reports whether the wildcard is configured.
func (v *OriginValidator) AllowsAny() bool {
	return v.any
}

func normalizeOrigin(o string) string {
	return strings.ToLower(strings.TrimSuffix(o, "/"))
}

// CORS adds CORS headers for allowed origins and answers preflight requests
// with 204. Requests from other origins pass through without CORS headers.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	validator := NewOriginValidator(config.AllowedOrigins)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(config.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !validator.IsAllowed(origin) {
				logger.Warn("CORS: origin not allowed",
					slog.String("origin", origin),
					slog.String("path", r.URL.Path),
					slog.String("method", r.Method))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			if validator.AllowsAny() {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if config.AllowCredentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.Header().Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
