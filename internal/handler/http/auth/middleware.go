// Package auth guards the generation routes with HS256 bearer tokens shared
// between this service and its callers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"devlog-ai/internal/handler/http/requestid"
	"devlog-ai/internal/handler/http/respond"
)

type ctxKey string

const ctxSubject ctxKey = "subject"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// SubjectFromContext returns the authenticated caller, or "".
func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxSubject).(string); ok {
		return s
	}
	return ""
}

// Authz rejects requests without a valid token with 401. Paths for which
// public returns true pass through unauthenticated. public may be nil.
func Authz(secret []byte, public func(path string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if public != nil && public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			subject, err := ValidateToken(r.Header.Get("Authorization"), secret)
			observeCheck(start, err)
			if err != nil {
				slog.Warn("authentication failed",
					slog.String("request_id", requestid.FromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{Error: "unauthorized"})
				return
			}

			ctx := context.WithValue(r.Context(), ctxSubject, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateToken parses an "Authorization: Bearer <jwt>" value and returns the
// sub claim. The token must be HS256-signed with secret and carry exp and sub.
func ValidateToken(authz string, secret []byte) (string, error) {
	const prefix = "Bearer "
	if len(authz) < len(prefix) || !strings.EqualFold(authz[:len(prefix)], prefix) {
		return "", ErrMissingToken
	}
	tokenString := strings.TrimSpace(authz[len(prefix):])

	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return sub, nil
}

// IssueToken signs an HS256 token for subject valid for ttl.
func IssueToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("secret is required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
