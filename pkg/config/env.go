// Package config reads process settings from environment variables.
//
// The GetEnv* helpers never fail: an unset or empty variable yields the
// default, and an unparsable one yields the default plus a warning log.
// Callers validate the resulting values themselves.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// GetEnvString returns the variable or def when it is unset or empty.
func GetEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// GetEnvInt parses the variable as a base-10 integer.
func GetEnvInt(key string, def int) int {
	return getEnv(key, def, strconv.Atoi)
}

// GetEnvFloat parses the variable as a float64.
func GetEnvFloat(key string, def float64) float64 {
	return getEnv(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// GetEnvBool parses the variable with strconv.ParseBool ("1", "true", "F", ...).
func GetEnvBool(key string, def bool) bool {
	return getEnv(key, def, strconv.ParseBool)
}

// GetEnvDuration parses the variable with time.ParseDuration, e.g. "90s" or "1m30s".
func GetEnvDuration(key string, def time.Duration) time.Duration {
	return getEnv(key, def, time.ParseDuration)
}

// GetEnvStringList splits a comma-separated variable, trimming items and
// dropping empty ones. A list with no items yields def.
//
//	CORS_ALLOWED_ORIGINS="https://app.example.com, http://localhost:3000"
func GetEnvStringList(key string, def []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getEnv[T any](key string, def T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("invalid environment variable, using default",
			slog.String("key", key),
			slog.String("value", raw),
			slog.Any("default", def),
			slog.String("error", err.Error()))
		return def
	}
	return v
}
