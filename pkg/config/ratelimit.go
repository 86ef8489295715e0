package config

import (
	"log/slog"
)

// RateLimit is a token-bucket budget for calls to an external service.
// A non-positive PerSecond disables limiting.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// Enabled reports whether the budget restricts anything.
func (r RateLimit) Enabled() bool {
	return r.PerSecond > 0
}

// LoadRateLimit loads a rate limit budget from environment variables.
//
// Invalid values are logged and replaced with safe defaults instead of failing.
//
// Environment variables (prefix "GENERATOR" shown):
//   - GENERATOR_RATE_LIMIT: requests per second, 0 disables (default: 0)
//   - GENERATOR_RATE_BURST: bucket size (default: 1)
//
// Example:
//
//	limit := LoadRateLimit("GENERATOR")
//	if limit.Enabled() {
//	    limiter := rate.NewLimiter(rate.Limit(limit.PerSecond), limit.Burst)
//	}
func LoadRateLimit(prefix string) RateLimit {
	perSecond := GetEnvFloat(prefix+"_RATE_LIMIT", 0)
	if perSecond < 0 {
		slog.Warn("invalid rate limit, disabling",
			slog.String("key", prefix+"_RATE_LIMIT"),
			slog.Float64("value", perSecond))
		perSecond = 0
	}

	burst := GetEnvInt(prefix+"_RATE_BURST", 1)
	if burst < 1 {
		slog.Warn("invalid rate burst, using default",
			slog.String("key", prefix+"_RATE_BURST"),
			slog.Int("value", burst),
			slog.Int("default", 1))
		burst = 1
	}

	return RateLimit{PerSecond: perSecond, Burst: burst}
}
