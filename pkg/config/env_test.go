package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STRING", "rabbit")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_FLOAT", "0.5")
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_DURATION", "1m30s")
	t.Setenv("TEST_LIST", " a, ,b ")

	assert.Equal(t, "rabbit", GetEnvString("TEST_STRING", "x"))
	assert.Equal(t, "x", GetEnvString("TEST_UNSET_STRING", "x"))
	assert.Equal(t, 42, GetEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 0.5, GetEnvFloat("TEST_FLOAT", 1))
	assert.False(t, GetEnvBool("TEST_BOOL", true))
	assert.Equal(t, 90*time.Second, GetEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b"}, GetEnvStringList("TEST_LIST", nil))
	assert.Equal(t, []string{"*"}, GetEnvStringList("TEST_UNSET_LIST", []string{"*"}))
}

func TestGetEnvHelpers_TrimAndFallback(t *testing.T) {
	t.Setenv("TEST_INT", " 7 ")
	t.Setenv("TEST_BOOL", "yes")
	t.Setenv("TEST_DURATION", "10")

	assert.Equal(t, 7, GetEnvInt("TEST_INT", 1))
	assert.True(t, GetEnvBool("TEST_BOOL", true))
	assert.Equal(t, time.Second, GetEnvDuration("TEST_DURATION", time.Second))
}

func TestLoadRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		rate  string
		burst string
		want  RateLimit
	}{
		{name: "unset", want: RateLimit{PerSecond: 0, Burst: 1}},
		{name: "configured", rate: "4", burst: "8", want: RateLimit{PerSecond: 4, Burst: 8}},
		{name: "negative rate disables", rate: "-1", want: RateLimit{PerSecond: 0, Burst: 1}},
		{name: "zero burst falls back", rate: "1", burst: "0", want: RateLimit{PerSecond: 1, Burst: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TESTRL_RATE_LIMIT", tt.rate)
			t.Setenv("TESTRL_RATE_BURST", tt.burst)
			got := LoadRateLimit("TESTRL")
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.PerSecond > 0, got.Enabled())
		})
	}
}

func TestDurationValidators(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.NoError(t, ValidateNonNegativeDuration(0))
	assert.Error(t, ValidateNonNegativeDuration(-time.Second))
}
