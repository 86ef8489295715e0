package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateCronSchedule(t *testing.T) {
	valid := []string{"*/10 * * * *", "30 9 * * 1-5", "@hourly", "@every 5m"}
	for _, s := range valid {
		assert.NoError(t, ValidateCronSchedule(s), s)
	}

	invalid := []string{"", "0 0", "60 0 * * *", "@sometimes", "0 0 * * * *"}
	for _, s := range invalid {
		err := ValidateCronSchedule(s)
		if assert.Error(t, err, s) {
			assert.Contains(t, err.Error(), "invalid cron schedule")
		}
	}
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("Asia/Seoul"))
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("+09:00"))
}

func TestValidateRanges(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Minute, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(2*time.Hour, time.Second, time.Hour))
	assert.Error(t, ValidateDuration(time.Minute, time.Hour, time.Second))

	assert.NoError(t, ValidateIntRange(5, 1, 10))
	assert.Error(t, ValidateIntRange(0, 1, 10))
	assert.Error(t, ValidateIntRange(5, 10, 1))

	assert.NoError(t, ValidatePort(0))
	assert.NoError(t, ValidatePort(50051))
	assert.Error(t, ValidatePort(80))
}
