package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGeneration(t *testing.T) {
	success := GenerationRequestsTotal.WithLabelValues("title", "success")
	failure := GenerationRequestsTotal.WithLabelValues("title", "failure")
	beforeOK := testutil.ToFloat64(success)
	beforeFail := testutil.ToFloat64(failure)

	RecordGeneration("title", 2*time.Second, nil)
	RecordGeneration("title", 5*time.Second, errors.New("throttled"))

	assert.Equal(t, beforeOK+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeFail+1, testutil.ToFloat64(failure))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(GenerationDuration), 1)
}

func TestRecordExperiencesAndTitle(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordExperiencesExtracted(4)
		RecordExperiencesExtracted(0)
		RecordTitleLength(35)
	})
	assert.Equal(t, 1, testutil.CollectAndCount(ExperiencesExtracted))
	assert.Equal(t, 1, testutil.CollectAndCount(TitleLength))
}

func TestRecordHTTPRequest(t *testing.T) {
	counter := HTTPRequestsTotal.WithLabelValues("POST", "/generate/title", "200")
	before := testutil.ToFloat64(counter)

	RecordHTTPRequest("POST", "/generate/title", "200", 1500*time.Millisecond, 512, 64)
	RecordHTTPRequest("POST", "/generate/title", "200", time.Second, 0, 0)

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
