package metrics

import "time"

// RecordGeneration records the outcome and duration of one generation request.
func RecordGeneration(kind string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	GenerationRequestsTotal.WithLabelValues(kind, status).Inc()
	GenerationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordExperiencesExtracted records how many experiences one request produced.
func RecordExperiencesExtracted(count int) {
	ExperiencesExtracted.Observe(float64(count))
}

// RecordTitleLength records the rune length of a generated title.
func RecordTitleLength(runes int) {
	TitleLength.Observe(float64(runes))
}
