package metrics

import (
	"time"
)

// RecordParse records one document parse with its duration and, on success,
// the parsed model's size and warning count.
func (r *Registry) RecordParse(status string, duration time.Duration, components, variables, warnings int) {
	r.DocumentsParsedTotal.WithLabelValues(status).Inc()
	r.ParseDuration.Observe(duration.Seconds())
	if status != "success" {
		return
	}
	r.ParseWarningsTotal.Add(float64(warnings))
	r.DocumentComponents.Observe(float64(components))
	r.DocumentVariables.Observe(float64(variables))
}

// RecordWrite records one document serialization
func (r *Registry) RecordWrite(status string) {
	r.DocumentsWrittenTotal.WithLabelValues(status).Inc()
}

// RecordValidation records a model validation run
func (r *Registry) RecordValidation(status string, duration time.Duration) {
	r.ValidationsTotal.WithLabelValues(status).Inc()
	r.ValidationDuration.Observe(duration.Seconds())
}

// RecordConversion records a conversion between representations. Direction is
// "from_native" or "to_native".
func (r *Registry) RecordConversion(direction, status string, duration time.Duration, variablesOut int) {
	r.ConversionsTotal.WithLabelValues(direction, status).Inc()
	r.ConversionDuration.WithLabelValues(direction).Observe(duration.Seconds())
	if status == "success" {
		r.ConversionVariablesOut.Observe(float64(variablesOut))
	}
}
