package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDocumentMetrics() {
	r.DocumentsParsedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellml_documents_parsed_total",
			Help: "Total number of documents parsed",
		},
		[]string{"status"},
	)

	r.DocumentsWrittenTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellml_documents_written_total",
			Help: "Total number of documents serialized",
		},
		[]string{"status"},
	)

	r.ParseDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellml_parse_duration_seconds",
			Help:    "Document parse duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	r.ParseWarningsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "cellml_parse_warnings_total",
			Help: "Total number of non-fatal warnings emitted during parsing",
		},
	)

	r.DocumentComponents = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellml_document_components",
			Help:    "Components per successfully parsed model",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	r.DocumentVariables = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellml_document_variables",
			Help:    "Variables per successfully parsed model",
			Buckets: []float64{1, 5, 10, 50, 100, 250, 500},
		},
	)
}

func (r *Registry) initValidationMetrics() {
	r.ValidationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellml_validations_total",
			Help: "Total number of model validation runs",
		},
		[]string{"status"},
	)

	r.ValidationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellml_validation_duration_seconds",
			Help:    "Model validation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)
}

func (r *Registry) initConversionMetrics() {
	r.ConversionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "cellml_conversions_total",
			Help: "Total number of conversions between model representations",
		},
		[]string{"direction", "status"},
	)

	r.ConversionDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cellml_conversion_duration_seconds",
			Help:    "Conversion duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"direction"},
	)

	r.ConversionVariablesOut = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cellml_conversion_variables_out",
			Help:    "Variables in the converted output model",
			Buckets: []float64{1, 5, 10, 50, 100, 250, 500},
		},
	)
}
