package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Document Metrics
	DocumentsParsedTotal  *prometheus.CounterVec
	DocumentsWrittenTotal *prometheus.CounterVec
	ParseDuration         prometheus.Histogram
	ParseWarningsTotal    prometheus.Counter
	DocumentComponents    prometheus.Histogram
	DocumentVariables     prometheus.Histogram

	// Validation Metrics
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram

	// Conversion Metrics
	ConversionsTotal       *prometheus.CounterVec
	ConversionDuration     *prometheus.HistogramVec
	ConversionVariablesOut prometheus.Histogram

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initDocumentMetrics()
	r.initValidationMetrics()
	r.initConversionMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
