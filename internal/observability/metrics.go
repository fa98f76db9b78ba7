package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	aggregationRunsTotal *prometheus.CounterVec
	aggregationSeconds   prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors for the API and the
// aggregation engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skor_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skor_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skor_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		aggregationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skor_aggregation_runs_total",
			Help: "Total number of final-mark recomputations by outcome.",
		}, []string{"outcome"})

		aggregationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skor_aggregation_duration_seconds",
			Help:    "Duration of final-mark recomputations.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, aggregationRunsTotal, aggregationSeconds)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AggregationRuns exposes the counter for recomputation outcomes.
func AggregationRuns() *prometheus.CounterVec {
	RegisterMetrics()
	return aggregationRunsTotal
}

// AggregationDuration exposes the recomputation duration histogram.
func AggregationDuration() prometheus.Histogram {
	RegisterMetrics()
	return aggregationSeconds
}
