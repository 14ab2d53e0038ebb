package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the comparison runner.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	comparisons        *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	fairness           prometheus.Gauge
	duration           prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcpspectra_comparisons_total",
			Help: "Comparison runs by outcome.",
		}, []string{"outcome"}),
		extractionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tcpspectra_extraction_failures_total",
			Help: "Algorithms whose flow observation could not be extracted, by reason.",
		}, []string{"reason"}),
		fairness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tcpspectra_fairness_index",
			Help: "Jain fairness index of the last successful comparison.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tcpspectra_compare_duration_seconds",
			Help:    "Time spent extracting and reducing one comparison.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	reg.MustRegister(m.comparisons, m.extractionFailures, m.fairness, m.duration)
	return m
}

// ObserveComparison records the outcome and duration of one comparison.
func (m *Metrics) ObserveComparison(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.comparisons.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// IncExtractionFailure counts one failed extraction.
func (m *Metrics) IncExtractionFailure(reason string) {
	if m == nil {
		return
	}
	m.extractionFailures.WithLabelValues(reason).Inc()
}

// SetFairness stores the fairness index of the last successful comparison.
func (m *Metrics) SetFairness(index float64) {
	if m == nil {
		return
	}
	m.fairness.Set(index)
}
