package output

import (
	"fmt"

	"github.com/moamenhredeen/jptest/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "jptest"

// NewMetricsRegistry builds a registry describing one run
func NewMetricsRegistry(summary models.TestSummary) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "case_results_total",
		Help:      "Number of cases by group and outcome.",
	}, []string{"group", "outcome"})

	responseTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "case_response_seconds",
		Help:      "Response time of cases that reached the API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"group", "method"})

	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time of the last run.",
	})

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run started.",
	})

	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "last_run_success",
		Help:      "1 when the last run had no failures or errors.",
	})

	reg.MustRegister(results, responseTime, runDuration, lastRun, success)

	for _, r := range summary.Results {
		results.WithLabelValues(r.Group, string(r.Outcome)).Inc()
		if r.StatusCode != 0 {
			responseTime.WithLabelValues(r.Group, r.Method).Observe(r.ResponseTime.Seconds())
		}
	}
	runDuration.Set(summary.Duration.Seconds())
	if !summary.StartedAt.IsZero() {
		lastRun.Set(float64(summary.StartedAt.Unix()))
	}
	if summary.OK() {
		success.Set(1)
	}

	return reg
}

// WriteMetricsTextfile writes the run's metrics in the Prometheus text
// format, for the node exporter textfile collector
func WriteMetricsTextfile(path string, summary models.TestSummary) error {
	if err := prometheus.WriteToTextfile(path, NewMetricsRegistry(summary)); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
