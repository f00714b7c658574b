// Package metrics exports ingestion run results as Prometheus gauges in
// node-exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dtnitsch/essay-ingest/models"
)

// RunMetrics holds the gauges describing the latest ingestion run.
type RunMetrics struct {
	registry *prometheus.Registry

	Documents   *prometheus.GaugeVec
	Duration    prometheus.Gauge
	IndexSize   prometheus.Gauge
	Success     prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// New creates the gauges on a private registry.
func New() *RunMetrics {
	m := &RunMetrics{
		registry: prometheus.NewRegistry(),
		Documents: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "essay_ingest_documents",
				Help: "Essays handled by the last run, by outcome",
			},
			[]string{"outcome"},
		),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "essay_ingest_run_duration_seconds",
			Help: "Wall time of the last run in seconds",
		}),
		IndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "essay_ingest_index_size",
			Help: "Essays in the index after the last run",
		}),
		Success: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "essay_ingest_run_success",
			Help: "1 if the last run succeeded, 0 otherwise",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "essay_ingest_last_success_timestamp_seconds",
			Help: "Unix time the last successful run finished",
		}),
	}
	m.registry.MustRegister(m.Documents, m.Duration, m.IndexSize, m.Success, m.LastSuccess)
	return m
}

// Observe sets every gauge from report.
func (m *RunMetrics) Observe(report *models.RunReport) {
	m.Documents.WithLabelValues("discovered").Set(float64(report.Discovered))
	m.Documents.WithLabelValues("skipped").Set(float64(report.Skipped))
	m.Documents.WithLabelValues("ingested").Set(float64(report.Ingested))
	m.Documents.WithLabelValues("failed").Set(float64(report.Failed))
	m.Documents.WithLabelValues("pruned").Set(float64(report.Pruned))
	m.Duration.Set(report.Duration().Seconds())
	m.IndexSize.Set(float64(report.IndexSize))

	if report.Succeeded() {
		m.Success.Set(1)
		m.LastSuccess.Set(float64(report.FinishedAt.Unix()))
	} else {
		m.Success.Set(0)
	}
}

// WriteTextfile writes the gauges to path for the node-exporter textfile collector.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Gatherer exposes the registry.
func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
