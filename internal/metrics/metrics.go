// Package metrics provides Prometheus metrics for the cleaner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for one cleaner run.
type Metrics struct {
	RunsTotal       *prometheus.CounterVec
	RowsDeleted     *prometheus.CounterVec
	RecordsListed   prometheus.Counter
	RunDuration     prometheus.Histogram
	ImproperEntries prometheus.Counter

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cleaner_runs_total",
				Help: "Total number of cleaner runs by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
		RowsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cleaner_rows_deleted_total",
				Help: "Total number of rows deleted by table.",
			},
			[]string{"table"},
		),
		RecordsListed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cleaner_records_listed_total",
				Help: "Total number of aged records returned by listing runs.",
			},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cleaner_run_duration_seconds",
				Help:    "Run duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ImproperEntries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cleaner_improper_cluster_entries_total",
				Help: "Total number of cluster list entries rejected as malformed.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.RunsTotal)
	reg.MustRegister(m.RowsDeleted)
	reg.MustRegister(m.RecordsListed)
	reg.MustRegister(m.RunDuration)
	reg.MustRegister(m.ImproperEntries)

	return m
}

// RecordRun increments the run counter.
func (m *Metrics) RecordRun(mode, outcome string) {
	m.RunsTotal.WithLabelValues(mode, outcome).Inc()
}

// RecordDeletions adds per-table deleted-row counts.
func (m *Metrics) RecordDeletions(deletionsForTable map[string]int) {
	for table, count := range deletionsForTable {
		m.RowsDeleted.WithLabelValues(table).Add(float64(count))
	}
}

// Push sends all registered metrics to a Pushgateway. The cleaner is a batch
// process, so scraping is not an option; pushing happens once at the end of
// each run when a gateway URL is configured.
func (m *Metrics) Push(gatewayURL string) error {
	return push.New(gatewayURL, "report_cleaner").Gatherer(m.registry).Push()
}
