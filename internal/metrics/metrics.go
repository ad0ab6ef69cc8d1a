// Package metrics exposes search statistics in the Prometheus text format. A timetabling run is a
// batch job, so the metrics are written to a textfile for node_exporter rather than served.
package metrics

import (
	"github.com/limaJavier/csptimetabling/pkg/model"
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	registry *prometheus.Registry

	runs       *prometheus.CounterVec
	nodes      prometheus.Counter
	backtracks prometheus.Counter
	checks     prometheus.Counter

	searchTime prometheus.Histogram
	variables  prometheus.Gauge
	maxDepth   prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "timetable_runs_total",
			Help: "Timetabling runs by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_search_nodes_total",
			Help: "Tentative assignments performed",
		}),
		backtracks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_search_backtracks_total",
			Help: "Assignments undone after a failed descent",
		}),
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "timetable_search_checks_total",
			Help: "Consistency checks performed",
		}),
		searchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "timetable_search_seconds",
			Help:    "Wall-clock time spent searching",
			Buckets: prometheus.DefBuckets,
		}),
		variables: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_variables",
			Help: "Sessions to schedule in the last run",
		}),
		maxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "timetable_search_max_depth",
			Help: "Deepest partial assignment reached in the last run",
		}),
	}

	c.registry.MustRegister(c.runs, c.nodes, c.backtracks, c.checks, c.searchTime, c.variables, c.maxDepth)

	return c
}

// Observe records one finished run
func (c *Collector) Observe(strategy, outcome string, stats model.SearchStats) {
	c.runs.WithLabelValues(strategy, outcome).Inc()
	c.nodes.Add(float64(stats.Nodes))
	c.backtracks.Add(float64(stats.Backtracks))
	c.checks.Add(float64(stats.Checks))
	c.searchTime.Observe(stats.SearchTime.Seconds())
	c.variables.Set(float64(stats.Variables))
	c.maxDepth.Set(float64(stats.MaxDepth))
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes every metric to path atomically
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
