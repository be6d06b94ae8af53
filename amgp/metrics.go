package amgp

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts downloads and rendered maps for one program run. It lives on
// a private registry so a batch run can write it out as a textfile.
type Metrics struct {
	Registry *prometheus.Registry

	FetchRequests *prometheus.CounterVec // labels: source, cache={hit,miss}
	FetchBytes    prometheus.Counter
	FetchErrors   prometheus.Counter
	MapsRendered  *prometheus.CounterVec // labels: type
	MapsSaved     prometheus.Counter
	RunErrors     prometheus.Counter
	LastRun       prometheus.Gauge
}

// NewMetrics creates the counters and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amgp",
			Name:      "fetch_requests_total",
			Help:      "Data downloads by source and cache result.",
		}, []string{"source", "cache"}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amgp",
			Name:      "fetch_bytes_total",
			Help:      "Bytes downloaded from data servers.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amgp",
			Name:      "fetch_errors_total",
			Help:      "Failed data downloads.",
		}),
		MapsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "amgp",
			Name:      "maps_rendered_total",
			Help:      "Map panels built, by map type.",
		}, []string{"type"}),
		MapsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amgp",
			Name:      "maps_saved_total",
			Help:      "Image files written.",
		}),
		RunErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "amgp",
			Name:      "run_errors_total",
			Help:      "Map runs that ended in an error.",
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "amgp",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed map run.",
		}),
	}
	m.Registry.MustRegister(
		m.FetchRequests,
		m.FetchBytes,
		m.FetchErrors,
		m.MapsRendered,
		m.MapsSaved,
		m.RunErrors,
		m.LastRun,
	)
	return m
}

// WriteFile writes the registry in the node exporter textfile format.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
