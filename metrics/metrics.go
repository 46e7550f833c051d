// Package metrics wires the node's counters into a prometheus registry,
// naming the dependency the way luxfi-vm's rpc/state packages do
// (counters built with prometheus.NewCounter and registered against an
// explicit *prometheus.Registry rather than the global default, so multiple
// engines in one process don't collide).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds the redownload counters emitted by the Redownload Driver
// (C8). getMetricsMap's per-status gauges live in consensus.Store itself,
// since they are computed on demand from substore sizes rather than
// incremented as events occur.
type Registry struct {
	ReDownloadFinished prometheus.Counter
	ReDownloadError    prometheus.Counter
}

// NewRegistry constructs and registers the redownload counters against reg.
func NewRegistry(reg *prometheus.Registry) *Registry {
	r := &Registry{
		ReDownloadFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "snapshot",
			Name:      "redownload_finished_total",
			Help:      "Number of redownload episodes that completed successfully.",
		}),
		ReDownloadError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledgerd",
			Subsystem: "snapshot",
			Name:      "redownload_error_total",
			Help:      "Number of redownload episodes that failed.",
		}),
	}

	reg.MustRegister(r.ReDownloadFinished, r.ReDownloadError)

	return r
}
