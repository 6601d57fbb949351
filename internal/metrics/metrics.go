// Package metrics holds the prometheus collectors of the load-test driver
// and of the ledger node.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ledgerload"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Driver collects per-operation and per-job results of a load-test run.
type Driver struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	jobs       *prometheus.CounterVec
	pending    prometheus.Gauge
}

// NewDriver registers the driver collectors on a fresh registry.
func NewDriver() *Driver {
	d := &Driver{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations sent by scenario jobs.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of ledger operations as seen by the driver.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"op"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished scenario jobs.",
		}, []string{"kind", "outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_pending",
			Help:      "User jobs still running when the run was aggregated.",
		}),
	}
	d.registry.MustRegister(d.operations, d.latency, d.jobs, d.pending)
	return d
}

// ObserveOperation records one ledger call. d may be nil.
func (d *Driver) ObserveOperation(op string, took time.Duration, err error) {
	if d == nil {
		return
	}
	d.operations.WithLabelValues(op, outcome(err)).Inc()
	d.latency.WithLabelValues(op).Observe(took.Seconds())
}

// ObserveJob records a finished job. d may be nil.
func (d *Driver) ObserveJob(kind string, err error) {
	if d == nil {
		return
	}
	d.jobs.WithLabelValues(kind, outcome(err)).Inc()
}

func (d *Driver) SetPending(n int) {
	if d == nil {
		return
	}
	d.pending.Set(float64(n))
}

// WriteFile dumps the collected metrics in the text exposition format.
func (d *Driver) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, d.registry)
}

func (d *Driver) Gatherer() prometheus.Gatherer {
	return d.registry
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
