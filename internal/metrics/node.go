package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Node collects gRPC and ledger metrics of a ledger node.
type Node struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	replies  *prometheus.CounterVec
}

// NewNode registers the node collectors, plus the Go runtime and process
// collectors, on a fresh registry.
func NewNode() *Node {
	n := &Node{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "grpc_requests_total",
			Help:      "gRPC requests handled, by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "grpc_request_duration_seconds",
			Help:      "gRPC handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "node",
			Name:      "replies_total",
			Help:      "Ledger replies, by kind.",
		}, []string{"op"}),
	}
	n.registry.MustRegister(
		n.requests, n.latency, n.replies,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return n
}

func (n *Node) ObserveRequest(method, code string, took time.Duration) {
	n.requests.WithLabelValues(method, code).Inc()
	n.latency.WithLabelValues(method).Observe(took.Seconds())
}

func (n *Node) ObserveReply(op string) {
	n.replies.WithLabelValues(op).Inc()
}

func (n *Node) Gatherer() prometheus.Gatherer {
	return n.registry
}
