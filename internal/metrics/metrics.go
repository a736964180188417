package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, route template and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// RouteSearches counts path searches by algorithm and result (found, none, error)
	RouteSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_searches_total", Help: "Path searches by algorithm and result."},
		[]string{"algorithm", "result"},
	)
	// DeliveryOutcomes counts scheduled, skipped and failed requests by outcome kind
	DeliveryOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "delivery_outcomes_total", Help: "Delivery requests processed by outcome."},
		[]string{"outcome"},
	)
	// RoundDuration tracks scheduling round latency in seconds
	RoundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "scheduling_round_duration_seconds", Help: "Scheduling round duration in seconds.", Buckets: prometheus.DefBuckets},
	)
	// CongestionUpdates counts edge updates applied or failed by congestion sweeps
	CongestionUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "congestion_edge_updates_total", Help: "Edge updates by congestion sweeps."},
		[]string{"status"},
	)
	// NetworkSize reports the current node and edge counts
	NetworkSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "network_size", Help: "Nodes and directed edges in the road network."},
		[]string{"kind"},
	)
)

// RegisterDefault registers collectors to the default registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(RouteSearches)
		Registry.MustRegister(DeliveryOutcomes)
		Registry.MustRegister(RoundDuration)
		Registry.MustRegister(CongestionUpdates)
		Registry.MustRegister(NetworkSize)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once

// ObserveSearch records one search; err takes precedence over found.
func ObserveSearch(algorithm string, found bool, err error) {
	result := "none"
	switch {
	case err != nil:
		result = "error"
	case found:
		result = "found"
	}
	RouteSearches.WithLabelValues(algorithm, result).Inc()
}

// ObserveNetwork sets the network size gauges.
func ObserveNetwork(nodes, edges int) {
	NetworkSize.WithLabelValues("nodes").Set(float64(nodes))
	NetworkSize.WithLabelValues("edges").Set(float64(edges))
}
