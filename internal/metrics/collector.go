package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds Prometheus metrics for the load-generation hub: both the
// admission API surface (HTTP requests against the hub itself) and the
// aggregate load-generation numbers reported by bombarding nodes.
type Collector struct {
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestsInFlight prometheus.Gauge

	LoadRequestDuration *prometheus.HistogramVec
	LoadRequestsTotal   *prometheus.CounterVec
	LoadRequestsFailed  *prometheus.CounterVec
	NodesAvailable      prometheus.Gauge
	NodesBombarding     prometheus.Gauge
}

// NewCollector creates a new metrics collector with Prometheus metrics.
func NewCollector() *Collector {
	return &Collector{
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bombard_hub_http_request_duration_seconds",
				Help:    "Admission API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bombard_hub_http_requests_total",
				Help: "Total number of admission API requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bombard_hub_http_requests_in_flight",
				Help: "Number of admission API requests currently being handled",
			},
		),
		LoadRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bombard_load_request_duration_ms",
				Help:    "Latency in milliseconds of requests issued by bombarding nodes",
				Buckets: prometheus.ExponentialBuckets(1, 2, 16),
			},
			[]string{"job_id", "request_name", "status"},
		),
		LoadRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bombard_load_requests_total",
				Help: "Total number of requests issued by bombarding nodes",
			},
			[]string{"job_id", "request_name", "status"},
		),
		LoadRequestsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bombard_load_requests_failed_total",
				Help: "Total number of failed (status >= 400) requests issued by bombarding nodes",
			},
			[]string{"job_id", "request_name"},
		),
		NodesAvailable: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bombard_hub_nodes_available",
				Help: "Number of registered nodes currently idle",
			},
		),
		NodesBombarding: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bombard_hub_nodes_bombarding",
				Help: "Number of registered nodes currently running a job",
			},
		),
	}
}

// IncrementHTTPRequestsInFlight marks the start of an admission API request.
func (c *Collector) IncrementHTTPRequestsInFlight() {
	c.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight marks the end of an admission API request.
func (c *Collector) DecrementHTTPRequestsInFlight() {
	c.HTTPRequestsInFlight.Dec()
}

// RecordHTTPRequest records a completed admission API request.
func (c *Collector) RecordHTTPRequest(method, path, status string, durationSec float64) {
	c.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(durationSec)
	c.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordLoadRequest records a single request a node issued as part of a job.
func (c *Collector) RecordLoadRequest(jobID, requestName, status string, latencyMS int64, failed bool) {
	c.LoadRequestDuration.WithLabelValues(jobID, requestName, status).Observe(float64(latencyMS))
	c.LoadRequestsTotal.WithLabelValues(jobID, requestName, status).Inc()

	if failed {
		c.LoadRequestsFailed.WithLabelValues(jobID, requestName).Inc()
	}
}

// SetNodeCounts updates the registry gauges.
func (c *Collector) SetNodeCounts(available, bombarding int) {
	c.NodesAvailable.Set(float64(available))
	c.NodesBombarding.Set(float64(bombarding))
}
