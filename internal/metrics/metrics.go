// Package metrics exposes the daemon's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Send outcomes.
const (
	OutcomeSent     = "sent"
	OutcomeBlocked  = "blocked"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics bundles the collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	sends       *prometheus.CounterVec
	collapsed   prometheus.Counter
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec
}

// New creates collectors on a private registry, along with the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freightmsg_sends_total",
			Help: "Send attempts by outcome.",
		}, []string{"outcome"}),
		collapsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freightmsg_conversations_collapsed_total",
			Help: "Conversation rows dropped as duplicates during normalization.",
		}),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freightmsg_api_requests_total",
			Help: "Marketplace API requests by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "freightmsg_api_request_duration_seconds",
			Help:    "Marketplace API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	m.registry.MustRegister(
		m.sends, m.collapsed, m.apiRequests, m.apiDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Send counts one send attempt.
func (m *Metrics) Send(outcome string) {
	if m == nil {
		return
	}
	m.sends.WithLabelValues(outcome).Inc()
}

// Collapsed counts rows dropped by deduplication.
func (m *Metrics) Collapsed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.collapsed.Add(float64(n))
}

// APIRequest records one backend call. code 0 means no response arrived.
func (m *Metrics) APIRequest(endpoint string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := strconv.Itoa(code)
	if code == 0 {
		label = "error"
	}
	m.apiRequests.WithLabelValues(endpoint, label).Inc()
	m.apiDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
