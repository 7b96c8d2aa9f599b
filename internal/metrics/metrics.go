package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec
	// AccountEvents counts account operations by event and outcome,
	// e.g. register/ok, login/invalid_credentials, upload/rejected.
	AccountEvents *prometheus.CounterVec
}

// New builds the collectors on a private registry so several instances can coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_requests_latency_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		AccountEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_events_total",
				Help: "Account operations by event and outcome",
			},
			[]string{"event", "outcome"},
		),
	}
	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestLatency,
		m.AccountEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Event records one account operation.
func (m *Metrics) Event(event, outcome string) {
	if m == nil {
		return
	}
	m.AccountEvents.WithLabelValues(event, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
