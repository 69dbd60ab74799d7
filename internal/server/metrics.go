package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/efsmcheck/internal/engine"
)

// Metrics holds the collectors served at /metrics. Each Metrics owns its
// registry so tests and multiple servers never collide on registration.
type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	deadlocks *prometheus.CounterVec
	status    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "efsmcheck_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "efsmcheck_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		deadlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "efsmcheck_deadlocks_found_total",
				Help: "Deadlocks reported by explorations, by kind",
			},
			[]string{"kind"},
		),
		status: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "efsmcheck_explorations_total",
				Help: "Explorations by final status",
			},
			[]string{"status"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "efsmcheck_solver_fallbacks_total",
				Help: "SMT questions answered by the fallback policy, by operation",
			},
			[]string{"op"},
		),
	}
	m.registry.MustRegister(m.requests, m.duration, m.deadlocks, m.status, m.fallbacks)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SolverFallback counts one fallback. Pass it to smt.WithFallbackObserver.
func (m *Metrics) SolverFallback(op string) {
	m.fallbacks.WithLabelValues(op).Inc()
}

func (m *Metrics) observeExploration(res *engine.Result) {
	m.status.WithLabelValues(string(res.Status)).Inc()
	m.deadlocks.WithLabelValues("hard").Add(float64(len(res.HardDeadlocks)))
	m.deadlocks.WithLabelValues("conditional").Add(float64(len(res.ConditionalDeadlocks)))
}
