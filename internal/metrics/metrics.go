// Package metrics exposes prometheus counters for the session gate.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roboadmin"

// Metrics groups the application's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	GateDecisions *prometheus.CounterVec
	Logins        *prometheus.CounterVec
	Expirations   prometheus.Counter
	Panics        prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		GateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_decisions_total",
			Help:      "Route guard decisions by guard and outcome.",
		}, []string{"guard", "decision"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_expirations_total",
			Help:      "Sessions ended because the back office answered 401.",
		}),
		Panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_panics_total",
			Help:      "Handler panics recovered by middleware.",
		}),
	}

	reg.MustRegister(
		m.GateDecisions,
		m.Logins,
		m.Expirations,
		m.Panics,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDecision counts one guard evaluation.
func (m *Metrics) ObserveDecision(guard, decision string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(guard, decision).Inc()
}

// ObserveLogin counts one login attempt.
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// ObserveExpiration counts one backend-driven session expiry.
func (m *Metrics) ObserveExpiration() {
	if m == nil {
		return
	}
	m.Expirations.Inc()
}

// ObservePanic counts one recovered panic.
func (m *Metrics) ObservePanic() {
	if m == nil {
		return
	}
	m.Panics.Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
