package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the server's Prometheus collectors, registered on a registry of
// their own so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	solves      *prometheus.CounterVec
	checks      *prometheus.CounterVec
	deals       prometheus.Counter
	connections prometheus.Gauge
}

// NewMetrics creates and registers the server collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twentyfour",
			Name:      "solves_total",
			Help:      "Hands submitted to the solver, by outcome.",
		}, []string{"outcome"}),
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twentyfour",
			Name:      "checks_total",
			Help:      "Player answers checked, by verdict.",
		}, []string{"verdict"}),
		deals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "twentyfour",
			Name:      "deals_total",
			Help:      "Hands dealt to players.",
		}),
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "twentyfour",
			Name:      "connections",
			Help:      "Open WebSocket connections.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
