// Package metrics defines the Prometheus collectors for the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for Prometheus monitoring of interaction handling.
type Metrics struct {
	InteractionsTotal   *prometheus.CounterVec
	InteractionDuration *prometheus.HistogramVec
	GatewayLatency      prometheus.Gauge
	CogsLoaded          prometheus.Gauge
}

// New registers and returns the bot collectors.
func New() *Metrics {
	m := &Metrics{
		InteractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unibot_interactions_total",
				Help: "Total number of slash command interactions",
			},
			[]string{"command", "status"},
		),
		InteractionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unibot_interaction_duration_seconds",
				Help:    "Slash command handling duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~30s
			},
			[]string{"command"},
		),
		GatewayLatency: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "unibot_gateway_latency_ms",
				Help: "Discord gateway heartbeat latency in milliseconds",
			},
		),
		CogsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "unibot_cogs_loaded",
				Help: "Number of command modules loaded",
			},
		),
	}

	prometheus.MustRegister(
		m.InteractionsTotal,
		m.InteractionDuration,
		m.GatewayLatency,
		m.CogsLoaded,
	)
	return m
}

// ObserveInteraction records one handled command.
func (m *Metrics) ObserveInteraction(command, status string, elapsed time.Duration) {
	m.InteractionsTotal.WithLabelValues(command, status).Inc()
	m.InteractionDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}
