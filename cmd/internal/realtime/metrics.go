package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the realtime gateway's Prometheus instruments.
type Metrics struct {
	Connections       prometheus.Gauge
	BroadcastsSent    prometheus.Counter
	BroadcastsDropped prometheus.Counter
	AuthRejects       *prometheus.CounterVec
}

// NewMetrics builds and registers the gateway instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hub",
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Authenticated WebSocket clients currently in the pool.",
		}),
		BroadcastsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hub",
			Subsystem: "ws",
			Name:      "broadcast_frames_total",
			Help:      "Mutation frames enqueued to clients.",
		}),
		BroadcastsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hub",
			Subsystem: "ws",
			Name:      "broadcast_drops_total",
			Help:      "Mutation frames dropped because a client queue was full.",
		}),
		AuthRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hub",
			Subsystem: "ws",
			Name:      "auth_rejects_total",
			Help:      "Socket auth gate rejections by reason.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(m.Connections, m.BroadcastsSent, m.BroadcastsDropped, m.AuthRejects)
	}
	return m
}
