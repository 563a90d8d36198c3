// Package metrics exposes Prometheus collectors for the coordination core.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "desk"

type Metrics struct {
	Connections prometheus.Gauge
	Sessions    prometheus.Gauge
	Rooms       prometheus.Gauge

	Messages *prometheus.CounterVec
	Errors   *prometheus.CounterVec

	SendDrops     prometheus.Counter
	SweptSessions prometheus.Counter
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Registered signal connections.",
		}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Live desktop sessions, the global one included.",
		}),
		Rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Live chat rooms, the lobby included.",
		}),
		Messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound messages by type.",
		}, []string{"type"}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_sent_total",
			Help:      "Error envelopes sent back to clients by code.",
		}, []string{"code"}),
		SendDrops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_drops_total",
			Help:      "Fan-out sends that failed for a single recipient.",
		}),
		SweptSessions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_swept_total",
			Help:      "Sessions removed for inactivity.",
		}),
	}
}

func (m *Metrics) ObserveMessage(msgType string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(msgType).Inc()
}

func (m *Metrics) ObserveError(code string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveDrop() {
	if m == nil {
		return
	}
	m.SendDrops.Inc()
}

func (m *Metrics) ObserveSwept(n int) {
	if m == nil {
		return
	}
	m.SweptSessions.Add(float64(n))
}

// SetPopulation records the current store sizes.
func (m *Metrics) SetPopulation(connections, sessions, rooms int) {
	if m == nil {
		return
	}
	m.Connections.Set(float64(connections))
	m.Sessions.Set(float64(sessions))
	m.Rooms.Set(float64(rooms))
}
