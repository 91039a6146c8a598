// Package metrics exposes booth activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/kit-booth/internal/logic"
)

// Metrics groups the booth collectors.
type Metrics struct {
	Events          *prometheus.CounterVec
	Notices         *prometheus.CounterVec
	PollErrors      *prometheus.CounterVec
	PublishFailures prometheus.Counter
	MQTTBuffered    prometheus.Gauge
	EscalationStage prometheus.Gauge
	Booked          prometheus.Gauge
	InBooking       prometheus.Gauge
	InReturning     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitbooth",
			Name:      "events_total",
			Help:      "Tracker events consumed by the coordinator, by type.",
		}, []string{"type"}),
		Notices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitbooth",
			Name:      "notices_total",
			Help:      "Booking outcomes, by kind.",
		}, []string{"kind"}),
		PollErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitbooth",
			Name:      "poll_errors_total",
			Help:      "Failed sensor polls, by source.",
		}, []string{"source"}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kitbooth",
			Name:      "publish_failures_total",
			Help:      "Booking events that could not be published.",
		}),
		MQTTBuffered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kitbooth",
			Name:      "mqtt_buffered_messages",
			Help:      "Messages held while the broker is unreachable.",
		}),
		EscalationStage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kitbooth",
			Name:      "escalation_stage",
			Help:      "Current escalation stage, -1 when none is latched.",
		}),
		Booked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kitbooth",
			Name:      "booked_items",
			Help:      "Items currently checked out.",
		}),
		InBooking: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kitbooth",
			Name:      "in_booking_items",
			Help:      "Items removed and waiting for a card.",
		}),
		InReturning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "kitbooth",
			Name:      "in_returning_items",
			Help:      "Items returned and waiting for confirmation.",
		}),
	}
	m.EscalationStage.Set(-1)

	reg.MustRegister(
		m.Events, m.Notices, m.PollErrors, m.PublishFailures, m.MQTTBuffered,
		m.EscalationStage, m.Booked, m.InBooking, m.InReturning,
	)
	return m
}

// ObserveBatch counts the events of one drained batch.
func (m *Metrics) ObserveBatch(b logic.Batch) {
	if n := len(b.Enters); n > 0 {
		m.Events.WithLabelValues(string(logic.EventEnter)).Add(float64(n))
	}
	if n := len(b.Exits); n > 0 {
		m.Events.WithLabelValues(string(logic.EventExit)).Add(float64(n))
	}
	if b.Card != nil {
		m.Events.WithLabelValues(string(logic.EventCard)).Inc()
	}
}

// ObserveTick records the outcome of one coordinator tick.
func (m *Metrics) ObserveTick(cmds logic.Commands, snap logic.Snapshot) {
	for _, n := range cmds.Notices {
		m.Notices.WithLabelValues(string(n.Kind)).Inc()
	}
	m.Booked.Set(float64(len(snap.Booked)))
	m.InBooking.Set(float64(len(snap.InBooking)))
	m.InReturning.Set(float64(len(snap.InReturning)))
	if snap.Escalation != nil {
		m.EscalationStage.Set(float64(snap.Escalation.Stage))
	} else {
		m.EscalationStage.Set(-1)
	}
}
