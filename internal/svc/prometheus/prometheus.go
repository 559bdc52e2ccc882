package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/trutim/api/internal/instance"
)

type Options struct {
	Labels prometheus.Labels
}

func New(o Options) instance.Prometheus {
	return &Instance{
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "trutim_realtime_sessions",
			Help:        "Current live websocket sessions",
			ConstLabels: o.Labels,
		}, []string{"endpoint"}),
		eventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "trutim_realtime_events_dispatched_total",
			Help:        "Events dispatched to broadcast groups",
			ConstLabels: o.Labels,
		}),
		droppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "trutim_realtime_dropped_sends_total",
			Help:        "Per-destination deliveries dropped due to a dead or saturated peer",
			ConstLabels: o.Labels,
		}),
	}
}

type Instance struct {
	sessions         *prometheus.GaugeVec
	eventsDispatched prometheus.Counter
	droppedSends     prometheus.Counter
}

func (m *Instance) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.sessions,
		m.eventsDispatched,
		m.droppedSends,
	)
}

func (m *Instance) Sessions() *prometheus.GaugeVec {
	return m.sessions
}

func (m *Instance) EventsDispatched() prometheus.Counter {
	return m.eventsDispatched
}

func (m *Instance) DroppedSends() prometheus.Counter {
	return m.droppedSends
}
