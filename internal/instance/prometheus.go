package instance

import "github.com/prometheus/client_golang/prometheus"

type Prometheus interface {
	Register(r prometheus.Registerer)

	Sessions() *prometheus.GaugeVec
	EventsDispatched() prometheus.Counter
	DroppedSends() prometheus.Counter
}
