package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the presence service.
type Metrics struct {
	EventsCreated prometheus.Counter
	CheckIns      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "presence_events_created_total",
			Help: "Total number of events created",
		}),
		CheckIns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_check_ins_total",
			Help: "Check-in attempts partitioned by outcome",
		}, []string{"result"}),
	}
}

// IncrementEventsCreated increments the events created counter by 1.
func (m *Metrics) IncrementEventsCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

// ObserveCheckIn records one check-in attempt with the given outcome label.
func (m *Metrics) ObserveCheckIn(result string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(result).Inc()
}
