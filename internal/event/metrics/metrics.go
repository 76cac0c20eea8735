package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts event lifecycle changes.
type Metrics struct {
	EventsCreated   prometheus.Counter
	EventsDeleted   prometheus.Counter
	CascadedRecords *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EventsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_events_created_total",
			Help: "Total number of events created",
		}),
		EventsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_events_deleted_total",
			Help: "Total number of events deleted",
		}),
		CascadedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_event_delete_cascaded_records_total",
			Help: "Rows removed by event deletion cascades",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

// ObserveDeleted records a deletion and the rows it cascaded to.
func (m *Metrics) ObserveDeleted(participants, checkIns int) {
	if m == nil {
		return
	}
	m.EventsDeleted.Inc()
	m.CascadedRecords.WithLabelValues("participants").Add(float64(participants))
	m.CascadedRecords.WithLabelValues("check_ins").Add(float64(checkIns))
}
