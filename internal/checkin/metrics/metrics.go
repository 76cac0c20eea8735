package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger writes.
type Metrics struct {
	CheckInsRecorded   prometheus.Counter
	DuplicatesRejected prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CheckInsRecorded: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_check_ins_recorded_total",
			Help: "Total number of check-ins recorded",
		}),
		DuplicatesRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_check_ins_duplicate_total",
			Help: "Check-ins rejected because the participant was already checked in that day",
		}),
	}
}

func (m *Metrics) IncrementRecorded() {
	if m == nil {
		return
	}
	m.CheckInsRecorded.Inc()
}

func (m *Metrics) IncrementDuplicate() {
	if m == nil {
		return
	}
	m.DuplicatesRejected.Inc()
}
