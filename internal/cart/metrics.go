package cart

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type syncMetrics struct {
	outcomes *prometheus.CounterVec
}

// newSyncMetrics registers sync outcome counters on reg; a nil reg
// yields a nil receiver, which every method tolerates.
func newSyncMetrics(reg *prometheus.Registry) *syncMetrics {
	if reg == nil {
		return nil
	}
	return &syncMetrics{
		outcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "cart_sync_total",
				Help: "Background cart sync attempts by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
	}
}

func (m *syncMetrics) observe(op, outcome string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(op, outcome).Inc()
}
