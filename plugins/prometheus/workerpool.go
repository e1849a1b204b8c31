package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

func (m *Metrics) registerWorkerpoolMetrics() {
	m.workerpools = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "workerpools_load",
			Help: "Info about workerpools load",
		},
		[]string{
			"name",
		},
	)

	m.registry.MustRegister(m.workerpools)

	m.addCollect(m.collectWorkerpoolMetrics)
}

func (m *Metrics) collectWorkerpoolMetrics() {
	name, load := m.deps.Watcher.WorkerPoolStatus()
	m.workerpools.WithLabelValues(
		name,
	).Set(float64(load))
}
