package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

func (m *Metrics) registerRecoveryMetrics() {
	m.pendingRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "recovery_pending_requests",
		Help: "Number of missing blocks that are being requested.",
	})

	m.registry.MustRegister(m.pendingRequests)

	m.addCollect(m.collectRecoveryMetrics)
}

func (m *Metrics) collectRecoveryMetrics() {
	m.pendingRequests.Set(float64(m.deps.Coordinator.RequestQueueSize()))
}
