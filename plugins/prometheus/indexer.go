package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

func (m *Metrics) registerIndexerMetrics() {
	m.bestTipHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "indexer_best_tip_height",
		Help: "Blockchain length of the best tip.",
	})

	m.canonicalRootHeight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "indexer_canonical_root_height",
		Help: "Blockchain length of the youngest canonical block.",
	})

	m.danglingBranches = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "indexer_dangling_branches",
		Help: "Number of dangling branches in the witness tree.",
	})

	m.witnessTreeSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "indexer_witness_tree_size",
		Help: "Number of blocks in the witness tree.",
	})

	m.queuedBlocks = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "indexer_queued_blocks",
		Help: "Number of blocks waiting to be ingested.",
	})

	stats := m.deps.Indexer.Stats()

	m.registry.MustRegister(
		m.bestTipHeight,
		m.canonicalRootHeight,
		m.danglingBranches,
		m.witnessTreeSize,
		m.queuedBlocks,
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "indexer_blocks_ingested_total",
			Help: "Number of blocks that were ingested since the start of the indexer.",
		}, func() float64 { return float64(stats.Ingested()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "indexer_blocks_rejected_total",
			Help: "Number of blocks that were rejected since the start of the indexer.",
		}, func() float64 { return float64(stats.Rejected()) }),
	)

	m.addCollect(m.collectIndexerMetrics)
}

func (m *Metrics) collectIndexerMetrics() {
	snapshot := m.deps.Indexer.Snapshot()

	m.bestTipHeight.Set(float64(snapshot.BestTip.Height))
	m.canonicalRootHeight.Set(float64(snapshot.Root.Height))
	m.danglingBranches.Set(float64(snapshot.NumDangling))
	m.witnessTreeSize.Set(float64(snapshot.Size))
	m.queuedBlocks.Set(float64(m.deps.Indexer.Stats().Queued()))
}
