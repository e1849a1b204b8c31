package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

func TestMetrics_Collect(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 6, "Genesis")
	tf.CreateBlockAtHeight("D9", "B8", 9)

	idx, err := indexer.New(store.NewTestStore(t), tf.Block("Genesis"), ledger.New(), indexer.WithCanonicalThreshold(2))
	require.NoError(t, err)
	for _, alias := range append(chain, "D9") {
		require.NoError(t, idx.Ingest(tf.Block(alias)))
	}

	metrics := New(Dependencies{
		Node:    viper.New(),
		Log:     zap.NewNop().Sugar(),
		Indexer: idx,
	})
	metrics.Collect()

	assert.EqualValues(t, 6, testutil.ToFloat64(metrics.bestTipHeight))
	assert.EqualValues(t, 4, testutil.ToFloat64(metrics.canonicalRootHeight))
	assert.EqualValues(t, 1, testutil.ToFloat64(metrics.danglingBranches))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, family := range families {
		if metric := family.GetMetric(); len(metric) == 1 && metric[0].GetCounter() != nil {
			values[family.GetName()] = metric[0].GetCounter().GetValue()
		}
	}
	assert.EqualValues(t, 6, values["indexer_blocks_ingested_total"])
	assert.EqualValues(t, 0, values["indexer_blocks_rejected_total"])
}
