package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
)

const testProducer precomputed.PublicKey = "B62qTestProducer"

func TestNewComponents(t *testing.T) {
	components, err := newComponents(newTestConfig(t.TempDir()), store.NewTestStore(t), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer components.Watcher.Shutdown()

	assert.Equal(t, precomputed.MainnetGenesisStateHash, components.Indexer.BestTip().StateHash)
}

func TestNewComponents_MissingGenesisLedger(t *testing.T) {
	config := newTestConfig(t.TempDir())
	config.Set(CfgIndexerGenesisLedger, "/nonexistent/genesis.json")

	_, err := newComponents(config, store.NewTestStore(t), zap.NewNop().Sugar())
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	blocksDir := t.TempDir()
	_, err := precomputed.WriteTestReport(blocksDir, newTestBlock("3NTwo", precomputed.MainnetGenesisStateHash, 2))
	require.NoError(t, err)

	log := zap.NewNop().Sugar()
	components, err := newComponents(newTestConfig(blocksDir), store.NewTestStore(t), log)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	indexerStopped, watcherStopped := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(indexerStopped)
		runIndexer(ctx, components.Indexer, log)
	}()
	go func() {
		defer close(watcherStopped)
		runWatcher(ctx, components.Watcher, log)
	}()

	require.Eventually(t, func() bool {
		return components.Indexer.BestTip().StateHash == "3NTwo"
	}, 5*time.Second, 10*time.Millisecond)

	_, err = precomputed.WriteTestReport(blocksDir, newTestBlock("3NThree", "3NTwo", 3))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return components.Indexer.BestTip().StateHash == "3NThree"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	for _, stopped := range []chan struct{}{indexerStopped, watcherStopped} {
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
	}
	assert.False(t, Failed())

	// blocks that arrive after the indexer stopped are dropped
	Submitter(components.Indexer, log)(newTestBlock("3NFour", "3NThree", 4))
	assert.EqualValues(t, 0, components.Indexer.Stats().Queued())
}

func newTestConfig(blocksDir string) *viper.Viper {
	config := viper.New()
	config.Set(CfgIndexerNetwork, precomputed.MainnetNetwork)
	config.Set(CfgIndexerBlocksDir, blocksDir)
	config.Set(CfgIndexerCanonicalThreshold, 10)
	config.Set(CfgIndexerPruneMemory, 10)
	config.Set(CfgIndexerLedgerCadence, 100)
	config.Set(CfgIndexerQueueSize, 16)
	config.Set(CfgIndexerWatcherWorkers, 2)

	return config
}

func newTestBlock(stateHash, previousStateHash precomputed.StateHash, height uint32) *precomputed.Block {
	return &precomputed.Block{
		StateHash:         stateHash,
		PreviousStateHash: previousStateHash,
		Height:            height,
		GlobalSlot:        height,
		Network:           precomputed.MainnetNetwork,
		Creator:           testProducer,
		CoinbaseReceiver:  testProducer,
		Winner:            testProducer,
		LastVRFOutput:     string(stateHash),
	}
}
