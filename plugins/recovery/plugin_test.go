package recovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/iotaledger/hive.go/generics/event"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Granola-Team/mina-indexer-sub000/packages/indexer"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
	indexerplugin "github.com/Granola-Team/mina-indexer-sub000/plugins/indexer"
)

const testProducer precomputed.PublicKey = "B62qTestProducer"

func TestNewCoordinator_Disabled(t *testing.T) {
	coordinator, err := newCoordinator(newTestConfig(t.TempDir()), newTestIndexer(t), zap.NewNop().Sugar())
	require.NoError(t, err)
	assert.Nil(t, coordinator)
}

func TestRequestMissingBlocks(t *testing.T) {
	config := newTestConfig(t.TempDir())
	config.Set(CfgRecoveryBaseURL, "http://127.0.0.1:1")
	config.Set(CfgRecoveryRetryInterval, time.Hour)

	coordinator, err := newCoordinator(config, newTestIndexer(t), zap.NewNop().Sugar())
	require.NoError(t, err)
	require.NotNil(t, coordinator)
	defer coordinator.Shutdown()

	requestMissingBlocks(coordinator, precomputed.MainnetNetwork, []*witnesstree.MissingParent{{StateHash: "3NMissing", Height: 5}})
	assert.Equal(t, 1, coordinator.RequestQueueSize())

	requestMissingBlocks(coordinator, precomputed.MainnetNetwork, nil)
	assert.Equal(t, 0, coordinator.RequestQueueSize())
}

func TestRecoverDanglingParent(t *testing.T) {
	source := t.TempDir()
	_, err := precomputed.WriteTestReport(source, newTestBlock("3NTwo", precomputed.MainnetGenesisStateHash, 2))
	require.NoError(t, err)

	server := httptest.NewServer(http.FileServer(http.Dir(source)))
	defer server.Close()

	config := newTestConfig(t.TempDir())
	config.Set(CfgRecoveryBaseURL, server.URL)
	config.Set(CfgRecoveryRetryInterval, 50*time.Millisecond)
	config.Set(CfgRecoveryTimeout, time.Second)

	log := zap.NewNop().Sugar()
	idx := newTestIndexer(t)
	coordinator, err := newCoordinator(config, idx, log)
	require.NoError(t, err)

	idx.Events.MissingParentsUpdated.Hook(event.NewClosure(func(missing []*witnesstree.MissingParent) {
		requestMissingBlocks(coordinator, precomputed.MainnetNetwork, missing)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	indexerStopped := make(chan error, 1)
	go func() { indexerStopped <- idx.Run(ctx) }()

	coordinatorStopped := make(chan struct{})
	go func() {
		defer close(coordinatorStopped)
		runCoordinator(ctx, coordinator, idx, precomputed.MainnetNetwork, 0)
	}()

	require.NoError(t, idx.Submit(newTestBlock("3NThree", "3NTwo", 3)))

	require.Eventually(t, func() bool {
		return idx.BestTip().StateHash == "3NThree"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, idx.Snapshot().NumDangling)

	cancel()
	require.NoError(t, <-indexerStopped)
	select {
	case <-coordinatorStopped:
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not stop")
	}
	assert.Equal(t, 0, coordinator.RequestQueueSize())
}

func newTestConfig(blocksDir string) *viper.Viper {
	config := viper.New()
	config.Set(indexerplugin.CfgIndexerBlocksDir, blocksDir)
	config.Set(CfgRecoveryMaxRequestCount, 3)

	return config
}

func newTestIndexer(t *testing.T) *indexer.Indexer {
	idx, err := indexer.New(store.NewTestStore(t), precomputed.MainnetGenesisBlock(), ledger.New())
	require.NoError(t, err)

	return idx
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
