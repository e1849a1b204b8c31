package indexer

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/generics/event"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Granola-Team/mina-indexer-sub000/packages/canonicity"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

const mina = precomputed.NanominaPerMina

func TestIndexer_Ingest(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	tf.CreateBlock("B2", "Genesis", tf.Payment(0, 10*mina, mina))
	chain := append([]string{"B2"}, tf.CreateChain("B", 3, 10, "B2")...)

	indexer := newTestIndexer(t, tf, mapdb.NewMapDB(), WithCanonicalThreshold(2), WithLedgerCadence(2))
	ingest(t, indexer, tf, chain...)

	assert.Equal(t, tf.StateHash("B10"), indexer.BestTip().StateHash)
	assert.Equal(t, tf.StateHash("B8"), indexer.CanonicalRoot().StateHash)
	assert.EqualValues(t, 9, indexer.Stats().Ingested())
	assert.EqualValues(t, 0, indexer.Stats().Rejected())

	s := indexer.Store()
	assertStatus(t, s, tf.StateHash("B5"), canonicity.Canonical)
	assertStatus(t, s, tf.StateHash("B8"), canonicity.Canonical)
	assertStatus(t, s, tf.StateHash("B9"), canonicity.Recent)

	canonicalHash, err := s.CanonicalStateHash(7)
	require.NoError(t, err)
	assert.Equal(t, tf.StateHash("B7"), canonicalHash)

	root, err := s.Root()
	require.NoError(t, err)
	assert.Equal(t, tf.StateHash("B8"), root)

	bestTip, err := s.BestTip()
	require.NoError(t, err)
	assert.Equal(t, tf.StateHash("B10"), bestTip)

	snapshot, err := s.LatestSnapshot(10)
	require.NoError(t, err)
	assert.EqualValues(t, 8, snapshot.Height)

	path, err := indexer.Path(tf.StateHash("B10"))
	require.NoError(t, err)
	require.Len(t, path, 10)
	assert.Equal(t, tf.StateHash("Genesis"), path[0].StateHash)
	assert.Equal(t, tf.StateHash("B10"), path[9].StateHash)

	path, err = indexer.Path(tf.StateHash("B4"))
	require.NoError(t, err)
	require.Len(t, path, 4)
}

func TestIndexer_Account(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	tf.CreateBlock("B2", "Genesis", tf.Payment(0, 10*mina, mina))
	chain := append([]string{"B2"}, tf.CreateChain("B", 3, 8, "B2")...)

	indexer := newTestIndexer(t, tf, mapdb.NewMapDB(), WithCanonicalThreshold(2))
	ingest(t, indexer, tf, chain...)

	receiver := ledger.MinaAccountID(witnesstree.TestReceiver)
	sender := ledger.MinaAccountID(witnesstree.TestSender)

	account, exists, err := indexer.Account(receiver, "")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 9*mina, account.Balance)

	// B2 is canonical and answered from the account history
	account, exists, err = indexer.Account(receiver, tf.StateHash("B2"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 9*mina, account.Balance)

	account, exists, err = indexer.Account(sender, tf.StateHash("B7"))
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, witnesstree.TestSenderBalance-11*mina, account.Balance)
	assert.EqualValues(t, 1, account.Nonce)

	_, exists, err = indexer.Account(receiver, tf.StateHash("Genesis"))
	require.NoError(t, err)
	assert.False(t, exists)

	_, _, err = indexer.Account(receiver, "3NUnknown")
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestIndexer_DanglingBranch(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	first := tf.CreateChain("B", 2, 10, "Genesis")
	tf.CreateBlock("B11", "B10")
	second := tf.CreateChain("B", 12, 20, "B11")

	var missing []*witnesstree.MissingParent
	indexer := newTestIndexer(t, tf, mapdb.NewMapDB(), WithCanonicalThreshold(2))
	indexer.Events.MissingParentsUpdated.Hook(event.NewClosure(func(parents []*witnesstree.MissingParent) {
		missing = parents
	}))

	ingest(t, indexer, tf, first...)
	ingest(t, indexer, tf, second...)

	assert.Equal(t, tf.StateHash("B10"), indexer.BestTip().StateHash)
	assert.Equal(t, 1, indexer.Snapshot().NumDangling)
	require.Len(t, missing, 1)
	assert.Equal(t, tf.StateHash("B11"), missing[0].StateHash)
	assert.EqualValues(t, 11, missing[0].Height)

	ingest(t, indexer, tf, "B11")

	assert.Equal(t, tf.StateHash("B20"), indexer.BestTip().StateHash)
	assert.Equal(t, tf.StateHash("B18"), indexer.CanonicalRoot().StateHash)
	assert.Equal(t, 0, indexer.Snapshot().NumDangling)
	assert.Empty(t, missing)
	assertStatus(t, indexer.Store(), tf.StateHash("B15"), canonicity.Canonical)
	assertStatus(t, indexer.Store(), tf.StateHash("B19"), canonicity.Recent)
}

func TestIndexer_Orphans(t *testing.T) {
	for _, doNotIngestOrphanBlocks := range []bool{false, true} {
		tf := witnesstree.NewTestFramework(t)
		chain := tf.CreateChain("B", 2, 7, "Genesis")
		tf.CreateBlock("F5", "B4")
		tf.CreateBlock("F3", "B2")

		indexer := newTestIndexer(t, tf, mapdb.NewMapDB(), WithCanonicalThreshold(2), WithDoNotIngestOrphanBlocks(doNotIngestOrphanBlocks))
		ingest(t, indexer, tf, "B2", "B3", "B4", "B5", "F5")
		ingest(t, indexer, tf, chain[4:]...)

		// F5 was part of the witness tree and is orphaned by the root advancing past it
		assertStatus(t, indexer.Store(), tf.StateHash("F5"), canonicity.Orphaned)

		ingested := indexer.Stats().Ingested()
		ingest(t, indexer, tf, "F3")

		stored, err := indexer.Store().HasBlock(tf.StateHash("F3"))
		require.NoError(t, err)
		assert.Equal(t, !doNotIngestOrphanBlocks, stored)
		if doNotIngestOrphanBlocks {
			assert.Equal(t, ingested, indexer.Stats().Ingested())
		} else {
			assert.Equal(t, ingested+1, indexer.Stats().Ingested())
		}
		if stored {
			assertStatus(t, indexer.Store(), tf.StateHash("F3"), canonicity.Orphaned)
		}
	}
}

func TestIndexer_Rejected(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 4, "Genesis")

	indexer := newTestIndexer(t, tf, mapdb.NewMapDB())

	rejected := make(chan *BlockRejectedEvent, 1)
	indexer.Events.BlockRejected.Attach(event.NewClosure(func(rejectedEvent *BlockRejectedEvent) {
		rejected <- rejectedEvent
	}))

	ingest(t, indexer, tf, chain...)
	conflicting := &precomputed.Block{StateHash: tf.StateHash("B4"), PreviousStateHash: tf.StateHash("B2"), Height: 3}
	require.NoError(t, indexer.Ingest(conflicting))

	assert.EqualValues(t, 1, indexer.Stats().Rejected())
	assert.Equal(t, tf.StateHash("B4"), indexer.BestTip().StateHash)

	select {
	case rejectedEvent := <-rejected:
		assert.True(t, errors.Is(rejectedEvent.Error, witnesstree.ErrConflictingDuplicate))
	case <-time.After(time.Second):
		t.Fatal("BlockRejected was not triggered")
	}
}

func TestIndexer_Restore(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	tf.CreateBlock("B2", "Genesis", tf.Payment(0, 10*mina, mina))
	chain := append([]string{"B2"}, tf.CreateChain("B", 3, 11, "B2")...)
	tf.CreateBlock("F5", "B4")
	tf.CreateBlockAtHeight("D13", "B12", 13)

	kv := mapdb.NewMapDB()
	indexer := newTestIndexer(t, tf, kv, WithCanonicalThreshold(2), WithLedgerCadence(3))
	ingest(t, indexer, tf, chain[:4]...)
	ingest(t, indexer, tf, "F5")
	ingest(t, indexer, tf, chain[4:9]...)
	ingest(t, indexer, tf, "D13")

	require.Equal(t, tf.StateHash("B10"), indexer.BestTip().StateHash)

	restored := newTestIndexer(t, tf, kv, WithCanonicalThreshold(2), WithLedgerCadence(3))

	assert.Equal(t, tf.StateHash("B10"), restored.BestTip().StateHash)
	assert.Equal(t, tf.StateHash("B8"), restored.CanonicalRoot().StateHash)
	assert.Equal(t, 1, restored.Snapshot().NumDangling)
	assert.True(t, restored.Snapshot().rootLedger.Equal(indexer.Snapshot().rootLedger))
	assertStatus(t, restored.Store(), tf.StateHash("F5"), canonicity.Orphaned)

	account, exists, err := restored.Account(ledger.MinaAccountID(witnesstree.TestReceiver), "")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, 9*mina, account.Balance)

	ingest(t, restored, tf, "B11")
	assert.Equal(t, tf.StateHash("B9"), restored.CanonicalRoot().StateHash)
	assertStatus(t, restored.Store(), tf.StateHash("B9"), canonicity.Canonical)
}

func TestIndexer_RestoreBypassedFork(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 5, "Genesis")
	tf.CreateBlock("F3", "B2")
	fork := tf.CreateChain("F", 4, 9, "F3")

	kv := mapdb.NewMapDB()
	indexer := newTestIndexer(t, tf, kv, WithCanonicalThreshold(2))
	ingest(t, indexer, tf, chain...)
	ingest(t, indexer, tf, "F3")
	ingest(t, indexer, tf, fork...)

	require.Equal(t, tf.StateHash("B5"), indexer.BestTip().StateHash)
	require.Equal(t, tf.StateHash("B3"), indexer.CanonicalRoot().StateHash)
	assertStatus(t, indexer.Store(), tf.StateHash("F3"), canonicity.Orphaned)

	restored := newTestIndexer(t, tf, kv, WithCanonicalThreshold(2))

	assert.Equal(t, tf.StateHash("B5"), restored.BestTip().StateHash)
	assert.Equal(t, tf.StateHash("B3"), restored.CanonicalRoot().StateHash)
	assert.Equal(t, 1, restored.Snapshot().NumDangling)
	assertStatus(t, restored.Store(), tf.StateHash("F3"), canonicity.Orphaned)
	assertStatus(t, restored.Store(), tf.StateHash("B3"), canonicity.Canonical)

	canonical, err := restored.Store().CanonicalStateHash(3)
	require.NoError(t, err)
	assert.Equal(t, tf.StateHash("B3"), canonical)
}

func TestIndexer_RestoreShortChain(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 3, "Genesis")

	kv := mapdb.NewMapDB()
	ingest(t, newTestIndexer(t, tf, kv, WithCanonicalThreshold(5)), tf, chain...)

	restored := newTestIndexer(t, tf, kv, WithCanonicalThreshold(5))
	assert.Equal(t, tf.StateHash("Genesis"), restored.CanonicalRoot().StateHash)
	assert.Equal(t, tf.StateHash("B3"), restored.BestTip().StateHash)
}

func TestIndexer_ResourceExhausted(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 5, "Genesis")

	indexer := newTestIndexer(t, tf, mapdb.NewMapDB(),
		WithCanonicalThreshold(2),
		WithMaxMemoryBytes(1),
		WithMemoryUsage(func() (uint64, error) { return 2, nil }),
	)

	for _, alias := range chain {
		require.NoError(t, indexer.Submit(tf.Block(alias)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, indexer.Run(ctx), ErrResourceExhausted)
	assert.Equal(t, tf.StateHash("B4"), indexer.BestTip().StateHash)
	assert.ErrorIs(t, indexer.Submit(tf.Block("B5")), ErrIndexerClosed)
}

func TestIndexer_SubmitAfterStop(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 20, "Genesis")

	indexer := newTestIndexer(t, tf, mapdb.NewMapDB(),
		WithCanonicalThreshold(2),
		WithQueueSize(1),
		WithMaxMemoryBytes(1),
		WithMemoryUsage(func() (uint64, error) { return 2, nil }),
	)

	produced := make(chan error, 1)
	go func() {
		for _, alias := range chain {
			if err := indexer.Submit(tf.Block(alias)); err != nil {
				produced <- err
				return
			}
		}
		produced <- nil
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.ErrorIs(t, indexer.Run(ctx), ErrResourceExhausted)

	select {
	case err := <-produced:
		assert.ErrorIs(t, err, ErrIndexerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Submit blocked after the indexer stopped")
	}
}

func TestIndexer_Run(t *testing.T) {
	tf := witnesstree.NewTestFramework(t)
	chain := tf.CreateChain("B", 2, 6, "Genesis")

	indexer := newTestIndexer(t, tf, mapdb.NewMapDB(), WithCanonicalThreshold(2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- indexer.Run(ctx) }()

	for _, alias := range chain {
		require.NoError(t, indexer.Submit(tf.Block(alias)))
	}

	assert.Eventually(t, func() bool {
		return indexer.BestTip().StateHash == tf.StateHash("B6")
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, tf.StateHash("B4"), indexer.CanonicalRoot().StateHash)

	cancel()
	require.NoError(t, <-done)
}

func newTestIndexer(t *testing.T, tf *witnesstree.TestFramework, kv kvstore.KVStore, opts ...Option) *Indexer {
	genesisLedger := ledger.NewFromAccounts([]ledger.Account{
		{PublicKey: witnesstree.TestSender, Token: ledger.DefaultToken, Balance: witnesstree.TestSenderBalance, Delegate: witnesstree.TestSender},
		{PublicKey: witnesstree.TestProducer, Token: ledger.DefaultToken, Delegate: witnesstree.TestProducer},
	})

	blockStore, err := store.New(kv)
	require.NoError(t, err)

	indexer, err := New(blockStore, tf.Block("Genesis"), genesisLedger, opts...)
	require.NoError(t, err)

	return indexer
}

func ingest(t *testing.T, indexer *Indexer, tf *witnesstree.TestFramework, aliases ...string) {
	for _, alias := range aliases {
		require.NoError(t, indexer.Ingest(tf.Block(alias)), "ingesting %s", alias)
	}
}

func assertStatus(t *testing.T, s *store.Store, stateHash precomputed.StateHash, expected canonicity.Status) {
	status, err := s.Canonicity(stateHash)
	require.NoError(t, err, "canonicity of %s", stateHash)
	assert.Equal(t, expected, status, "canonicity of %s", stateHash)
}
