// Package indexer owns the witness tree and its ledgers. A single writer consumes discovered blocks from a queue,
// inserts them into the tree and persists the consequences; readers query immutable snapshots.
package indexer

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"go.uber.org/atomic"

	"github.com/Granola-Team/mina-indexer-sub000/packages/canonicity"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

// region Indexer //////////////////////////////////////////////////////////////////////////////////////////////////////

// Indexer is the single owner of the witness tree.
type Indexer struct {
	Events *Events

	tree   *witnesstree.WitnessTree
	store  *store.Store
	queue  chan *precomputed.Block
	stats  *Stats
	done   chan struct{}

	snapshot      *Snapshot
	snapshotMutex sync.RWMutex

	options *options
}

// New creates an Indexer on top of the given store. An empty store is initialized with the genesis block and the
// genesis ledger (the ledger before the genesis block); otherwise the state is restored from the stored blocks.
func New(blockStore *store.Store, genesis *precomputed.Block, genesisLedger *ledger.Ledger, opts ...Option) (indexer *Indexer, err error) {
	indexer = &Indexer{
		Events:  newEvents(),
		store:   blockStore,
		stats:   newStats(),
		done:    make(chan struct{}),
		options: newOptions(opts...),
	}
	indexer.queue = make(chan *precomputed.Block, indexer.options.queueSize)

	if _, err = blockStore.Root(); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}

		if err = indexer.initialize(genesis, genesisLedger); err != nil {
			return nil, errors.Errorf("failed to initialize store: %w", err)
		}
	} else if err = indexer.restore(); err != nil {
		return nil, errors.Errorf("failed to restore state: %w", err)
	}

	indexer.publish()

	return indexer, nil
}

// Submit enqueues a block for the writer. It blocks while the queue is full and returns ErrIndexerClosed once Run
// returned.
func (i *Indexer) Submit(block *precomputed.Block) error {
	i.stats.queued.Inc()

	select {
	case i.queue <- block:
		return nil
	case <-i.done:
		i.stats.queued.Dec()
		return ErrIndexerClosed
	}
}

// Run consumes the queue until the context is done or a fatal error occurs. It must be called at most once.
func (i *Indexer) Run(ctx context.Context) error {
	defer close(i.done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case block := <-i.queue:
			i.stats.queued.Dec()

			if err := i.Ingest(block); err != nil {
				return err
			}
		}
	}
}

// Ingest inserts the block and persists its consequences. Only fatal errors are returned: rejected blocks are reported
// through the BlockRejected event. It must only be called by the writer.
func (i *Indexer) Ingest(block *precomputed.Block) (err error) {
	result, err := i.tree.Insert(block)
	if err != nil {
		if errors.Is(err, cerrors.ErrFatal) {
			return err
		}

		i.stats.rejected.Inc()
		i.options.log.Warnf("rejected block %s at height %d: %s", block.StateHash, block.Height, err)
		i.Events.BlockRejected.Trigger(&BlockRejectedEvent{Block: block, Error: err})

		return nil
	}

	if err = i.persist(result); err != nil {
		return errors.Errorf("failed to persist %s: %v: %w", block.StateHash, err, cerrors.ErrFatal)
	}

	if i.persisted(result) {
		i.stats.ingested.Inc()
	}

	i.Events.MissingParentsUpdated.Trigger(i.tree.MissingParents())
	i.publish()
	i.Events.BlockIngested.Trigger(result)

	if result.CanonicityChanged != nil {
		return i.checkMemory()
	}

	return nil
}

// persist writes the block and the canonicity changes of an insertion.
func (i *Indexer) persist(result *witnesstree.ExtensionResult) (err error) {
	switch result.Case {
	case witnesstree.AlreadyPresent:
		return nil
	case witnesstree.Bypass:
		if i.options.doNotIngestOrphanBlocks {
			return nil
		}

		if err = i.store.StoreBlock(result.Block); err != nil {
			return err
		}

		return i.store.SetCanonicity(result.Block.StateHash, canonicity.Orphaned)
	}

	if err = i.store.StoreBlock(result.Block); err != nil {
		return err
	}

	if result.Case.IsMain() {
		if err = i.store.SetCanonicity(result.Block.StateHash, canonicity.Recent); err != nil {
			return err
		}
	}

	if err = i.markMerged(result.Merged); err != nil {
		return err
	}

	if result.BestTipChanged {
		if err = i.store.SetBestTip(i.tree.BestTip().StateHash); err != nil {
			return err
		}
	}

	if result.CanonicityChanged != nil {
		return i.persistCanonicity(result.CanonicityChanged)
	}

	return nil
}

// persisted returns true if the insertion added a block to the store.
func (i *Indexer) persisted(result *witnesstree.ExtensionResult) bool {
	switch result.Case {
	case witnesstree.AlreadyPresent:
		return false
	case witnesstree.Bypass:
		return !i.options.doNotIngestOrphanBlocks
	default:
		return true
	}
}

// persistCanonicity records the new canonical blocks with their account changes, the orphaned blocks and the root.
func (i *Indexer) persistCanonicity(canonicityChanged *witnesstree.CanonicityChangedEvent) (err error) {
	for _, canonicalBlock := range canonicityChanged.Canonical {
		if err = i.store.SetCanonical(canonicalBlock.Block); err != nil {
			return err
		}

		if err = i.store.StoreDiff(canonicalBlock.Diff); err != nil {
			return err
		}
	}

	for _, orphaned := range canonicityChanged.Orphaned {
		if err = i.store.SetCanonicity(orphaned.StateHash, canonicity.Orphaned); err != nil {
			return err
		}
	}

	previousRoot := canonicityChanged.Canonical[0].Block.Height - 1
	if root := canonicityChanged.Root; root.Height/i.options.ledgerCadence > previousRoot/i.options.ledgerCadence {
		if err = i.store.StoreSnapshot(ledger.NewSnapshot(root.StateHash, root.Height, i.tree.RootLedger())); err != nil {
			return err
		}
	}

	return i.store.SetRoot(canonicityChanged.Root.StateHash)
}

// markMerged records the blocks of the dangling branches that were merged into the main branch as recent.
func (i *Indexer) markMerged(merged []*precomputed.Block) (err error) {
	for _, block := range merged {
		if err = i.store.SetCanonicity(block.StateHash, canonicity.Recent); err != nil {
			return err
		}
	}

	return nil
}

// checkMemory stops the indexer if the process exceeds its memory limit after the tree was pruned.
func (i *Indexer) checkMemory() error {
	if i.options.maxMemoryBytes == 0 {
		return nil
	}

	usage, err := i.options.memoryUsage()
	if err != nil {
		i.options.log.Warnf("failed to measure memory usage: %s", err)
		return nil
	}

	if usage > i.options.maxMemoryBytes {
		return errors.Errorf("memory usage of %d bytes exceeds the limit of %d bytes: %w", usage, i.options.maxMemoryBytes, ErrResourceExhausted)
	}

	return nil
}

// publish makes the current state of the tree visible to readers.
func (i *Indexer) publish() {
	snapshot := newSnapshot(i.tree)

	i.snapshotMutex.Lock()
	i.snapshot = snapshot
	i.snapshotMutex.Unlock()

	i.Events.SnapshotPublished.Trigger(snapshot)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Stats ////////////////////////////////////////////////////////////////////////////////////////////////////////

// Stats contains the counters of the Indexer.
type Stats struct {
	queued   *atomic.Int64
	ingested *atomic.Uint64
	rejected *atomic.Uint64
}

func newStats() *Stats {
	return &Stats{
		queued:   atomic.NewInt64(0),
		ingested: atomic.NewUint64(0),
		rejected: atomic.NewUint64(0),
	}
}

// Queued returns the number of blocks waiting for the writer.
func (s *Stats) Queued() int64 {
	return s.queued.Load()
}

// Ingested returns the number of blocks that were added to the witness tree or stored as orphans.
func (s *Stats) Ingested() uint64 {
	return s.ingested.Load()
}

// Rejected returns the number of blocks that could not be inserted.
func (s *Stats) Rejected() uint64 {
	return s.rejected.Load()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
