package indexer

import (
	"github.com/cockroachdb/errors"

	"github.com/Granola-Team/mina-indexer-sub000/packages/canonicity"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

// initialize persists the genesis block as the canonical root of an empty store.
func (i *Indexer) initialize(genesis *precomputed.Block, genesisLedger *ledger.Ledger) (err error) {
	rootLedger := genesisLedger.Clone()
	diff, err := rootLedger.ApplyBlock(genesis)
	if err != nil {
		return errors.Errorf("failed to apply genesis block: %w", err)
	}

	if err = i.store.StoreBlock(genesis); err != nil {
		return err
	}
	if err = i.store.SetCanonical(genesis); err != nil {
		return err
	}
	if err = i.store.StoreDiff(diff); err != nil {
		return err
	}
	if err = i.store.StoreSnapshot(ledger.NewSnapshot(genesis.StateHash, genesis.Height, rootLedger)); err != nil {
		return err
	}
	if err = i.store.SetGenesis(genesis.StateHash); err != nil {
		return err
	}
	if err = i.store.SetRoot(genesis.StateHash); err != nil {
		return err
	}
	if err = i.store.SetBestTip(genesis.StateHash); err != nil {
		return err
	}

	i.tree = witnesstree.New(genesis, rootLedger, i.options.treeOptions()...)
	i.options.log.Infof("initialized store with genesis block %s", genesis.StateHash)

	return nil
}

// restore rebuilds the witness tree from the stored blocks. The canonical chain is rediscovered, the root ledger is
// replayed from the latest stored snapshot below the witness root and the remaining blocks are inserted again. Blocks
// that were already recorded as orphaned stay orphaned.
func (i *Indexer) restore() (err error) {
	blocks, err := i.undecidedBlocks()
	if err != nil {
		return err
	}

	discovered := canonicity.Discover(blocks, i.options.canonicalThreshold, canonicity.WithBlockComparator(i.options.comparator))
	if discovered.BestTip == nil {
		return errors.Errorf("store contains no blocks: %w", ErrInconsistentStore)
	}

	canonicalPath, recent := discovered.DeepCanonical, discovered.Recent
	if discovered.WitnessRoot == nil {
		canonicalPath, recent = recent[:1], recent[1:]
	}
	witnessRoot := canonicalPath[len(canonicalPath)-1]

	rootLedger, err := i.replayRootLedger(canonicalPath)
	if err != nil {
		return err
	}

	if err = i.store.SetRoot(witnessRoot.StateHash); err != nil {
		return err
	}

	i.tree = witnesstree.New(witnessRoot, rootLedger, i.options.treeOptions()...)

	for _, block := range recent {
		if err = i.reinsert(block); err != nil {
			return err
		}
	}

	for _, block := range discovered.Orphaned {
		if block.Height <= witnessRoot.Height {
			if err = i.store.SetCanonicity(block.StateHash, canonicity.Orphaned); err != nil {
				return err
			}

			continue
		}

		if err = i.reinsert(block); err != nil {
			return err
		}
	}

	if err = i.store.SetBestTip(i.tree.BestTip().StateHash); err != nil {
		return err
	}

	i.options.log.Infof("restored %d blocks with root %s at height %d and best tip at height %d",
		len(blocks), witnessRoot.StateHash, witnessRoot.Height, i.tree.BestTip().Height)

	return nil
}

// undecidedBlocks returns the stored blocks that are not recorded as orphaned. Bypassed blocks and pruned forks never
// rejoin the tree, so they must not take part in rediscovering the canonical chain.
func (i *Indexer) undecidedBlocks() (blocks []*precomputed.Block, err error) {
	stored, err := i.store.Blocks()
	if err != nil {
		return nil, err
	}

	for _, block := range stored {
		status, statusErr := i.store.Canonicity(block.StateHash)
		if statusErr != nil && !errors.Is(statusErr, store.ErrNotFound) {
			return nil, statusErr
		}
		if statusErr == nil && status == canonicity.Orphaned {
			continue
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// replayRootLedger loads the latest snapshot on the canonical path and applies the canonical blocks above it. The
// replayed blocks are recorded as canonical.
func (i *Indexer) replayRootLedger(canonicalPath []*precomputed.Block) (rootLedger *ledger.Ledger, err error) {
	witnessRoot := canonicalPath[len(canonicalPath)-1]

	snapshot, err := i.store.LatestSnapshot(witnessRoot.Height)
	if err != nil {
		return nil, errors.Errorf("no ledger snapshot below height %d: %v: %w", witnessRoot.Height, err, ErrInconsistentStore)
	}

	snapshotIndex := -1
	for index, block := range canonicalPath {
		if block.StateHash == snapshot.StateHash {
			snapshotIndex = index
			break
		}
	}
	if snapshotIndex == -1 {
		return nil, errors.Errorf("snapshot %s at height %d is not canonical: %w", snapshot.StateHash, snapshot.Height, ErrInconsistentStore)
	}

	rootLedger = snapshot.Ledger
	for _, block := range canonicalPath[snapshotIndex+1:] {
		diff, applyErr := rootLedger.ApplyBlock(block)
		if applyErr != nil {
			return nil, errors.Errorf("failed to replay %s: %v: %w", block.StateHash, applyErr, ErrInconsistentStore)
		}

		if err = i.store.SetCanonical(block); err != nil {
			return nil, err
		}
		if err = i.store.StoreDiff(diff); err != nil {
			return nil, err
		}
	}

	if witnessRoot.Height/i.options.ledgerCadence > snapshot.Height/i.options.ledgerCadence {
		if err = i.store.StoreSnapshot(ledger.NewSnapshot(witnessRoot.StateHash, witnessRoot.Height, rootLedger)); err != nil {
			return nil, err
		}
	}

	return rootLedger, nil
}

// reinsert adds a stored block to the witness tree and persists the outcome like a newly discovered block.
func (i *Indexer) reinsert(block *precomputed.Block) error {
	result, err := i.tree.Insert(block)
	if err != nil {
		i.options.log.Warnf("failed to restore block %s at height %d: %s", block.StateHash, block.Height, err)

		return nil
	}

	return i.persist(result)
}
