package indexer

import (
	"github.com/cockroachdb/errors"

	"github.com/Granola-Team/mina-indexer-sub000/packages/canonicity"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/store"
)

// Snapshot returns the latest published read view.
func (i *Indexer) Snapshot() *Snapshot {
	i.snapshotMutex.RLock()
	defer i.snapshotMutex.RUnlock()

	return i.snapshot
}

// BestTip returns the best tip of the witness tree.
func (i *Indexer) BestTip() *precomputed.Block {
	return i.Snapshot().BestTip
}

// CanonicalRoot returns the youngest canonical block.
func (i *Indexer) CanonicalRoot() *precomputed.Block {
	return i.Snapshot().Root
}

// Stats returns the counters of the Indexer.
func (i *Indexer) Stats() *Stats {
	return i.stats
}

// Store returns the underlying Store.
func (i *Indexer) Store() *store.Store {
	return i.store
}

// Account returns the state of the account as of the given block. An empty state hash refers to the best tip. Main
// branch blocks are answered from the witness tree, older blocks from the canonical account history.
func (i *Indexer) Account(id ledger.AccountID, asOf precomputed.StateHash) (account ledger.Account, exists bool, err error) {
	snapshot := i.Snapshot()
	if asOf == "" {
		asOf = snapshot.BestTip.StateHash
	}

	if snapshot.Contains(asOf) {
		ledgerAt, _, ledgerErr := snapshot.Ledger(asOf)
		if ledgerErr != nil {
			return ledger.Account{}, false, ledgerErr
		}

		account, exists = ledgerAt.Account(id)

		return account, exists, nil
	}

	block, err := i.canonicalBlock(asOf)
	if err != nil {
		return ledger.Account{}, false, err
	}

	return i.store.AccountAt(id, block.Height)
}

// Path returns the canonical chain from the genesis block up to the given canonical or main branch block.
func (i *Indexer) Path(stateHash precomputed.StateHash) (path []*precomputed.Block, err error) {
	snapshot := i.Snapshot()

	var recent []*precomputed.Block
	if snapshot.Contains(stateHash) {
		recent = snapshot.Path(stateHash)
		stateHash = snapshot.Root.StateHash
	}

	block, err := i.canonicalBlock(stateHash)
	if err != nil {
		return nil, err
	}

	genesis, err := i.store.Genesis()
	if err != nil {
		return nil, err
	}

	path = make([]*precomputed.Block, 0, int(block.Height)+len(recent))
	for current := block; ; {
		path = append(path, current)
		if current.StateHash == genesis {
			break
		}

		if current, err = i.store.Block(current.PreviousStateHash); err != nil {
			return nil, errors.Errorf("failed to walk canonical chain: %v: %w", err, ErrInconsistentStore)
		}
	}

	for left, right := 0, len(path)-1; left < right; left, right = left+1, right-1 {
		path[left], path[right] = path[right], path[left]
	}

	if len(recent) > 1 {
		path = append(path, recent[1:]...)
	}

	return path, nil
}

// canonicalBlock returns the stored block if it is canonical.
func (i *Indexer) canonicalBlock(stateHash precomputed.StateHash) (block *precomputed.Block, err error) {
	status, err := i.store.Canonicity(stateHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errors.Errorf("%s: %w", stateHash, ErrUnknownBlock)
		}

		return nil, err
	}
	if status != canonicity.Canonical {
		return nil, errors.Errorf("%s is %s: %w", stateHash, status, ErrUnknownBlock)
	}

	return i.store.Block(stateHash)
}
