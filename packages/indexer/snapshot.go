package indexer

import (
	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

// Snapshot is an immutable view of the witness tree as of one insertion. Readers obtain it from the Indexer and never
// touch the tree itself.
type Snapshot struct {
	Root        *precomputed.Block
	BestTip     *precomputed.Block
	NumDangling int
	Size        int

	rootLedger *ledger.Ledger
	bestLedger *ledger.Ledger
	mainBlocks map[precomputed.StateHash]*precomputed.Block
}

// newSnapshot captures the current state of the tree. It must be called by the writer.
func newSnapshot(tree *witnesstree.WitnessTree) *Snapshot {
	mainBlocks := make(map[precomputed.StateHash]*precomputed.Block)
	for stateHash, block := range tree.Blocks() {
		if tree.IsMain(stateHash) {
			mainBlocks[stateHash] = block
		}
	}

	return &Snapshot{
		Root:        tree.Root(),
		BestTip:     tree.BestTip(),
		NumDangling: tree.NumDangling(),
		Size:        tree.Size(),
		rootLedger:  tree.RootLedger().Clone(),
		bestLedger:  tree.BestLedger().Clone(),
		mainBlocks:  mainBlocks,
	}
}

// Contains returns true if the block is part of the main branch.
func (s *Snapshot) Contains(stateHash precomputed.StateHash) bool {
	_, exists := s.mainBlocks[stateHash]

	return exists
}

// Path returns the blocks from the canonical root to the given main branch block.
func (s *Snapshot) Path(stateHash precomputed.StateHash) (path []*precomputed.Block) {
	for block, exists := s.mainBlocks[stateHash]; exists; block, exists = s.mainBlocks[block.PreviousStateHash] {
		path = append(path, block)

		if block.StateHash == s.Root.StateHash {
			break
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

// Ledger returns the ledger as of the given main branch block. The best tip and root ledgers are returned as they are;
// all others are replayed from the root ledger.
func (s *Snapshot) Ledger(stateHash precomputed.StateHash) (ledgerAt *ledger.Ledger, exists bool, err error) {
	switch stateHash {
	case s.BestTip.StateHash:
		return s.bestLedger, true, nil
	case s.Root.StateHash:
		return s.rootLedger, true, nil
	}

	path := s.Path(stateHash)
	if len(path) == 0 {
		return nil, false, nil
	}

	if ledgerAt, err = ledger.ApplyPath(path[1:], s.rootLedger); err != nil {
		return nil, true, err
	}

	return ledgerAt, true, nil
}

// String returns a human-readable version of the Snapshot.
func (s *Snapshot) String() string {
	return stringify.Struct("Snapshot",
		stringify.StructField("Root", s.Root.StateHash),
		stringify.StructField("BestTip", s.BestTip.StateHash),
		stringify.StructField("NumDangling", s.NumDangling),
		stringify.StructField("Size", s.Size),
	)
}
