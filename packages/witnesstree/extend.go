package witnesstree

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/generics/walker"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region main branch //////////////////////////////////////////////////////////////////////////////////////////////////

// extendProperMain moves the ledger of the parent leaf to the new leaf and applies the block to it.
func (w *WitnessTree) extendProperMain(block *precomputed.Block, classified *classification) error {
	parentLeaf := w.main.leaves[classified.parent.stateHash()]
	if _, err := parentLeaf.Ledger.ApplyBlock(block); err != nil {
		return errors.Errorf("failed to apply %s: %v: %w", block.StateHash, err, ErrLedgerApplication)
	}

	w.addNode(block, classified.parent, w.main)
	delete(w.main.leaves, parentLeaf.StateHash)
	w.main.leaves[block.StateHash] = &Leaf{StateHash: block.StateHash, Ledger: parentLeaf.Ledger}

	return nil
}

// extendImproperMain adds a new leaf below an inner block of the main branch.
func (w *WitnessTree) extendImproperMain(block *precomputed.Block, classified *classification) error {
	blockLedger, err := w.blockLedger(block, classified.parent)
	if err != nil {
		return err
	}

	w.addNode(block, classified.parent, w.main)
	w.main.leaves[block.StateHash] = &Leaf{StateHash: block.StateHash, Ledger: blockLedger}

	return nil
}

// mergeIntoMain adds the block to the main branch and splices the dangling branches it connects into the main branch.
// The leaf ledgers of the spliced branches are derived from the ledger of the block. It returns the spliced blocks.
func (w *WitnessTree) mergeIntoMain(block *precomputed.Block, classified *classification) (merged []*precomputed.Block, err error) {
	blockLedger, err := w.blockLedger(block, classified.parent)
	if err != nil {
		return nil, err
	}

	leafLedgers, err := w.branchLedgers(classified.childBranches, blockLedger)
	if err != nil {
		return nil, err
	}

	blockNode := w.addNode(block, classified.parent, w.main)
	delete(w.main.leaves, classified.parent.stateHash())

	return w.absorb(w.main, blockNode, classified.childBranches, leafLedgers), nil
}

// blockLedger computes the ledger as of a new block from the ledger of its main branch parent.
func (w *WitnessTree) blockLedger(block *precomputed.Block, parent *node) (blockLedger *ledger.Ledger, err error) {
	if blockLedger, err = w.ledgerAt(parent.stateHash()); err != nil {
		return nil, err
	}

	if _, err = blockLedger.ApplyBlock(block); err != nil {
		return nil, errors.Errorf("failed to apply %s: %v: %w", block.StateHash, err, ErrLedgerApplication)
	}

	return blockLedger, nil
}

// branchLedgers replays the given branches on top of the given ledger and returns the resulting ledger of every leaf.
// Ledgers are cloned at forks only.
func (w *WitnessTree) branchLedgers(branches []*Branch, startLedger *ledger.Ledger) (leafLedgers map[precomputed.StateHash]*ledger.Ledger, err error) {
	leafLedgers = make(map[precomputed.StateHash]*ledger.Ledger)

	stepWalker := walker.New[*ledgerStep](false)
	for i, branch := range branches {
		stepWalker.Push(&ledgerStep{node: w.nodes[branch.base], ledger: forkLedger(startLedger, i, len(branches))})
	}

	for stepWalker.HasNext() {
		step := stepWalker.Next()

		if _, err = step.ledger.ApplyBlock(step.node.block); err != nil {
			return nil, errors.Errorf("failed to apply %s: %v: %w", step.node.stateHash(), err, ErrLedgerApplication)
		}

		if len(step.node.children) == 0 {
			leafLedgers[step.node.stateHash()] = step.ledger
			continue
		}

		for i, child := range step.node.children {
			stepWalker.Push(&ledgerStep{node: w.nodes[child], ledger: forkLedger(step.ledger, i, len(step.node.children))})
		}
	}

	return leafLedgers, nil
}

// ledgerStep is a block whose ledger still has to be computed, together with the ledger as of its parent.
type ledgerStep struct {
	node   *node
	ledger *ledger.Ledger
}

// forkLedger hands the ledger itself to the last of count successors and clones for all others.
func forkLedger(source *ledger.Ledger, index, count int) *ledger.Ledger {
	if index == count-1 {
		return source
	}

	return source.Clone()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region dangling branches ////////////////////////////////////////////////////////////////////////////////////////////

// extendDangling adds the block below its parent in a dangling branch.
func (w *WitnessTree) extendDangling(block *precomputed.Block, classified *classification) {
	branch := classified.parent.branch

	w.addNode(block, classified.parent, branch)
	delete(branch.leaves, classified.parent.stateHash())
	branch.leaves[block.StateHash] = &Leaf{StateHash: block.StateHash}
}

// prependDangling makes the block the new base of the dangling branches it is the parent of. Multiple branches are
// consolidated into one.
func (w *WitnessTree) prependDangling(block *precomputed.Block, classified *classification) {
	target := classified.childBranches[0]
	w.unindexDangling(target)

	blockNode := w.addNode(block, nil, target)
	blockNode.children = append(blockNode.children, target.base)
	target.base = block.StateHash

	w.absorb(target, blockNode, classified.childBranches[1:], nil)
	w.danglingByParent[block.PreviousStateHash] = append(w.danglingByParent[block.PreviousStateHash], target)
}

// mergeDangling adds the block to the dangling branch of its parent and consolidates the dangling branches it is the
// parent of into that branch. The main branch is not touched.
func (w *WitnessTree) mergeDangling(block *precomputed.Block, classified *classification) {
	target := classified.parent.branch

	blockNode := w.addNode(block, classified.parent, target)
	delete(target.leaves, classified.parent.stateHash())
	w.absorb(target, blockNode, classified.childBranches, nil)
}

// startDangling creates a new dangling branch that consists of the block.
func (w *WitnessTree) startDangling(block *precomputed.Block) {
	branch := w.newBranch(block.StateHash)
	w.addNode(block, nil, branch)
	branch.leaves[block.StateHash] = &Leaf{StateHash: block.StateHash}

	w.dangling[branch.id] = branch
	w.danglingByParent[block.PreviousStateHash] = append(w.danglingByParent[block.PreviousStateHash], branch)
}

// absorb attaches the given dangling branches below the given node of the target branch and drops them. Leaves receive
// the ledgers from leafLedgers (nil for dangling targets). It returns the blocks of the absorbed branches.
func (w *WitnessTree) absorb(target *Branch, parent *node, branches []*Branch, leafLedgers map[precomputed.StateHash]*ledger.Ledger) (absorbedBlocks []*precomputed.Block) {
	for _, branch := range branches {
		parent.children = append(parent.children, branch.base)

		for _, absorbed := range w.subtree(w.nodes[branch.base]) {
			absorbed.branch = target
			absorbedBlocks = append(absorbedBlocks, absorbed.block)
		}

		for stateHash := range branch.leaves {
			target.leaves[stateHash] = &Leaf{StateHash: stateHash, Ledger: leafLedgers[stateHash]}
		}
		target.size += branch.size

		w.unindexDangling(branch)
		delete(w.dangling, branch.id)
	}

	return absorbedBlocks
}

// unindexDangling removes the branch from the lookup of dangling branches by the parent of their base.
func (w *WitnessTree) unindexDangling(branch *Branch) {
	parentHash := w.nodes[branch.base].block.PreviousStateHash

	remaining := w.danglingByParent[parentHash][:0:0]
	for _, candidate := range w.danglingByParent[parentHash] {
		if candidate != branch {
			remaining = append(remaining, candidate)
		}
	}

	if len(remaining) == 0 {
		delete(w.danglingByParent, parentHash)
		return
	}
	w.danglingByParent[parentHash] = remaining
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
