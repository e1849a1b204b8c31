package witnesstree

import (
	"github.com/cockroachdb/errors"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// classification is the result of matching a block against the current forest. It is computed before the tree is
// modified.
type classification struct {
	extensionCase ExtensionCase
	// parent contains the known parent of the block.
	parent *node
	// childBranches contains the dangling branches whose base names the block as its parent.
	childBranches []*Branch
}

// classify determines the ExtensionCase of the given block without modifying the tree.
func (w *WitnessTree) classify(block *precomputed.Block) (result *classification, err error) {
	if existing, exists := w.nodes[block.StateHash]; exists {
		if existing.block.PreviousStateHash != block.PreviousStateHash || existing.height() != block.Height {
			return nil, errors.Errorf("%s is known with parent %s at height %d: %w", block.StateHash, existing.block.PreviousStateHash, existing.height(), ErrConflictingDuplicate)
		}

		return &classification{extensionCase: AlreadyPresent, parent: w.nodes[block.PreviousStateHash]}, nil
	}

	result = &classification{
		parent:        w.nodes[block.PreviousStateHash],
		childBranches: w.danglingByParent[block.StateHash],
	}

	if result.parent != nil && result.parent.height()+1 != block.Height {
		return nil, errors.Errorf("%s at height %d can not follow %s at height %d: %w", block.StateHash, block.Height, result.parent.stateHash(), result.parent.height(), ErrInvalidLinkage)
	}

	for _, childBranch := range result.childBranches {
		if base := w.nodes[childBranch.base]; base.height() != block.Height+1 {
			return nil, errors.Errorf("%s at height %d can not precede %s at height %d: %w", block.StateHash, block.Height, base.stateHash(), base.height(), ErrInvalidLinkage)
		}
	}

	hasChildren := len(result.childBranches) != 0

	switch {
	case result.parent != nil && result.parent.branch == w.main:
		isLeaf := w.main.IsLeaf(result.parent.stateHash())
		switch {
		case hasChildren && isLeaf:
			result.extensionCase = ComplexProperMain
		case hasChildren:
			result.extensionCase = ComplexImproperMain
		case isLeaf:
			result.extensionCase = SimpleProperMain
		default:
			result.extensionCase = SimpleImproperMain
		}
	case result.parent != nil:
		switch {
		case hasChildren:
			result.extensionCase = ComplexDangling
		case result.parent.branch.IsLeaf(result.parent.stateHash()):
			result.extensionCase = SimpleProperDanglingForward
		default:
			result.extensionCase = SimpleImproperDangling
		}
	case w.bypasses(block):
		result.extensionCase = Bypass
	case hasChildren:
		result.extensionCase = SimpleProperDanglingBackward
	default:
		result.extensionCase = NewDangling
	}

	return result, nil
}

// bypasses returns true if a block without a known parent can never become part of the tree.
func (w *WitnessTree) bypasses(block *precomputed.Block) bool {
	if block.Height <= w.rootNode().height() {
		return true
	}

	_, parentPruned := w.pruned[block.PreviousStateHash]

	return parentPruned
}
