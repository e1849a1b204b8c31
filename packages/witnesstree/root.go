package witnesstree

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/cerrors"
	"github.com/iotaledger/hive.go/generics/walker"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// updateBestTip selects the highest leaf of the main branch (ties broken by the comparator).
func (w *WitnessTree) updateBestTip() (changed bool) {
	var best *node
	for stateHash := range w.main.leaves {
		if candidate := w.nodes[stateHash]; best == nil || w.options.comparator.Prefer(candidate.block, best.block) {
			best = candidate
		}
	}

	if best.stateHash() == w.bestTip {
		return false
	}

	previous := w.nodes[w.bestTip]
	w.bestTip = best.stateHash()

	event := &BestTipChangedEvent{Current: best.block}
	if previous != nil {
		event.Previous = previous.block
	}
	w.Events.BestTipChanged.Trigger(event)

	return true
}

// advanceRoot moves the canonical root to the ancestor of the best tip that lies canonicalThreshold blocks below it.
// Blocks between the old and the new root become canonical and are applied to the root ledger, main branch blocks that
// do not descend from the new root are orphaned and dangling branches that can no longer connect are pruned.
func (w *WitnessTree) advanceRoot() (canonicityChanged *CanonicityChangedEvent, pruned []*DanglingBranchPrunedEvent, err error) {
	oldRoot, best := w.rootNode(), w.nodes[w.bestTip]
	if best.height() <= oldRoot.height()+w.options.canonicalThreshold {
		return nil, nil, nil
	}

	newRoot := best
	for newRoot.height() > best.height()-w.options.canonicalThreshold {
		newRoot = w.nodes[newRoot.block.PreviousStateHash]
	}

	canonicalPath := make([]*node, 0, newRoot.height()-oldRoot.height())
	onCanonicalPath := map[precomputed.StateHash]bool{oldRoot.stateHash(): true}
	for current := newRoot; current != oldRoot; current = w.nodes[current.block.PreviousStateHash] {
		canonicalPath = append(canonicalPath, current)
		onCanonicalPath[current.stateHash()] = true
	}

	canonicityChanged = &CanonicityChangedEvent{Root: newRoot.block}
	for i := len(canonicalPath) - 1; i >= 0; i-- {
		diff, applyErr := w.rootLedger.ApplyBlock(canonicalPath[i].block)
		if applyErr != nil {
			return nil, nil, errors.Errorf("failed to advance root ledger to %s (%v): %w", canonicalPath[i].stateHash(), applyErr, cerrors.ErrFatal)
		}

		canonicityChanged.Canonical = append(canonicityChanged.Canonical, &CanonicalBlock{Block: canonicalPath[i].block, Diff: diff})
	}

	nodeWalker := walker.New[*node](false)
	for nodeWalker.Push(oldRoot); nodeWalker.HasNext(); {
		current := nodeWalker.Next()
		if current == newRoot {
			continue
		}

		for _, child := range current.children {
			nodeWalker.Push(w.nodes[child])
		}

		w.removeNode(current)
		if !onCanonicalPath[current.stateHash()] {
			canonicityChanged.Orphaned = append(canonicityChanged.Orphaned, current.block)
		}
	}

	w.root = newRoot.stateHash()
	w.main.base = newRoot.stateHash()

	pruned, orphaned := w.pruneDangling()
	canonicityChanged.Orphaned = append(canonicityChanged.Orphaned, orphaned...)
	sort.SliceStable(canonicityChanged.Orphaned, func(i, j int) bool {
		return canonicityChanged.Orphaned[i].Height < canonicityChanged.Orphaned[j].Height
	})

	w.forgetPruned()

	w.options.log.Infof("canonical root advanced to %s at height %d (%d canonical, %d orphaned)", newRoot.stateHash(), newRoot.height(), len(canonicityChanged.Canonical), len(canonicityChanged.Orphaned))

	for _, prunedEvent := range pruned {
		w.Events.DanglingBranchPruned.Trigger(prunedEvent)
	}
	w.Events.CanonicityChanged.Trigger(canonicityChanged)

	return canonicityChanged, pruned, nil
}

// pruneDangling drops the dangling branches whose base is not above the root, as they can never connect to it.
func (w *WitnessTree) pruneDangling() (pruned []*DanglingBranchPrunedEvent, orphaned []*precomputed.Block) {
	rootHeight := w.rootNode().height()

	for _, branch := range w.DanglingBranches() {
		base := w.nodes[branch.base]
		if base.height() > rootHeight {
			continue
		}

		pruned = append(pruned, &DanglingBranchPrunedEvent{Base: base.block, Size: branch.size})

		w.unindexDangling(branch)
		delete(w.dangling, branch.id)

		for _, prunedNode := range w.subtree(base) {
			w.removeNode(prunedNode)
			orphaned = append(orphaned, prunedNode.block)
		}

		w.options.log.Debugf("pruned dangling branch %s at height %d", base.stateHash(), base.height())
	}

	return pruned, orphaned
}

// forgetPruned drops remembered state hashes that are more than pruneMemory heights below the root.
func (w *WitnessTree) forgetPruned() {
	rootHeight := w.rootNode().height()
	if rootHeight <= w.options.pruneMemory {
		return
	}

	for stateHash, height := range w.pruned {
		if height < rootHeight-w.options.pruneMemory {
			delete(w.pruned, stateHash)
		}
	}
}
