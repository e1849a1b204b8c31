package witnesstree

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/generics/walker"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region WitnessTree //////////////////////////////////////////////////////////////////////////////////////////////////

// WitnessTree is the forest of recently seen blocks. It consists of the main branch, which starts at the canonical root
// and contains the best tip, and of dangling branches whose connection to the main branch is not known (yet).
//
// The WitnessTree is not safe for concurrent use: a single writer owns it.
type WitnessTree struct {
	// Events contains the Events of the WitnessTree.
	Events *Events

	nodes            map[precomputed.StateHash]*node
	main             *Branch
	dangling         map[BranchID]*Branch
	danglingByParent map[precomputed.StateHash][]*Branch
	pruned           map[precomputed.StateHash]uint32
	root             precomputed.StateHash
	bestTip          precomputed.StateHash
	rootLedger       *ledger.Ledger
	nextBranchID     BranchID
	options          *options
}

// New returns a WitnessTree whose main branch consists of the given root block. The root ledger is the ledger as of the
// root block; the tree takes ownership of it.
func New(root *precomputed.Block, rootLedger *ledger.Ledger, opts ...Option) (new *WitnessTree) {
	new = &WitnessTree{
		Events:           newEvents(),
		nodes:            make(map[precomputed.StateHash]*node),
		dangling:         make(map[BranchID]*Branch),
		danglingByParent: make(map[precomputed.StateHash][]*Branch),
		pruned:           make(map[precomputed.StateHash]uint32),
		root:             root.StateHash,
		bestTip:          root.StateHash,
		rootLedger:       rootLedger,
		options:          newOptions(opts...),
	}

	new.main = new.newBranch(root.StateHash)
	new.addNode(root, nil, new.main)
	new.main.leaves[root.StateHash] = &Leaf{StateHash: root.StateHash, Ledger: rootLedger.Clone()}

	return new
}

// Insert classifies the given block and adds it to the tree. Structural errors leave the tree unchanged.
func (w *WitnessTree) Insert(block *precomputed.Block) (result *ExtensionResult, err error) {
	classified, err := w.classify(block)
	if err != nil {
		return nil, err
	}

	result = &ExtensionResult{Case: classified.extensionCase, Block: block}

	switch classified.extensionCase {
	case AlreadyPresent, Bypass:
		return result, nil
	case SimpleProperMain:
		err = w.extendProperMain(block, classified)
	case SimpleImproperMain:
		err = w.extendImproperMain(block, classified)
	case ComplexProperMain, ComplexImproperMain:
		result.Merged, err = w.mergeIntoMain(block, classified)
	case SimpleProperDanglingForward, SimpleImproperDangling:
		w.extendDangling(block, classified)
	case SimpleProperDanglingBackward:
		w.prependDangling(block, classified)
	case ComplexDangling:
		w.mergeDangling(block, classified)
	case NewDangling:
		w.startDangling(block)
	}
	if err != nil {
		return nil, err
	}

	w.options.log.Debugw("block added", "stateHash", block.StateHash, "height", block.Height, "case", result.Case.String())
	w.Events.BlockAdded.Trigger(&BlockAddedEvent{Block: block, Case: result.Case})

	if !result.Case.IsMain() {
		return result, nil
	}

	result.BestTipChanged = w.updateBestTip()
	if result.CanonicityChanged, result.Pruned, err = w.advanceRoot(); err != nil {
		return nil, err
	}

	return result, nil
}

// Root returns the canonical root.
func (w *WitnessTree) Root() *precomputed.Block {
	return w.rootNode().block
}

// BestTip returns the best leaf of the main branch.
func (w *WitnessTree) BestTip() *precomputed.Block {
	return w.nodes[w.bestTip].block
}

// NumDangling returns the number of dangling branches.
func (w *WitnessTree) NumDangling() int {
	return len(w.dangling)
}

// Size returns the number of blocks in the tree.
func (w *WitnessTree) Size() int {
	return len(w.nodes)
}

// RootLedger returns the ledger as of the canonical root. It must not be modified; use Clone to derive from it.
func (w *WitnessTree) RootLedger() *ledger.Ledger {
	return w.rootLedger
}

// BestLedger returns the ledger as of the best tip. It must not be modified; use Clone to derive from it.
func (w *WitnessTree) BestLedger() *ledger.Ledger {
	return w.main.leaves[w.bestTip].Ledger
}

// Ledger returns a copy of the ledger as of the given block of the main branch.
func (w *WitnessTree) Ledger(stateHash precomputed.StateHash) (ledgerAt *ledger.Ledger, exists bool, err error) {
	if !w.IsMain(stateHash) {
		return nil, false, nil
	}

	if ledgerAt, err = w.ledgerAt(stateHash); err != nil {
		return nil, true, err
	}

	return ledgerAt, true, nil
}

// Block returns the block with the given state hash.
func (w *WitnessTree) Block(stateHash precomputed.StateHash) (block *precomputed.Block, exists bool) {
	if blockNode, exists := w.nodes[stateHash]; exists {
		return blockNode.block, true
	}

	return nil, false
}

// Contains returns true if the block with the given state hash is part of the tree.
func (w *WitnessTree) Contains(stateHash precomputed.StateHash) (contains bool) {
	_, contains = w.nodes[stateHash]

	return contains
}

// IsMain returns true if the block with the given state hash is part of the main branch.
func (w *WitnessTree) IsMain(stateHash precomputed.StateHash) bool {
	blockNode, exists := w.nodes[stateHash]

	return exists && blockNode.branch == w.main
}

// Path returns the blocks from the base of the containing branch (the root for the main branch) to the given block.
func (w *WitnessTree) Path(stateHash precomputed.StateHash) (path []*precomputed.Block) {
	for current, exists := w.nodes[stateHash]; exists; current, exists = w.nodes[current.block.PreviousStateHash] {
		path = append(path, current.block)

		if current.stateHash() == current.branch.base {
			break
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

// BestPath returns the blocks from the canonical root to the best tip.
func (w *WitnessTree) BestPath() []*precomputed.Block {
	return w.Path(w.bestTip)
}

// Paths returns one path per leaf of the given branch, ordered by the state hash of the leaf.
func (w *WitnessTree) Paths(branch *Branch) (paths [][]*precomputed.Block) {
	for _, leaf := range branch.Leaves() {
		paths = append(paths, w.Path(leaf.StateHash))
	}

	return paths
}

// MainBranch returns the main branch.
func (w *WitnessTree) MainBranch() *Branch {
	return w.main
}

// DanglingBranches returns the dangling branches in the order of their creation.
func (w *WitnessTree) DanglingBranches() (branches []*Branch) {
	branches = make([]*Branch, 0, len(w.dangling))
	for _, branch := range w.dangling {
		branches = append(branches, branch)
	}
	sort.Slice(branches, func(i, j int) bool {
		return branches[i].id < branches[j].id
	})

	return branches
}

// Blocks returns all blocks of the tree.
func (w *WitnessTree) Blocks() (blocks map[precomputed.StateHash]*precomputed.Block) {
	blocks = make(map[precomputed.StateHash]*precomputed.Block, len(w.nodes))
	for stateHash, blockNode := range w.nodes {
		blocks[stateHash] = blockNode.block
	}

	return blocks
}

// MissingParents returns the parents of all dangling branch bases ordered by height. Fetching them connects the
// dangling branches.
func (w *WitnessTree) MissingParents() (missing []*MissingParent) {
	for _, branch := range w.DanglingBranches() {
		base := w.nodes[branch.base]
		missing = append(missing, &MissingParent{
			StateHash: base.block.PreviousStateHash,
			Height:    base.block.ParentHeight(),
		})
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].Height < missing[j].Height
	})

	return missing
}

// MissingParent identifies a block that is known to exist but that was not seen yet.
type MissingParent struct {
	StateHash precomputed.StateHash
	Height    uint32
}

func (w *WitnessTree) rootNode() *node {
	return w.nodes[w.root]
}

func (w *WitnessTree) newBranch(base precomputed.StateHash) (branch *Branch) {
	w.nextBranchID++

	return newBranch(w.nextBranchID, base)
}

func (w *WitnessTree) addNode(block *precomputed.Block, parent *node, branch *Branch) (added *node) {
	added = &node{block: block, branch: branch}
	w.nodes[block.StateHash] = added
	branch.size++

	if parent != nil {
		parent.children = append(parent.children, block.StateHash)
	}

	return added
}

func (w *WitnessTree) removeNode(removed *node) {
	delete(w.nodes, removed.stateHash())
	delete(removed.branch.leaves, removed.stateHash())
	removed.branch.size--
	w.pruned[removed.stateHash()] = removed.height()
}

// subtree returns the given node and all of its descendants.
func (w *WitnessTree) subtree(start *node) (nodes []*node) {
	nodeWalker := walker.New[*node](false)
	for nodeWalker.Push(start); nodeWalker.HasNext(); {
		current := nodeWalker.Next()
		nodes = append(nodes, current)

		for _, child := range current.children {
			nodeWalker.Push(w.nodes[child])
		}
	}

	return nodes
}

// ledgerAt computes a fresh copy of the ledger as of the given main branch block.
func (w *WitnessTree) ledgerAt(stateHash precomputed.StateHash) (ledgerAt *ledger.Ledger, err error) {
	if leaf, isLeaf := w.main.leaves[stateHash]; isLeaf {
		return leaf.Ledger.Clone(), nil
	}

	path := w.Path(stateHash)
	if len(path) == 0 || path[0].StateHash != w.root {
		return nil, errors.Errorf("%s is not part of the main branch: %w", stateHash, ErrLedgerApplication)
	}

	if ledgerAt, err = ledger.ApplyPath(path[1:], w.rootLedger); err != nil {
		return nil, errors.Errorf("failed to replay path to %s: %v: %w", stateHash, err, ErrLedgerApplication)
	}

	return ledgerAt, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
