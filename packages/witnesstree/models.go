package witnesstree

import (
	"sort"
	"strconv"

	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region ExtensionCase ////////////////////////////////////////////////////////////////////////////////////////////////

// ExtensionCase describes how a block relates to the blocks already known to the WitnessTree.
type ExtensionCase uint8

const (
	// AlreadyPresent means the block is known and the tree is unchanged.
	AlreadyPresent ExtensionCase = iota

	// SimpleProperMain extends a leaf of the main branch.
	SimpleProperMain

	// SimpleImproperMain forks off an inner block of the main branch.
	SimpleImproperMain

	// SimpleProperDanglingForward extends a leaf of a dangling branch.
	SimpleProperDanglingForward

	// SimpleProperDanglingBackward becomes the new base of one or more dangling branches.
	SimpleProperDanglingBackward

	// SimpleImproperDangling forks off an inner block of a dangling branch.
	SimpleImproperDangling

	// ComplexProperMain extends a leaf of the main branch and connects it to dangling branches.
	ComplexProperMain

	// ComplexImproperMain forks off an inner block of the main branch and connects it to dangling branches.
	ComplexImproperMain

	// ComplexDangling connects a dangling branch block to other dangling branches.
	ComplexDangling

	// NewDangling starts a new dangling branch.
	NewDangling

	// Bypass means the block is too old for the tree and is only recorded.
	Bypass
)

// IsMain returns true if the case modifies the main branch.
func (e ExtensionCase) IsMain() bool {
	switch e {
	case SimpleProperMain, SimpleImproperMain, ComplexProperMain, ComplexImproperMain:
		return true
	default:
		return false
	}
}

// String returns a human-readable version of the ExtensionCase.
func (e ExtensionCase) String() string {
	switch e {
	case AlreadyPresent:
		return "AlreadyPresent"
	case SimpleProperMain:
		return "SimpleProperMain"
	case SimpleImproperMain:
		return "SimpleImproperMain"
	case SimpleProperDanglingForward:
		return "SimpleProperDanglingForward"
	case SimpleProperDanglingBackward:
		return "SimpleProperDanglingBackward"
	case SimpleImproperDangling:
		return "SimpleImproperDangling"
	case ComplexProperMain:
		return "ComplexProperMain"
	case ComplexImproperMain:
		return "ComplexImproperMain"
	case ComplexDangling:
		return "ComplexDangling"
	case NewDangling:
		return "NewDangling"
	case Bypass:
		return "Bypass"
	default:
		return "ExtensionCase(" + strconv.Itoa(int(e)) + ")"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region ExtensionResult //////////////////////////////////////////////////////////////////////////////////////////////

// ExtensionResult describes the outcome of an insertion.
type ExtensionResult struct {
	// Case contains the classification of the inserted block.
	Case ExtensionCase

	// Block contains the inserted block.
	Block *precomputed.Block

	// Merged contains the blocks of the dangling branches that were spliced into the main branch below the block.
	Merged []*precomputed.Block

	// BestTipChanged is set if the insertion changed the best tip.
	BestTipChanged bool

	// CanonicityChanged is set if the insertion advanced the canonical root.
	CanonicityChanged *CanonicityChangedEvent

	// Pruned contains the dangling branches that were pruned as a consequence of the insertion.
	Pruned []*DanglingBranchPrunedEvent
}

// String returns a human-readable version of the ExtensionResult.
func (e *ExtensionResult) String() string {
	return stringify.Struct("ExtensionResult",
		stringify.StructField("Case", e.Case.String()),
		stringify.StructField("Block", e.Block.StateHash),
		stringify.StructField("BestTipChanged", e.BestTipChanged),
		stringify.StructField("CanonicityChanged", e.CanonicityChanged != nil),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Leaf /////////////////////////////////////////////////////////////////////////////////////////////////////////

// Leaf is the tip of a path. Leaves of the main branch carry the ledger as of their block, leaves of dangling branches
// carry none.
type Leaf struct {
	StateHash precomputed.StateHash
	Ledger    *ledger.Ledger
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Branch ///////////////////////////////////////////////////////////////////////////////////////////////////////

// BranchID identifies a Branch for the lifetime of a WitnessTree.
type BranchID uint64

// Branch is a connected set of blocks that starts at a single base block.
type Branch struct {
	id     BranchID
	base   precomputed.StateHash
	leaves map[precomputed.StateHash]*Leaf
	size   int
}

func newBranch(id BranchID, base precomputed.StateHash) *Branch {
	return &Branch{
		id:     id,
		base:   base,
		leaves: make(map[precomputed.StateHash]*Leaf),
	}
}

// ID returns the identifier of the Branch.
func (b *Branch) ID() BranchID {
	return b.id
}

// Base returns the state hash of the oldest block of the Branch.
func (b *Branch) Base() precomputed.StateHash {
	return b.base
}

// Size returns the number of blocks in the Branch.
func (b *Branch) Size() int {
	return b.size
}

// Leaves returns the leaves of the Branch ordered by state hash.
func (b *Branch) Leaves() (leaves []*Leaf) {
	leaves = make([]*Leaf, 0, len(b.leaves))
	for _, leaf := range b.leaves {
		leaves = append(leaves, leaf)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].StateHash < leaves[j].StateHash
	})

	return leaves
}

// IsLeaf returns true if the given state hash is a leaf of the Branch.
func (b *Branch) IsLeaf(stateHash precomputed.StateHash) (isLeaf bool) {
	_, isLeaf = b.leaves[stateHash]

	return isLeaf
}

// String returns a human-readable version of the Branch.
func (b *Branch) String() string {
	return stringify.Struct("Branch",
		stringify.StructField("ID", uint64(b.id)),
		stringify.StructField("Base", b.base),
		stringify.StructField("Leaves", len(b.leaves)),
		stringify.StructField("Size", b.size),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region node /////////////////////////////////////////////////////////////////////////////////////////////////////////

// node is the arena entry of a block. Relations are stored as state hashes.
type node struct {
	block    *precomputed.Block
	children []precomputed.StateHash
	branch   *Branch
}

func (n *node) stateHash() precomputed.StateHash {
	return n.block.StateHash
}

func (n *node) height() uint32 {
	return n.block.Height
}

func (n *node) removeChild(stateHash precomputed.StateHash) {
	for i, child := range n.children {
		if child == stateHash {
			n.children = append(n.children[:i:i], n.children[i+1:]...)
			return
		}
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
