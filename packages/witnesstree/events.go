package witnesstree

import (
	"github.com/iotaledger/hive.go/generics/event"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region Events ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Events is a container that acts as a dictionary for the existing events of a WitnessTree.
type Events struct {
	// BlockAdded is triggered whenever a block becomes part of the main branch or a dangling branch.
	BlockAdded *event.Event[*BlockAddedEvent]

	// BestTipChanged is triggered whenever the best tip of the main branch changes.
	BestTipChanged *event.Event[*BestTipChangedEvent]

	// CanonicityChanged is triggered whenever the canonical root advances.
	CanonicityChanged *event.Event[*CanonicityChangedEvent]

	// DanglingBranchPruned is triggered whenever a dangling branch falls below the canonical root.
	DanglingBranchPruned *event.Event[*DanglingBranchPrunedEvent]
}

// newEvents returns a new Events object.
func newEvents() (new *Events) {
	return &Events{
		BlockAdded:           event.New[*BlockAddedEvent](),
		BestTipChanged:       event.New[*BestTipChangedEvent](),
		CanonicityChanged:    event.New[*CanonicityChangedEvent](),
		DanglingBranchPruned: event.New[*DanglingBranchPrunedEvent](),
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region BlockAddedEvent //////////////////////////////////////////////////////////////////////////////////////////////

// BlockAddedEvent is a container that acts as a dictionary for the BlockAdded event related parameters.
type BlockAddedEvent struct {
	// Block contains the added block.
	Block *precomputed.Block

	// Case contains the extension case the block was classified as.
	Case ExtensionCase
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region BestTipChangedEvent //////////////////////////////////////////////////////////////////////////////////////////

// BestTipChangedEvent is a container that acts as a dictionary for the BestTipChanged event related parameters.
type BestTipChangedEvent struct {
	// Previous contains the former best tip.
	Previous *precomputed.Block

	// Current contains the new best tip.
	Current *precomputed.Block
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region CanonicityChangedEvent ///////////////////////////////////////////////////////////////////////////////////////

// CanonicityChangedEvent is a container that acts as a dictionary for the CanonicityChanged event related parameters.
type CanonicityChangedEvent struct {
	// Root contains the new canonical root.
	Root *precomputed.Block

	// Canonical contains the blocks that became canonical, ordered by ascending height, with their ledger diffs.
	Canonical []*CanonicalBlock

	// Orphaned contains the blocks that left the tree without becoming canonical.
	Orphaned []*precomputed.Block
}

// CanonicalBlock is a block that became canonical together with the account changes it caused.
type CanonicalBlock struct {
	Block *precomputed.Block
	Diff  *ledger.Diff
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region DanglingBranchPrunedEvent ////////////////////////////////////////////////////////////////////////////////////

// DanglingBranchPrunedEvent is a container that acts as a dictionary for the DanglingBranchPruned event related
// parameters.
type DanglingBranchPrunedEvent struct {
	// Base contains the base block of the pruned branch.
	Base *precomputed.Block

	// Size contains the number of blocks of the pruned branch.
	Size int
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
