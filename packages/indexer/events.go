package indexer

import (
	"github.com/iotaledger/hive.go/generics/event"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

// region Events ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Events is a container that acts as a dictionary for the events of the Indexer.
type Events struct {
	// BlockIngested is triggered after a block was inserted into the witness tree and its effects were persisted.
	BlockIngested *event.Event[*witnesstree.ExtensionResult]

	// BlockRejected is triggered when a block could not be inserted.
	BlockRejected *event.Event[*BlockRejectedEvent]

	// MissingParentsUpdated is triggered after every ingested block with the parents of all dangling branches.
	MissingParentsUpdated *event.Event[[]*witnesstree.MissingParent]

	// SnapshotPublished is triggered whenever a new read Snapshot becomes visible.
	SnapshotPublished *event.Event[*Snapshot]
}

func newEvents() *Events {
	return &Events{
		BlockIngested:         event.New[*witnesstree.ExtensionResult](),
		BlockRejected:         event.New[*BlockRejectedEvent](),
		MissingParentsUpdated: event.New[[]*witnesstree.MissingParent](),
		SnapshotPublished:     event.New[*Snapshot](),
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region BlockRejectedEvent ///////////////////////////////////////////////////////////////////////////////////////////

// BlockRejectedEvent is the payload of the BlockRejected event.
type BlockRejectedEvent struct {
	Block *precomputed.Block
	Error error
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
