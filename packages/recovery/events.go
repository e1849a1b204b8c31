package recovery

import (
	"github.com/iotaledger/hive.go/generics/event"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region Events ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Events is a container that acts as a dictionary for the events of the Coordinator.
type Events struct {
	// RequestSent is triggered whenever the Fetcher is invoked for a Request.
	RequestSent *event.Event[*RequestEvent]

	// RequestFailed is triggered whenever an attempt of a Request fails.
	RequestFailed *event.Event[*RequestFailedEvent]

	// RequestDropped is triggered when a Request exceeded the maximum number of attempts.
	RequestDropped *event.Event[*RequestEvent]

	// BlockRecovered is triggered for every block that was retrieved and handed to the block handler.
	BlockRecovered *event.Event[*precomputed.Block]
}

func newEvents() *Events {
	return &Events{
		RequestSent:    event.New[*RequestEvent](),
		RequestFailed:  event.New[*RequestFailedEvent](),
		RequestDropped: event.New[*RequestEvent](),
		BlockRecovered: event.New[*precomputed.Block](),
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region RequestEvent /////////////////////////////////////////////////////////////////////////////////////////////////

// RequestEvent is the payload of events concerning a Request.
type RequestEvent struct {
	Request Request
	Count   int
}

// RequestFailedEvent is the payload of the RequestFailed event.
type RequestFailedEvent struct {
	Request Request
	Count   int
	Error   error
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
