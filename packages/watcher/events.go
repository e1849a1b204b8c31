package watcher

import (
	"github.com/iotaledger/hive.go/generics/event"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// Events is a container that acts as a dictionary for the events of the Watcher.
type Events struct {
	// BlockParsed is triggered for every report that was parsed and handed to the block handler.
	BlockParsed *event.Event[*precomputed.Block]

	// ParseFailed is triggered for every report that could not be parsed.
	ParseFailed *event.Event[*ParseFailedEvent]
}

func newEvents() *Events {
	return &Events{
		BlockParsed: event.New[*precomputed.Block](),
		ParseFailed: event.New[*ParseFailedEvent](),
	}
}

// ParseFailedEvent is the payload of the ParseFailed event.
type ParseFailedEvent struct {
	Path  string
	Error error
}
