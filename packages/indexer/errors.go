package indexer

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrResourceExhausted is returned when the process exceeds its memory limit. The indexer stops.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrIndexerClosed is returned when a block is submitted after the writer stopped.
	ErrIndexerClosed = errors.New("indexer closed")

	// ErrUnknownBlock is returned by queries for blocks that are neither in the witness tree nor canonical.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrInconsistentStore is returned when the persisted state can not be restored.
	ErrInconsistentStore = errors.New("inconsistent store")
)
