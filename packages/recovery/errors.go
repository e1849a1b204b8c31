package recovery

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrFetchFailed is returned when a Fetcher could not retrieve a block.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrStateHashRequired is returned by fetchers that can only retrieve blocks by state hash.
	ErrStateHashRequired = errors.New("state hash required")

	// ErrBlockNotPlaced is returned when a Fetcher succeeded but the requested block report did not appear.
	ErrBlockNotPlaced = errors.New("block report not placed")
)
