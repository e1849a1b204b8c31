package ledger

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidBlock is returned when a block can not be applied because its content is inconsistent.
	ErrInvalidBlock = errors.New("block can not be applied")

	// ErrBrokenPath is returned when the blocks of a path do not link to each other.
	ErrBrokenPath = errors.New("blocks do not form a path")

	// ErrMalformedGenesisLedger is returned when a genesis ledger file can not be decoded.
	ErrMalformedGenesisLedger = errors.New("malformed genesis ledger")
)
