package witnesstree

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidLinkage is returned when a block can not be the child of its parent or the parent of its children.
	ErrInvalidLinkage = errors.New("invalid block linkage")

	// ErrConflictingDuplicate is returned when a known state hash is inserted with a different parent or height.
	ErrConflictingDuplicate = errors.New("state hash already known with different content")

	// ErrLedgerApplication is returned when the ledger of a new main branch leaf can not be computed.
	ErrLedgerApplication = errors.New("failed to compute leaf ledger")
)
