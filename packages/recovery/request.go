package recovery

import (
	"strconv"

	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// Request identifies a block that should be retrieved by a Fetcher. The StateHash is empty if any block of the height
// is wanted.
type Request struct {
	Network   string
	Height    uint32
	StateHash precomputed.StateHash
}

// NewRequest creates a Request for the given block.
func NewRequest(network string, height uint32, stateHash precomputed.StateHash) Request {
	return Request{Network: network, Height: height, StateHash: stateHash}
}

// FileName returns the name of the report file of the requested block (empty if the state hash is unknown).
func (r Request) FileName() string {
	if r.StateHash == "" {
		return ""
	}

	return precomputed.FileName(r.Network, r.Height, r.StateHash)
}

// String returns a human-readable version of the Request.
func (r Request) String() string {
	return stringify.Struct("Request",
		stringify.StructField("Network", r.Network),
		stringify.StructField("Height", r.Height),
		stringify.StructField("StateHash", r.StateHash),
	)
}

func (r Request) key() string {
	return r.Network + "-" + strconv.FormatUint(uint64(r.Height), 10) + "-" + string(r.StateHash)
}
