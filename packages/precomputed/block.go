package precomputed

import (
	"strings"

	"github.com/iotaledger/hive.go/stringify"
)

// region Block ////////////////////////////////////////////////////////////////////////////////////////////////////////

// Block is the normalized content of a precomputed block report.
type Block struct {
	StateHash           StateHash   `json:"stateHash"`
	PreviousStateHash   StateHash   `json:"previousStateHash"`
	Height              uint32      `json:"height"`
	GlobalSlot          uint32      `json:"globalSlot"`
	Network             string      `json:"network,omitempty"`
	Creator             PublicKey   `json:"creator"`
	CoinbaseReceiver    PublicKey   `json:"coinbaseReceiver"`
	Winner              PublicKey   `json:"winner"`
	LastVRFOutput       string      `json:"lastVrfOutput,omitempty"`
	SuperchargeCoinbase bool        `json:"superchargeCoinbase,omitempty"`
	Diffs               []*DiffPart `json:"diffs,omitempty"`
}

// ParentHeight returns the height the parent of the Block must have.
func (b *Block) ParentHeight() uint32 {
	if b.Height == 0 {
		return 0
	}

	return b.Height - 1
}

// IsParentOf returns true if the given Block names this Block as its parent.
func (b *Block) IsParentOf(child *Block) bool {
	return child.PreviousStateHash == b.StateHash
}

// Commands returns the user commands of all diff parts in application order.
func (b *Block) Commands() (commands []*UserCommand) {
	for _, part := range b.Diffs {
		commands = append(commands, part.Commands...)
	}

	return commands
}

// FileName returns the canonical file name of the Block's report.
func (b *Block) FileName() string {
	return FileName(b.Network, b.Height, b.StateHash)
}

// String returns a human-readable version of the Block.
func (b *Block) String() string {
	return stringify.Struct("Block",
		stringify.StructField("StateHash", b.StateHash),
		stringify.StructField("PreviousStateHash", b.PreviousStateHash),
		stringify.StructField("Height", b.Height),
		stringify.StructField("GlobalSlot", b.GlobalSlot),
		stringify.StructField("Commands", len(b.Commands())),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region DiffPart /////////////////////////////////////////////////////////////////////////////////////////////////////

// DiffPart is one of the (at most two) parts of a staged ledger diff.
type DiffPart struct {
	Commands                []*UserCommand   `json:"commands,omitempty"`
	Coinbase                *Coinbase        `json:"coinbase,omitempty"`
	CompletedWorks          []*CompletedWork `json:"completedWorks,omitempty"`
	InternalCommandStatuses []Status         `json:"internalCommandStatuses,omitempty"`
}

// TransactionFees returns the sum of the fees of all user commands of the part.
func (d *DiffPart) TransactionFees() (fees uint64) {
	for _, command := range d.Commands {
		fees += command.Fee
	}

	return fees
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region UserCommand //////////////////////////////////////////////////////////////////////////////////////////////////

// UserCommand is a signed command with the status the producer assigned to it.
type UserCommand struct {
	Kind     CommandKind `json:"kind"`
	Status   Status      `json:"status"`
	FeePayer PublicKey   `json:"feePayer"`
	Source   PublicKey   `json:"source"`
	Receiver PublicKey   `json:"receiver"`
	Fee      uint64      `json:"fee"`
	FeeToken uint64      `json:"feeToken"`
	Token    uint64      `json:"token"`
	Amount   uint64      `json:"amount,omitempty"`
	Nonce    uint64      `json:"nonce"`
	Memo     string      `json:"memo,omitempty"`
}

// String returns a human-readable version of the UserCommand.
func (u *UserCommand) String() string {
	return stringify.Struct("UserCommand",
		stringify.StructField("Kind", u.Kind.String()),
		stringify.StructField("Status", u.Status.String()),
		stringify.StructField("FeePayer", u.FeePayer),
		stringify.StructField("Receiver", u.Receiver),
		stringify.StructField("Fee", u.Fee),
		stringify.StructField("Amount", u.Amount),
		stringify.StructField("Nonce", u.Nonce),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Coinbase /////////////////////////////////////////////////////////////////////////////////////////////////////

// Coinbase describes the coinbase of a diff part. FeeTransfers holds one optional entry per coinbase part; a non-nil
// entry moves its fee from the coinbase receiver's share to a SNARK prover.
type Coinbase struct {
	Kind         CoinbaseKind   `json:"kind"`
	FeeTransfers []*FeeTransfer `json:"feeTransfers,omitempty"`
}

// FeeTransfer credits a fee to a receiver.
type FeeTransfer struct {
	Receiver PublicKey `json:"receiver"`
	Fee      uint64    `json:"fee"`
}

// CompletedWork is a SNARK work bundle bought by the block producer.
type CompletedWork struct {
	Prover PublicKey `json:"prover"`
	Fee    uint64    `json:"fee"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Comparator ///////////////////////////////////////////////////////////////////////////////////////////////////

// Comparator orders two blocks of equal standing. It returns a positive number if a is preferred over b.
type Comparator func(a, b *Block) int

// CompareByVRFOutput is the default tie-break: the block with the greater last VRF output wins, followed by the
// greater state hash.
func CompareByVRFOutput(a, b *Block) int {
	if result := strings.Compare(a.LastVRFOutput, b.LastVRFOutput); result != 0 {
		return result
	}

	return strings.Compare(string(a.StateHash), string(b.StateHash))
}

// Prefer returns true if a is preferred over b: it is higher, or equally high and wins the tie-break.
func (c Comparator) Prefer(a, b *Block) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}

	return c(a, b) > 0
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
