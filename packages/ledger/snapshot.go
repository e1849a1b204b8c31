package ledger

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// Snapshot is a materialized Ledger as of a canonical block.
type Snapshot struct {
	StateHash precomputed.StateHash
	Height    uint32
	Ledger    *Ledger
}

// NewSnapshot creates a new Snapshot from the given details.
func NewSnapshot(stateHash precomputed.StateHash, height uint32, ledger *Ledger) (new *Snapshot) {
	return &Snapshot{
		StateHash: stateHash,
		Height:    height,
		Ledger:    ledger,
	}
}

// SnapshotFromBytes unmarshals a Snapshot from a sequence of bytes.
func SnapshotFromBytes(bytes []byte) (snapshot *Snapshot, err error) {
	marshalUtil := marshalutil.New(bytes)

	stateHashLength, err := marshalUtil.ReadUint32()
	if err != nil {
		return nil, errors.Errorf("failed to parse state hash length: %w", err)
	}
	stateHashBytes, err := marshalUtil.ReadBytes(int(stateHashLength))
	if err != nil {
		return nil, errors.Errorf("failed to parse state hash: %w", err)
	}

	height, err := marshalUtil.ReadUint32()
	if err != nil {
		return nil, errors.Errorf("failed to parse height: %w", err)
	}

	accountCount, err := marshalUtil.ReadUint64()
	if err != nil {
		return nil, errors.Errorf("failed to parse account count: %w", err)
	}

	accounts := make([]Account, 0, accountCount)
	for i := uint64(0); i < accountCount; i++ {
		account, accountErr := AccountFromMarshalUtil(marshalUtil)
		if accountErr != nil {
			return nil, errors.Errorf("failed to parse account %d: %w", i, accountErr)
		}
		accounts = append(accounts, account)
	}

	return NewSnapshot(precomputed.StateHash(stateHashBytes), height, NewFromAccounts(accounts)), nil
}

// Bytes returns a marshaled version of the Snapshot.
func (s *Snapshot) Bytes() []byte {
	accounts := s.Ledger.Accounts()

	marshalUtil := marshalutil.New()
	marshalUtil.WriteUint32(uint32(len(s.StateHash)))
	marshalUtil.WriteBytes([]byte(s.StateHash))
	marshalUtil.WriteUint32(s.Height)
	marshalUtil.WriteUint64(uint64(len(accounts)))
	for _, account := range accounts {
		marshalUtil.WriteBytes(account.Bytes())
	}

	return marshalUtil.Bytes()
}

// String returns a human-readable version of the Snapshot.
func (s *Snapshot) String() (humanReadable string) {
	return stringify.Struct("Snapshot",
		stringify.StructField("StateHash", s.StateHash),
		stringify.StructField("Height", s.Height),
		stringify.StructField("Accounts", s.Ledger.Len()),
	)
}
