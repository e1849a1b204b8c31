package store

import (
	"encoding/binary"

	"github.com/iotaledger/hive.go/byteutils"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

var (
	rootKey     = []byte("root")
	bestTipKey  = []byte("bestTip")
	genesisKey  = []byte("genesis")
	heightBytes = 4
)

// heightKey encodes heights big endian so that badger iterates them in order.
func heightKey(height uint32) []byte {
	key := make([]byte, heightBytes)
	binary.BigEndian.PutUint32(key, height)

	return key
}

func heightFromKey(key []byte) uint32 {
	return binary.BigEndian.Uint32(key[:heightBytes])
}

// heightIndexKey is height | state hash.
func heightIndexKey(height uint32, stateHash precomputed.StateHash) []byte {
	return byteutils.ConcatBytes(heightKey(height), []byte(stateHash))
}

// accountPrefix is token | public key length | public key.
func accountPrefix(id ledger.AccountID) []byte {
	token := make([]byte, 8)
	binary.BigEndian.PutUint64(token, uint64(id.Token))

	return byteutils.ConcatBytes(token, []byte{byte(len(id.PublicKey))}, []byte(id.PublicKey))
}

// accountHistoryKey is account prefix | height.
func accountHistoryKey(id ledger.AccountID, height uint32) []byte {
	return byteutils.ConcatBytes(accountPrefix(id), heightKey(height))
}
