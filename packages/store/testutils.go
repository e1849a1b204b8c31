package store

import (
	"testing"

	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/stretchr/testify/require"
)

// NewTestStore returns a Store backed by an in-memory KVStore.
func NewTestStore(t *testing.T) *Store {
	s, err := New(mapdb.NewMapDB())
	require.NoError(t, err)

	return s
}
