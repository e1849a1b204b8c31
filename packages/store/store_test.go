package store

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Granola-Team/mina-indexer-sub000/packages/canonicity"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

const (
	alice precomputed.PublicKey = "B62qAlice"
	bob   precomputed.PublicKey = "B62qBob"
)

func TestStore_Blocks(t *testing.T) {
	s := NewTestStore(t)

	block := &precomputed.Block{
		StateHash:         "3NB2",
		PreviousStateHash: "3NB1",
		Height:            2,
		Creator:           alice,
		Diffs: []*precomputed.DiffPart{{
			Commands: []*precomputed.UserCommand{{Kind: precomputed.Payment, Status: precomputed.Failed, FeePayer: alice, Receiver: bob, Fee: 10, Amount: 5}},
			Coinbase: &precomputed.Coinbase{Kind: precomputed.CoinbaseOne},
		}},
	}
	fork := &precomputed.Block{StateHash: "3NF2", PreviousStateHash: "3NB1", Height: 2}
	next := &precomputed.Block{StateHash: "3NB3", PreviousStateHash: "3NB2", Height: 3}

	for _, b := range []*precomputed.Block{next, fork, block} {
		require.NoError(t, s.StoreBlock(b))
	}
	require.NoError(t, s.StoreBlock(block))

	stored, err := s.Block("3NB2")
	require.NoError(t, err)
	assert.Equal(t, block, stored)

	has, err := s.HasBlock("3NB3")
	require.NoError(t, err)
	assert.True(t, has)

	_, err = s.Block("3NUnknown")
	assert.ErrorIs(t, err, ErrNotFound)

	atHeight, err := s.BlocksAtHeight(2)
	require.NoError(t, err)
	assert.Equal(t, []precomputed.StateHash{"3NB2", "3NF2"}, atHeight)

	blocks, err := s.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, precomputed.StateHash("3NB2"), blocks[0].StateHash)
	assert.Equal(t, precomputed.StateHash("3NF2"), blocks[1].StateHash)
	assert.Equal(t, precomputed.StateHash("3NB3"), blocks[2].StateHash)
}

func TestStore_Canonicity(t *testing.T) {
	s := NewTestStore(t)

	block := &precomputed.Block{StateHash: "3NB2", Height: 2}
	require.NoError(t, s.SetCanonicity(block.StateHash, canonicity.Recent))

	status, err := s.Canonicity(block.StateHash)
	require.NoError(t, err)
	assert.Equal(t, canonicity.Recent, status)

	require.NoError(t, s.SetCanonical(block))

	status, err = s.Canonicity(block.StateHash)
	require.NoError(t, err)
	assert.Equal(t, canonicity.Canonical, status)

	stateHash, err := s.CanonicalStateHash(2)
	require.NoError(t, err)
	assert.Equal(t, block.StateHash, stateHash)

	_, err = s.CanonicalStateHash(3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Canonicity("3NUnknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AccountAt(t *testing.T) {
	s := NewTestStore(t)

	aliceID, bobID := ledger.MinaAccountID(alice), ledger.MinaAccountID(bob)

	genesis := ledger.NewFromAccounts([]ledger.Account{
		{PublicKey: alice, Token: ledger.DefaultToken, Balance: 100, Delegate: alice},
		{PublicKey: bob, Token: ledger.DefaultToken, Balance: 50, Delegate: bob},
	})
	require.NoError(t, s.StoreSnapshot(ledger.NewSnapshot("3NB1", 1, genesis)))

	for height := uint32(2); height <= 6; height++ {
		require.NoError(t, s.StoreDiff(&ledger.Diff{
			StateHash: precomputed.StateHash("3NB" + strconv.Itoa(int(height))),
			Height:    height,
			Accounts: []ledger.Account{
				{PublicKey: alice, Token: ledger.DefaultToken, Balance: 100 - uint64(height), Nonce: uint64(height - 1), Delegate: alice},
			},
		}))
	}

	account, exists, err := s.AccountAt(aliceID, 1)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, uint64(100), account.Balance)

	account, exists, err = s.AccountAt(aliceID, 4)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, uint64(96), account.Balance)
	assert.Equal(t, uint64(3), account.Nonce)

	account, exists, err = s.AccountAt(aliceID, 100)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, uint64(94), account.Balance)

	account, exists, err = s.AccountAt(bobID, 5)
	require.NoError(t, err)
	require.True(t, exists)
	assert.Equal(t, uint64(50), account.Balance)

	_, exists, err = s.AccountAt(ledger.MinaAccountID("B62qNobody"), 5)
	require.NoError(t, err)
	assert.False(t, exists)

	_, exists, err = s.AccountAt(ledger.NewAccountID(2, alice), 5)
	require.NoError(t, err)
	assert.False(t, exists)

	heights, accounts, err := s.AccountHistory(aliceID)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 4, 5, 6}, heights)
	assert.Len(t, accounts, 5)

	// a later snapshot takes precedence over older changes
	later := genesis.Clone()
	later.Set(ledger.Account{PublicKey: alice, Token: ledger.DefaultToken, Balance: 7, Delegate: alice})
	require.NoError(t, s.StoreSnapshot(ledger.NewSnapshot("3NB8", 8, later)))

	account, _, err = s.AccountAt(aliceID, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), account.Balance)
}

func TestStore_Snapshots(t *testing.T) {
	s := NewTestStore(t)

	_, err := s.LatestSnapshot(10)
	assert.ErrorIs(t, err, ErrNotFound)

	for _, height := range []uint32{1, 300, 600} {
		require.NoError(t, s.StoreSnapshot(ledger.NewSnapshot("3NS", height, ledger.NewFromAccounts([]ledger.Account{
			{PublicKey: alice, Token: ledger.DefaultToken, Balance: uint64(height), Delegate: alice},
		}))))
	}

	snapshot, err := s.LatestSnapshot(599)
	require.NoError(t, err)
	assert.Equal(t, uint32(300), snapshot.Height)
	assert.Equal(t, uint64(300), snapshot.Ledger.Balance(ledger.MinaAccountID(alice)))

	snapshot, err = s.LatestSnapshot(1000)
	require.NoError(t, err)
	assert.Equal(t, uint32(600), snapshot.Height)
}

func TestStore_Meta(t *testing.T) {
	s := NewTestStore(t)

	_, err := s.Root()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetRoot("3NRoot"))
	require.NoError(t, s.SetBestTip("3NTip"))
	require.NoError(t, s.SetGenesis("3NGenesis"))

	root, err := s.Root()
	require.NoError(t, err)
	assert.Equal(t, precomputed.StateHash("3NRoot"), root)

	bestTip, err := s.BestTip()
	require.NoError(t, err)
	assert.Equal(t, precomputed.StateHash("3NTip"), bestTip)

	genesis, err := s.Genesis()
	require.NoError(t, err)
	assert.Equal(t, precomputed.StateHash("3NGenesis"), genesis)
}
