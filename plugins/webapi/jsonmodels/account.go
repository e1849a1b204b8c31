package jsonmodels

import (
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// Account represents the JSON model of a ledger.Account.
type Account struct {
	PublicKey string `json:"publicKey"`
	Token     uint64 `json:"token"`
	Balance   string `json:"balance"`
	Nonce     uint64 `json:"nonce"`
	Delegate  string `json:"delegate"`
	AsOf      string `json:"asOf"`
}

// NewAccount returns an Account from the given ledger.Account as of the given block.
func NewAccount(account ledger.Account, asOf precomputed.StateHash) *Account {
	return &Account{
		PublicKey: account.PublicKey.String(),
		Token:     uint64(account.Token),
		Balance:   precomputed.FormatAmount(account.Balance),
		Nonce:     account.Nonce,
		Delegate:  account.Delegate.String(),
		AsOf:      asOf.String(),
	}
}
