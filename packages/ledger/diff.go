package ledger

import (
	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// Diff contains the state of every Account a block touched, as it is after the block was applied.
type Diff struct {
	StateHash precomputed.StateHash `json:"stateHash"`
	Height    uint32                `json:"height"`
	Accounts  []Account             `json:"accounts"`
}

// Account returns the state of the given Account after the block, if the block touched it.
func (d *Diff) Account(id AccountID) (account Account, touched bool) {
	for _, account = range d.Accounts {
		if account.ID() == id {
			return account, true
		}
	}

	return Account{}, false
}

// ApplyTo writes the Accounts of the Diff into the given Ledger.
func (d *Diff) ApplyTo(ledger *Ledger) {
	for _, account := range d.Accounts {
		ledger.Set(account)
	}
}

// String returns a human-readable version of the Diff.
func (d *Diff) String() string {
	return stringify.Struct("Diff",
		stringify.StructField("StateHash", d.StateHash),
		stringify.StructField("Height", d.Height),
		stringify.StructField("Accounts", len(d.Accounts)),
	)
}
