package ledger

import (
	"sort"

	"github.com/iotaledger/hive.go/stringify"
)

// maxLayerDepth is the number of frozen layers a Ledger may stack before its layers are flattened.
const maxLayerDepth = 16

// region Ledger ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Ledger maps AccountIDs to Accounts. Clones share all accounts that existed at the time of cloning and only copy what
// they modify, so attaching a Ledger to every leaf of the witness tree stays cheap.
//
// A Ledger is not safe for concurrent mutation. Reading a Ledger that is no longer mutated (i.e. a clone handed to a
// reader) is safe while other clones of the same origin are modified.
type Ledger struct {
	frozen *layer
	delta  map[AccountID]Account
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{delta: make(map[AccountID]Account)}
}

// NewFromAccounts returns a Ledger that contains the given Accounts.
func NewFromAccounts(accounts []Account) (ledger *Ledger) {
	ledger = New()
	for _, account := range accounts {
		ledger.delta[account.ID()] = account
	}

	return ledger
}

// Account returns the Account with the given id.
func (l *Ledger) Account(id AccountID) (account Account, exists bool) {
	if account, exists = l.delta[id]; exists {
		return account, true
	}

	return l.frozen.account(id)
}

// Has returns true if the Ledger contains an Account with the given id.
func (l *Ledger) Has(id AccountID) (has bool) {
	_, has = l.Account(id)

	return has
}

// Balance returns the balance of the given Account (zero if it does not exist).
func (l *Ledger) Balance(id AccountID) uint64 {
	account, _ := l.Account(id)

	return account.Balance
}

// Nonce returns the nonce of the given Account (zero if it does not exist).
func (l *Ledger) Nonce(id AccountID) uint64 {
	account, _ := l.Account(id)

	return account.Nonce
}

// Set stores the given Account.
func (l *Ledger) Set(account Account) {
	l.delta[account.ID()] = account
}

// Clone returns a copy of the Ledger. Modifications of the copy are not visible in the original and vice versa.
func (l *Ledger) Clone() (cloned *Ledger) {
	if len(l.delta) != 0 {
		l.frozen = l.frozen.push(l.delta)
		l.delta = make(map[AccountID]Account)
	}

	return &Ledger{
		frozen: l.frozen,
		delta:  make(map[AccountID]Account),
	}
}

// ForEach iterates over all Accounts of the Ledger in an undefined order until the callback returns false.
func (l *Ledger) ForEach(callback func(account Account) bool) {
	for _, account := range l.flatten() {
		if !callback(account) {
			return
		}
	}
}

// Accounts returns all Accounts of the Ledger ordered by token and public key.
func (l *Ledger) Accounts() (accounts []Account) {
	flattened := l.flatten()

	accounts = make([]Account, 0, len(flattened))
	for _, account := range flattened {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Token != accounts[j].Token {
			return accounts[i].Token < accounts[j].Token
		}

		return accounts[i].PublicKey < accounts[j].PublicKey
	})

	return accounts
}

// Len returns the number of Accounts in the Ledger.
func (l *Ledger) Len() int {
	return len(l.flatten())
}

// Equal returns true if both Ledgers contain the same Accounts.
func (l *Ledger) Equal(other *Ledger) bool {
	own, others := l.flatten(), other.flatten()
	if len(own) != len(others) {
		return false
	}

	for id, account := range own {
		otherAccount, exists := others[id]
		if !exists || !sameAccount(account, otherAccount) {
			return false
		}
	}

	return true
}

// String returns a human-readable version of the Ledger.
func (l *Ledger) String() string {
	structBuilder := stringify.StructBuilder("Ledger")
	for _, account := range l.Accounts() {
		structBuilder.AddField(stringify.StructField(account.ID().String(), account.String()))
	}

	return structBuilder.String()
}

func (l *Ledger) flatten() (accounts map[AccountID]Account) {
	accounts = l.frozen.flatten()
	for id, account := range l.delta {
		accounts[id] = account
	}

	return accounts
}

func sameAccount(a, b Account) bool {
	if a.Timing != nil && b.Timing != nil {
		if *a.Timing != *b.Timing {
			return false
		}
		a.Timing, b.Timing = nil, nil
	}

	return a == b
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region layer ////////////////////////////////////////////////////////////////////////////////////////////////////////

// layer is an immutable set of accounts that shadows the accounts of its parent.
type layer struct {
	parent   *layer
	accounts map[AccountID]Account
	depth    int
}

func (l *layer) push(accounts map[AccountID]Account) (pushed *layer) {
	pushed = &layer{parent: l, accounts: accounts, depth: 1}
	if l != nil {
		pushed.depth = l.depth + 1
	}

	if pushed.depth > maxLayerDepth {
		return &layer{accounts: pushed.flatten(), depth: 1}
	}

	return pushed
}

func (l *layer) account(id AccountID) (account Account, exists bool) {
	for current := l; current != nil; current = current.parent {
		if account, exists = current.accounts[id]; exists {
			return account, true
		}
	}

	return Account{}, false
}

func (l *layer) flatten() (accounts map[AccountID]Account) {
	var layers []*layer
	for current := l; current != nil; current = current.parent {
		layers = append(layers, current)
	}

	accounts = make(map[AccountID]Account)
	for i := len(layers) - 1; i >= 0; i-- {
		for id, account := range layers[i].accounts {
			accounts[id] = account
		}
	}

	return accounts
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
