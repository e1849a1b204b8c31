package ledger

import (
	"io"
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type genesisFile struct {
	Ledger struct {
		Accounts []genesisAccount `json:"accounts"`
	} `json:"ledger"`
}

type genesisAccount struct {
	PublicKey string `json:"pk"`
	Balance   string `json:"balance"`
	Nonce     string `json:"nonce"`
	Delegate  string `json:"delegate"`
	Timing    *struct {
		InitialMinimumBalance string `json:"initial_minimum_balance"`
		CliffTime             string `json:"cliff_time"`
		CliffAmount           string `json:"cliff_amount"`
		VestingPeriod         string `json:"vesting_period"`
		VestingIncrement      string `json:"vesting_increment"`
	} `json:"timing"`
}

// LoadGenesisLedgerFile reads the genesis ledger stored at the given path.
func LoadGenesisLedgerFile(path string) (ledger *Ledger, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("failed to open genesis ledger %s: %w", path, err)
	}
	defer file.Close()

	return LoadGenesisLedger(file)
}

// LoadGenesisLedger decodes a genesis ledger ({"ledger":{"accounts":[...]}}) into a Ledger of default token accounts.
// Genesis accounts never pay the account creation fee.
func LoadGenesisLedger(reader io.Reader) (ledger *Ledger, err error) {
	var decoded genesisFile
	if err = json.NewDecoder(reader).Decode(&decoded); err != nil {
		return nil, errors.Errorf("failed to decode genesis ledger (%v): %w", err, ErrMalformedGenesisLedger)
	}

	ledger = New()
	for i, entry := range decoded.Ledger.Accounts {
		account, accountErr := entry.account()
		if accountErr != nil {
			return nil, errors.Errorf("genesis account %d: %w", i, accountErr)
		}

		if ledger.Has(account.ID()) {
			return nil, errors.Errorf("genesis account %s is listed twice: %w", account.PublicKey, ErrMalformedGenesisLedger)
		}
		ledger.Set(account)
	}

	return ledger, nil
}

func (g *genesisAccount) account() (account Account, err error) {
	publicKey, err := precomputed.PublicKeyFromBase58(g.PublicKey)
	if err != nil {
		return Account{}, errors.Errorf("%v: %w", err, ErrMalformedGenesisLedger)
	}
	account = NewAccount(MinaAccountID(publicKey))

	if g.Delegate != "" {
		if account.Delegate, err = precomputed.PublicKeyFromBase58(g.Delegate); err != nil {
			return Account{}, errors.Errorf("%v: %w", err, ErrMalformedGenesisLedger)
		}
	}

	if g.Balance != "" {
		if account.Balance, err = precomputed.ParseAmount(g.Balance); err != nil {
			return Account{}, err
		}
	}

	if g.Nonce != "" {
		if account.Nonce, err = strconv.ParseUint(g.Nonce, 10, 64); err != nil {
			return Account{}, errors.Errorf("nonce %q (%v): %w", g.Nonce, err, ErrMalformedGenesisLedger)
		}
	}

	if g.Timing == nil {
		return account, nil
	}

	account.Timing = new(Timing)
	for _, field := range []struct {
		target *uint64
		value  string
		amount bool
	}{
		{&account.Timing.InitialMinimumBalance, g.Timing.InitialMinimumBalance, true},
		{&account.Timing.CliffTime, g.Timing.CliffTime, false},
		{&account.Timing.CliffAmount, g.Timing.CliffAmount, true},
		{&account.Timing.VestingPeriod, g.Timing.VestingPeriod, false},
		{&account.Timing.VestingIncrement, g.Timing.VestingIncrement, true},
	} {
		if field.value == "" {
			continue
		}

		if field.amount {
			*field.target, err = precomputed.ParseAmount(field.value)
		} else {
			*field.target, err = strconv.ParseUint(field.value, 10, 64)
		}
		if err != nil {
			return Account{}, errors.Errorf("timing of %s (%v): %w", publicKey, err, ErrMalformedGenesisLedger)
		}
	}

	return account, nil
}
