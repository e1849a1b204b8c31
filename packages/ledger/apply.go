package ledger

import (
	"github.com/cockroachdb/errors"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

const (
	// CoinbaseReward is the reward of a regular (not supercharged) coinbase.
	CoinbaseReward = 720 * precomputed.NanominaPerMina

	// AccountCreationFee is deducted from the first credit of an account that is not yet part of the Ledger.
	AccountCreationFee = 1 * precomputed.NanominaPerMina

	// GenesisWinnerCredit is credited to the winner of the genesis block, which is exempt from the creation fee.
	GenesisWinnerCredit uint64 = 1000

	// GenesisHeight is the blockchain length of the genesis block.
	GenesisHeight uint32 = 1
)

// ApplyPath applies the given blocks (ordered from the oldest to the youngest) to a copy of the base Ledger. The base
// Ledger is not modified.
func ApplyPath(path []*precomputed.Block, base *Ledger) (ledger *Ledger, err error) {
	for i := 1; i < len(path); i++ {
		if !path[i-1].IsParentOf(path[i]) || path[i].Height != path[i-1].Height+1 {
			return nil, errors.Errorf("%s does not follow %s: %w", path[i].StateHash, path[i-1].StateHash, ErrBrokenPath)
		}
	}

	ledger = base.Clone()
	for _, block := range path {
		if _, err = ledger.ApplyBlock(block); err != nil {
			return nil, err
		}
	}

	return ledger, nil
}

// ApplyBlock applies the user and internal commands of the given block to the Ledger and returns the resulting Diff.
// The block is validated before anything is modified: if an error is returned, the Ledger is unchanged.
//
// Command legality is not re-checked. The status the producer assigned decides which effect a command has.
func (l *Ledger) ApplyBlock(block *precomputed.Block) (diff *Diff, err error) {
	if err = validateBlock(block); err != nil {
		return nil, err
	}

	s := newStaging(l)

	if block.Height == GenesisHeight {
		if winnerID := MinaAccountID(block.Winner); !s.has(winnerID) {
			s.credit(winnerID, GenesisWinnerCredit, false)
		}
	}

	for _, part := range block.Diffs {
		for _, command := range part.Commands {
			s.applyUserCommand(command)
		}

		internalCommands := InternalCommands(block, part)
		applyAll := len(part.InternalCommandStatuses) != len(internalCommands)
		for i, internalCommand := range internalCommands {
			if applyAll || part.InternalCommandStatuses[i] == precomputed.Applied {
				s.credit(MinaAccountID(internalCommand.Receiver), internalCommand.Amount, true)
			}
		}
	}

	return s.commit(block), nil
}

// region InternalCommand //////////////////////////////////////////////////////////////////////////////////////////////

// InternalCommandKind distinguishes the protocol generated commands.
type InternalCommandKind uint8

const (
	// CoinbaseCommand pays (a part of) the coinbase to the coinbase receiver.
	CoinbaseCommand InternalCommandKind = iota

	// FeeTransferViaCoinbase pays a SNARK prover out of the coinbase.
	FeeTransferViaCoinbase

	// FeeTransfer pays transaction fees to SNARK provers or the coinbase receiver.
	FeeTransfer
)

// String returns a human-readable version of the InternalCommandKind.
func (i InternalCommandKind) String() string {
	switch i {
	case CoinbaseCommand:
		return "Coinbase"
	case FeeTransferViaCoinbase:
		return "FeeTransferViaCoinbase"
	default:
		return "FeeTransfer"
	}
}

// InternalCommand is a credit that the protocol derives from a diff part.
type InternalCommand struct {
	Kind     InternalCommandKind   `json:"kind"`
	Receiver precomputed.PublicKey `json:"receiver"`
	Amount   uint64                `json:"amount"`
}

// InternalCommands derives the coinbase and fee transfer credits of a diff part in application order. Credits of zero
// are omitted.
func InternalCommands(block *precomputed.Block, part *precomputed.DiffPart) (internalCommands []*InternalCommand) {
	add := func(kind InternalCommandKind, receiver precomputed.PublicKey, amount uint64) {
		if amount != 0 {
			internalCommands = append(internalCommands, &InternalCommand{Kind: kind, Receiver: receiver, Amount: amount})
		}
	}

	unpaidWorks := make([]*precomputed.CompletedWork, len(part.CompletedWorks))
	copy(unpaidWorks, part.CompletedWorks)

	if part.Coinbase != nil && part.Coinbase.Kind != precomputed.CoinbaseZero {
		shares := coinbaseShares(part.Coinbase.Kind, block.SuperchargeCoinbase)
		for i, share := range shares {
			var feeTransfer *precomputed.FeeTransfer
			if i < len(part.Coinbase.FeeTransfers) {
				feeTransfer = part.Coinbase.FeeTransfers[i]
			}

			if feeTransfer == nil {
				add(CoinbaseCommand, block.CoinbaseReceiver, share)
				continue
			}

			fee := feeTransfer.Fee
			if fee > share {
				fee = share
			}
			add(CoinbaseCommand, block.CoinbaseReceiver, share-fee)
			add(FeeTransferViaCoinbase, feeTransfer.Receiver, fee)
			unpaidWorks = removeWork(unpaidWorks, feeTransfer)
		}
	}

	remainingFees := part.TransactionFees()
	proverFees := make(map[precomputed.PublicKey]uint64)
	var provers []precomputed.PublicKey
	for _, work := range unpaidWorks {
		fee := work.Fee
		if fee > remainingFees {
			fee = remainingFees
		}
		remainingFees -= fee

		if _, exists := proverFees[work.Prover]; !exists {
			provers = append(provers, work.Prover)
		}
		proverFees[work.Prover] += fee
	}

	for _, prover := range provers {
		add(FeeTransfer, prover, proverFees[prover])
	}
	add(FeeTransfer, block.CoinbaseReceiver, remainingFees)

	return internalCommands
}

func coinbaseShares(kind precomputed.CoinbaseKind, supercharged bool) []uint64 {
	reward := CoinbaseReward
	if supercharged {
		reward *= 2
	}

	if kind == precomputed.CoinbaseTwo {
		return []uint64{reward / 2, reward - reward/2}
	}

	return []uint64{reward}
}

// removeWork drops the first completed work that was paid by the given fee transfer.
func removeWork(works []*precomputed.CompletedWork, feeTransfer *precomputed.FeeTransfer) []*precomputed.CompletedWork {
	for i, work := range works {
		if work.Prover == feeTransfer.Receiver && work.Fee == feeTransfer.Fee {
			return append(works[:i:i], works[i+1:]...)
		}
	}

	return works
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region validation ///////////////////////////////////////////////////////////////////////////////////////////////////

func validateBlock(block *precomputed.Block) error {
	if block == nil {
		return errors.Errorf("nil block: %w", ErrInvalidBlock)
	}

	for i, part := range block.Diffs {
		if part == nil {
			return errors.Errorf("%s has an empty diff part %d: %w", block.StateHash, i, ErrInvalidBlock)
		}

		for j, command := range part.Commands {
			if err := validateUserCommand(command); err != nil {
				return errors.Errorf("%s command %d.%d: %w", block.StateHash, i, j, err)
			}
		}

		for _, status := range part.InternalCommandStatuses {
			if status != precomputed.Applied && status != precomputed.Failed {
				return errors.Errorf("%s internal command status %d: %w", block.StateHash, status, precomputed.ErrUnknownStatus)
			}
		}

		if part.Coinbase == nil {
			continue
		}

		if part.Coinbase.Kind > precomputed.CoinbaseTwo || len(part.Coinbase.FeeTransfers) > int(part.Coinbase.Kind) {
			return errors.Errorf("%s has an invalid coinbase in part %d: %w", block.StateHash, i, ErrInvalidBlock)
		}
	}

	return nil
}

func validateUserCommand(command *precomputed.UserCommand) error {
	switch {
	case command == nil:
		return errors.Errorf("nil command: %w", ErrInvalidBlock)
	case command.Status != precomputed.Applied && command.Status != precomputed.Failed:
		return errors.Errorf("status %d: %w", command.Status, precomputed.ErrUnknownStatus)
	case command.Kind != precomputed.Payment && command.Kind != precomputed.StakeDelegation:
		return errors.Errorf("kind %d: %w", command.Kind, precomputed.ErrUnknownCommand)
	case command.FeePayer == "" || command.Source == "" || command.Receiver == "":
		return errors.Errorf("command lacks an account: %w", ErrInvalidBlock)
	default:
		return nil
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region staging //////////////////////////////////////////////////////////////////////////////////////////////////////

// staging collects the account changes of a single block on top of a Ledger.
type staging struct {
	ledger  *Ledger
	changes map[AccountID]Account
	order   []AccountID
}

func newStaging(ledger *Ledger) *staging {
	return &staging{
		ledger:  ledger,
		changes: make(map[AccountID]Account),
	}
}

func (s *staging) account(id AccountID) (account Account, exists bool) {
	if account, exists = s.changes[id]; exists {
		return account, true
	}

	return s.ledger.Account(id)
}

func (s *staging) has(id AccountID) (has bool) {
	_, has = s.account(id)

	return has
}

// accountOrNew returns the Account with the given id or a new empty one with a zero balance.
func (s *staging) accountOrNew(id AccountID) Account {
	if account, exists := s.account(id); exists {
		return account
	}

	return NewAccount(id)
}

func (s *staging) put(account Account) {
	id := account.ID()
	if _, exists := s.changes[id]; !exists {
		s.order = append(s.order, id)
	}
	s.changes[id] = account
}

// credit adds amount to the given account, creating it if necessary. New accounts pay the creation fee out of the
// amount if chargeCreationFee is set.
func (s *staging) credit(id AccountID, amount uint64, chargeCreationFee bool) {
	account, exists := s.account(id)
	if !exists {
		account = NewAccount(id)
		if chargeCreationFee {
			amount = saturatingSub(amount, AccountCreationFee)
		}
	}

	account.Balance = saturatingAdd(account.Balance, amount)
	s.put(account)
}

func (s *staging) debit(id AccountID, amount uint64) {
	account := s.accountOrNew(id)
	account.Balance = saturatingSub(account.Balance, amount)
	s.put(account)
}

func (s *staging) applyUserCommand(command *precomputed.UserCommand) {
	feePayerID := NewAccountID(TokenID(command.FeeToken), command.FeePayer)
	if feePayerID.Token == 0 {
		feePayerID.Token = DefaultToken
	}

	feePayer := s.accountOrNew(feePayerID)
	feePayer.Balance = saturatingSub(feePayer.Balance, command.Fee)
	feePayer.Nonce++
	s.put(feePayer)

	if command.Status != precomputed.Applied {
		return
	}

	switch command.Kind {
	case precomputed.Payment:
		token := TokenID(command.Token)
		if token == 0 {
			token = DefaultToken
		}

		s.debit(NewAccountID(token, command.Source), command.Amount)
		s.credit(NewAccountID(token, command.Receiver), command.Amount, true)
	case precomputed.StakeDelegation:
		delegator := s.accountOrNew(MinaAccountID(command.Source))
		delegator.Delegate = command.Receiver
		s.put(delegator)
	}
}

func (s *staging) commit(block *precomputed.Block) (diff *Diff) {
	diff = &Diff{
		StateHash: block.StateHash,
		Height:    block.Height,
		Accounts:  make([]Account, 0, len(s.order)),
	}

	for _, id := range s.order {
		account := s.changes[id]
		s.ledger.Set(account)
		diff.Accounts = append(diff.Accounts, account)
	}

	return diff
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
