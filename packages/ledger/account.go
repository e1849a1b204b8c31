package ledger

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/marshalutil"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region TokenID //////////////////////////////////////////////////////////////////////////////////////////////////////

// TokenID identifies the token an Account holds.
type TokenID uint64

// DefaultToken is the token of MINA itself.
const DefaultToken TokenID = 1

// String returns a human-readable version of the TokenID.
func (t TokenID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region AccountID ////////////////////////////////////////////////////////////////////////////////////////////////////

// AccountID is the key of an Account in a Ledger.
type AccountID struct {
	Token     TokenID
	PublicKey precomputed.PublicKey
}

// NewAccountID returns a new AccountID.
func NewAccountID(token TokenID, publicKey precomputed.PublicKey) AccountID {
	return AccountID{Token: token, PublicKey: publicKey}
}

// MinaAccountID returns the AccountID of the default token account of the given public key.
func MinaAccountID(publicKey precomputed.PublicKey) AccountID {
	return NewAccountID(DefaultToken, publicKey)
}

// String returns a human-readable version of the AccountID.
func (a AccountID) String() string {
	return a.PublicKey.String() + "/" + a.Token.String()
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Timing ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Timing is the vesting schedule of a time-locked genesis account.
type Timing struct {
	InitialMinimumBalance uint64 `json:"initialMinimumBalance"`
	CliffTime             uint64 `json:"cliffTime"`
	CliffAmount           uint64 `json:"cliffAmount"`
	VestingPeriod         uint64 `json:"vestingPeriod"`
	VestingIncrement      uint64 `json:"vestingIncrement"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Account //////////////////////////////////////////////////////////////////////////////////////////////////////

// Account is the state of a (token, public key) pair.
type Account struct {
	PublicKey precomputed.PublicKey `json:"publicKey"`
	Token     TokenID               `json:"token"`
	Balance   uint64                `json:"balance"`
	Nonce     uint64                `json:"nonce"`
	Delegate  precomputed.PublicKey `json:"delegate"`
	Timing    *Timing               `json:"timing,omitempty"`
}

// NewAccount returns an empty Account that delegates to itself.
func NewAccount(id AccountID) Account {
	return Account{
		PublicKey: id.PublicKey,
		Token:     id.Token,
		Delegate:  id.PublicKey,
	}
}

// ID returns the AccountID of the Account.
func (a Account) ID() AccountID {
	return NewAccountID(a.Token, a.PublicKey)
}

// AccountFromBytes unmarshals an Account from a sequence of bytes.
func AccountFromBytes(bytes []byte) (account Account, err error) {
	if account, err = AccountFromMarshalUtil(marshalutil.New(bytes)); err != nil {
		return Account{}, errors.Errorf("failed to parse Account from bytes: %w", err)
	}

	return account, nil
}

// AccountFromMarshalUtil unmarshals an Account using a MarshalUtil (for easier unmarshalling).
func AccountFromMarshalUtil(marshalUtil *marshalutil.MarshalUtil) (account Account, err error) {
	if account.PublicKey, err = readPublicKey(marshalUtil); err != nil {
		return Account{}, errors.Errorf("failed to parse public key: %w", err)
	}

	token, err := marshalUtil.ReadUint64()
	if err != nil {
		return Account{}, errors.Errorf("failed to parse token: %w", err)
	}
	account.Token = TokenID(token)

	if account.Balance, err = marshalUtil.ReadUint64(); err != nil {
		return Account{}, errors.Errorf("failed to parse balance: %w", err)
	}
	if account.Nonce, err = marshalUtil.ReadUint64(); err != nil {
		return Account{}, errors.Errorf("failed to parse nonce: %w", err)
	}
	if account.Delegate, err = readPublicKey(marshalUtil); err != nil {
		return Account{}, errors.Errorf("failed to parse delegate: %w", err)
	}

	timed, err := marshalUtil.ReadBool()
	if err != nil {
		return Account{}, errors.Errorf("failed to parse timing flag: %w", err)
	}
	if !timed {
		return account, nil
	}

	timingValues := make([]uint64, 5)
	for i := range timingValues {
		if timingValues[i], err = marshalUtil.ReadUint64(); err != nil {
			return Account{}, errors.Errorf("failed to parse timing: %w", err)
		}
	}
	account.Timing = &Timing{
		InitialMinimumBalance: timingValues[0],
		CliffTime:             timingValues[1],
		CliffAmount:           timingValues[2],
		VestingPeriod:         timingValues[3],
		VestingIncrement:      timingValues[4],
	}

	return account, nil
}

// Bytes returns a marshaled version of the Account.
func (a Account) Bytes() []byte {
	marshalUtil := marshalutil.New()
	writePublicKey(marshalUtil, a.PublicKey)
	marshalUtil.WriteUint64(uint64(a.Token))
	marshalUtil.WriteUint64(a.Balance)
	marshalUtil.WriteUint64(a.Nonce)
	writePublicKey(marshalUtil, a.Delegate)
	marshalUtil.WriteBool(a.Timing != nil)
	if a.Timing != nil {
		marshalUtil.WriteUint64(a.Timing.InitialMinimumBalance)
		marshalUtil.WriteUint64(a.Timing.CliffTime)
		marshalUtil.WriteUint64(a.Timing.CliffAmount)
		marshalUtil.WriteUint64(a.Timing.VestingPeriod)
		marshalUtil.WriteUint64(a.Timing.VestingIncrement)
	}

	return marshalUtil.Bytes()
}

// String returns a human-readable version of the Account.
func (a Account) String() string {
	return stringify.Struct("Account",
		stringify.StructField("PublicKey", a.PublicKey),
		stringify.StructField("Token", a.Token.String()),
		stringify.StructField("Balance", precomputed.FormatAmount(a.Balance)),
		stringify.StructField("Nonce", a.Nonce),
		stringify.StructField("Delegate", a.Delegate),
	)
}

func writePublicKey(marshalUtil *marshalutil.MarshalUtil, publicKey precomputed.PublicKey) {
	marshalUtil.WriteUint32(uint32(len(publicKey)))
	marshalUtil.WriteBytes([]byte(publicKey))
}

func readPublicKey(marshalUtil *marshalutil.MarshalUtil) (publicKey precomputed.PublicKey, err error) {
	length, err := marshalUtil.ReadUint32()
	if err != nil {
		return "", err
	}

	bytes, err := marshalUtil.ReadBytes(int(length))
	if err != nil {
		return "", err
	}

	return precomputed.PublicKey(bytes), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
