package precomputed

import (
	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
)

// region StateHash ////////////////////////////////////////////////////////////////////////////////////////////////////

// StateHash is the base58 encoded protocol state hash that identifies a Block.
type StateHash string

// StateHashFromBase58 validates the given string and returns it as a StateHash.
func StateHashFromBase58(base58String string) (stateHash StateHash, err error) {
	if err = validateBase58(base58String); err != nil {
		return "", errors.Errorf("invalid state hash %q: %w", base58String, err)
	}

	return StateHash(base58String), nil
}

// String returns a human-readable version of the StateHash.
func (s StateHash) String() string {
	return string(s)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region PublicKey ////////////////////////////////////////////////////////////////////////////////////////////////////

// PublicKey is a base58 encoded compressed account public key (B62...).
type PublicKey string

// PublicKeyFromBase58 validates the given string and returns it as a PublicKey.
func PublicKeyFromBase58(base58String string) (publicKey PublicKey, err error) {
	if err = validateBase58(base58String); err != nil {
		return "", errors.Errorf("invalid public key %q: %w", base58String, err)
	}

	return PublicKey(base58String), nil
}

// String returns a human-readable version of the PublicKey.
func (p PublicKey) String() string {
	return string(p)
}

func validateBase58(base58String string) error {
	if base58String == "" {
		return ErrEmptyIdentifier
	}

	if _, err := base58.Decode(base58String); err != nil {
		return errors.Wrap(ErrMalformedIdentifier, err.Error())
	}

	return nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Status ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Status is the outcome the block producer assigned to a command.
type Status uint8

const (
	// Applied marks a command whose full effect is part of the ledger.
	Applied Status = iota

	// Failed marks a command that only charged its fee.
	Failed
)

// StatusFromString parses the status tag used in precomputed blocks.
func StatusFromString(tag string) (status Status, err error) {
	switch tag {
	case "Applied":
		return Applied, nil
	case "Failed":
		return Failed, nil
	default:
		return Failed, errors.Errorf("status %q: %w", tag, ErrUnknownStatus)
	}
}

// String returns a human-readable version of the Status.
func (s Status) String() string {
	if s == Applied {
		return "Applied"
	}

	return "Failed"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region CommandKind //////////////////////////////////////////////////////////////////////////////////////////////////

// CommandKind distinguishes the user command bodies.
type CommandKind uint8

const (
	// Payment moves an amount from the source to the receiver.
	Payment CommandKind = iota

	// StakeDelegation changes the delegate of the delegator.
	StakeDelegation
)

// String returns a human-readable version of the CommandKind.
func (c CommandKind) String() string {
	if c == Payment {
		return "Payment"
	}

	return "StakeDelegation"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region CoinbaseKind /////////////////////////////////////////////////////////////////////////////////////////////////

// CoinbaseKind is the number of coinbase parts a diff part pays out.
type CoinbaseKind uint8

const (
	// CoinbaseZero pays nothing.
	CoinbaseZero CoinbaseKind = iota

	// CoinbaseOne pays the full reward in one part.
	CoinbaseOne

	// CoinbaseTwo splits the reward into two equal parts.
	CoinbaseTwo
)

// String returns a human-readable version of the CoinbaseKind.
func (c CoinbaseKind) String() string {
	switch c {
	case CoinbaseOne:
		return "One"
	case CoinbaseTwo:
		return "Two"
	default:
		return "Zero"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
