package precomputed

import "github.com/cockroachdb/errors"

var (
	// ErrUnknownStatus is returned when a command status is neither Applied nor Failed.
	ErrUnknownStatus = errors.New("unknown command status")

	// ErrUnknownCommand is returned when a user command body is not a payment or a stake delegation.
	ErrUnknownCommand = errors.New("unknown user command")

	// ErrMalformedBlock is returned when a precomputed block lacks a mandatory field.
	ErrMalformedBlock = errors.New("malformed precomputed block")

	// ErrMalformedAmount is returned when a currency amount can not be parsed.
	ErrMalformedAmount = errors.New("malformed currency amount")

	// ErrMalformedFileName is returned when a file name does not follow <network>-<height>-<state_hash>.json.
	ErrMalformedFileName = errors.New("malformed precomputed block file name")

	// ErrEmptyIdentifier is returned when a hash or public key is empty.
	ErrEmptyIdentifier = errors.New("empty identifier")

	// ErrMalformedIdentifier is returned when a hash or public key is not valid base58.
	ErrMalformedIdentifier = errors.New("identifier is not valid base58")
)
