package store

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrNotFound is returned when a requested record is not stored.
	ErrNotFound = errors.New("not found")

	// ErrCorruptedRecord is returned when a stored record can not be decoded.
	ErrCorruptedRecord = errors.New("corrupted record")
)
