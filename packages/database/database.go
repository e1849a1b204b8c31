// Package database provides the key-value stores that back the indexer.
package database

import (
	"github.com/iotaledger/hive.go/kvstore"
)

// DB represents a database abstraction.
type DB interface {
	// NewStore creates a new KVStore backed by the database.
	NewStore() kvstore.KVStore
	// Close closes a DB.
	Close() error

	// RequiresGC returns whether the database requires a call of GC() to clean deleted items.
	RequiresGC() bool
	// GC runs the garbage collection to clean deleted database items.
	GC() error
}

// Open opens the persistent database in the given directory, or an in-memory database if inMemory is set.
func Open(directory string, inMemory bool) (DB, error) {
	if inMemory {
		return NewMemDB()
	}

	return NewDB(directory)
}
