package database

import (
	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/kvstore"
)

const (
	// DBVersion defines the version of the database schema this version of the indexer supports.
	// Every time there's a breaking change regarding the stored data, this version flag should be adjusted.
	DBVersion = 1
)

var (
	// ErrDBVersionIncompatible is returned when the database has an unexpected version.
	ErrDBVersionIncompatible = errors.New("database version is not compatible. please delete your database folder and restart")

	dbVersionKey = []byte("db_version")
)

// CheckVersion checks whether the database is compatible with the current schema version.
// The version is written if the database does not carry one yet.
func CheckVersion(store kvstore.KVStore) error {
	entry, err := store.Get(dbVersionKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		if err = store.Set(dbVersionKey, []byte{DBVersion}); err != nil {
			return errors.Errorf("failed to set database version: %w", err)
		}

		return nil
	}
	if err != nil {
		return errors.Errorf("failed to retrieve database version: %w", err)
	}

	if len(entry) == 0 || entry[0] != DBVersion {
		return errors.Errorf("%w: supported version: %d, version of database: %v", ErrDBVersionIncompatible, DBVersion, entry)
	}

	return nil
}
