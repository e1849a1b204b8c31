package database

import (
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
)

// memDB keeps every realm of the indexer in a single map. Nothing survives a restart.
type memDB struct {
	store kvstore.KVStore
}

// NewMemDB returns a new in-memory (not persisted) DB object.
func NewMemDB() (DB, error) {
	return &memDB{store: mapdb.NewMapDB()}, nil
}

func (db *memDB) NewStore() kvstore.KVStore {
	return db.store
}

// Close drops the stored records. Realms derived from the store fail with kvstore.ErrStoreClosed afterwards.
func (db *memDB) Close() error {
	return db.store.Close()
}

func (db *memDB) RequiresGC() bool {
	return false
}

func (db *memDB) GC() error {
	return nil
}
