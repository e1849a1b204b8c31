package database

import (
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"
	"github.com/iotaledger/hive.go/kvstore"
	badgerstore "github.com/iotaledger/hive.go/kvstore/badger"
)

const (
	valueLogGCDiscardRatio = 0.1

	blockCacheSize = 64 << 20
	indexCacheSize = 32 << 20
)

type badgerDB struct {
	db *badger.DB
}

// NewDB returns a new persisting DB object.
func NewDB(dirname string) (DB, error) {
	db, err := badgerstore.CreateDB(dirname, badgerOptions(dirname))
	if err != nil {
		return nil, errors.Errorf("could not open DB in %s: %w", dirname, err)
	}

	return &badgerDB{db: db}, nil
}

// badgerOptions returns the badger defaults tuned for an append-mostly block archive.
func badgerOptions(dirname string) badger.Options {
	opts := badger.DefaultOptions(dirname)
	opts.Logger = nil
	opts.SyncWrites = false
	opts.NumVersionsToKeep = 1
	opts.TableLoadingMode = options.MemoryMap
	opts.ValueLogLoadingMode = options.MemoryMap
	opts.Compression = options.Snappy
	opts.BlockCacheSize = blockCacheSize
	opts.IndexCacheSize = indexCacheSize
	opts.CompactL0OnClose = true

	if runtime.GOOS == "windows" {
		opts = opts.WithTruncate(true)
	}

	return opts
}

func (db *badgerDB) NewStore() kvstore.KVStore {
	return badgerstore.New(db.db)
}

// Close flushes pending writes and closes the DB.
func (db *badgerDB) Close() error {
	return db.db.Close()
}

func (db *badgerDB) RequiresGC() bool {
	return true
}

func (db *badgerDB) GC() error {
	if err := db.db.RunValueLogGC(valueLogGCDiscardRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return errors.Errorf("value log garbage collection failed: %w", err)
	}

	runtime.GC()

	return nil
}
