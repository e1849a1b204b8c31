// Package store persists the state the indexer derives from precomputed blocks: the blocks themselves, their
// canonicity, the canonical chain by height, the history of every account and periodic ledger snapshots.
package store

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/kvstore"
	jsoniter "github.com/json-iterator/go"

	"github.com/Granola-Team/mina-indexer-sub000/packages/canonicity"
	"github.com/Granola-Team/mina-indexer-sub000/packages/database"
	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// region Store ////////////////////////////////////////////////////////////////////////////////////////////////////////

// Store is the storage collaborator of the indexer. Every kind of record lives in its own realm of the underlying
// KVStore.
type Store struct {
	blocks           kvstore.KVStore
	heightIndex      kvstore.KVStore
	canonicalHeights kvstore.KVStore
	canonicity       kvstore.KVStore
	accountHistory   kvstore.KVStore
	snapshots        kvstore.KVStore
	meta             kvstore.KVStore
}

// New creates a Store on top of the given KVStore.
func New(store kvstore.KVStore) (*Store, error) {
	s := new(Store)
	for prefix, realm := range map[byte]*kvstore.KVStore{
		database.PrefixBlocks:           &s.blocks,
		database.PrefixHeightIndex:      &s.heightIndex,
		database.PrefixCanonicalHeights: &s.canonicalHeights,
		database.PrefixCanonicity:       &s.canonicity,
		database.PrefixAccountHistory:   &s.accountHistory,
		database.PrefixLedgerSnapshots:  &s.snapshots,
		database.PrefixMeta:             &s.meta,
	} {
		var err error
		if *realm, err = store.WithRealm([]byte{prefix}); err != nil {
			return nil, errors.Errorf("failed to open realm %d: %w", prefix, err)
		}
	}

	return s, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region blocks ///////////////////////////////////////////////////////////////////////////////////////////////////////

// StoreBlock persists the block and indexes it by height. Storing a block twice overwrites the record.
func (s *Store) StoreBlock(block *precomputed.Block) error {
	record, err := json.Marshal(block)
	if err != nil {
		return errors.Errorf("failed to encode block %s: %w", block.StateHash, err)
	}

	if err = s.blocks.Set([]byte(block.StateHash), record); err != nil {
		return errors.Errorf("failed to store block %s: %w", block.StateHash, err)
	}

	if err = s.heightIndex.Set(heightIndexKey(block.Height, block.StateHash), []byte{}); err != nil {
		return errors.Errorf("failed to index block %s: %w", block.StateHash, err)
	}

	return nil
}

// Block retrieves the block with the given state hash.
func (s *Store) Block(stateHash precomputed.StateHash) (block *precomputed.Block, err error) {
	record, err := s.blocks.Get([]byte(stateHash))
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, errors.Errorf("block %s: %w", stateHash, ErrNotFound)
		}

		return nil, errors.Errorf("failed to retrieve block %s: %w", stateHash, err)
	}

	return decodeBlock(record)
}

// HasBlock returns true if a block with the given state hash is stored.
func (s *Store) HasBlock(stateHash precomputed.StateHash) (has bool, err error) {
	if has, err = s.blocks.Has([]byte(stateHash)); err != nil {
		return false, errors.Errorf("failed to look up block %s: %w", stateHash, err)
	}

	return has, nil
}

// BlocksAtHeight returns the state hashes of all stored blocks of the given height.
func (s *Store) BlocksAtHeight(height uint32) (stateHashes []precomputed.StateHash, err error) {
	if err = s.heightIndex.IterateKeys(heightKey(height), func(key kvstore.Key) bool {
		stateHashes = append(stateHashes, precomputed.StateHash(key[heightBytes:]))

		return true
	}); err != nil {
		return nil, errors.Errorf("failed to iterate blocks at height %d: %w", height, err)
	}

	sort.Slice(stateHashes, func(i, j int) bool { return stateHashes[i] < stateHashes[j] })

	return stateHashes, nil
}

// Blocks returns all stored blocks ordered by height.
func (s *Store) Blocks() (blocks []*precomputed.Block, err error) {
	if err = s.ForEachBlock(func(block *precomputed.Block) bool {
		blocks = append(blocks, block)

		return true
	}); err != nil {
		return nil, err
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Height != blocks[j].Height {
			return blocks[i].Height < blocks[j].Height
		}

		return blocks[i].StateHash < blocks[j].StateHash
	})

	return blocks, nil
}

// ForEachBlock calls the callback for every stored block (in no particular order) until it returns false.
func (s *Store) ForEachBlock(callback func(block *precomputed.Block) bool) (err error) {
	var decodeErr error
	if err = s.blocks.Iterate([]byte{}, func(_ kvstore.Key, record kvstore.Value) bool {
		block, blockErr := decodeBlock(record)
		if blockErr != nil {
			decodeErr = blockErr
			return false
		}

		return callback(block)
	}); err != nil {
		return errors.Errorf("failed to iterate blocks: %w", err)
	}

	return decodeErr
}

func decodeBlock(record []byte) (block *precomputed.Block, err error) {
	block = new(precomputed.Block)
	if err = json.Unmarshal(record, block); err != nil {
		return nil, errors.Errorf("failed to decode block record: %v: %w", err, ErrCorruptedRecord)
	}

	return block, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region canonicity ///////////////////////////////////////////////////////////////////////////////////////////////////

// SetCanonicity records the canonicity of the block with the given state hash.
func (s *Store) SetCanonicity(stateHash precomputed.StateHash, status canonicity.Status) error {
	if err := s.canonicity.Set([]byte(stateHash), []byte{byte(status)}); err != nil {
		return errors.Errorf("failed to store canonicity of %s: %w", stateHash, err)
	}

	return nil
}

// Canonicity returns the recorded canonicity of the block with the given state hash.
func (s *Store) Canonicity(stateHash precomputed.StateHash) (status canonicity.Status, err error) {
	value, err := s.canonicity.Get([]byte(stateHash))
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return canonicity.Orphaned, errors.Errorf("canonicity of %s: %w", stateHash, ErrNotFound)
		}

		return canonicity.Orphaned, errors.Errorf("failed to retrieve canonicity of %s: %w", stateHash, err)
	}
	if len(value) != 1 {
		return canonicity.Orphaned, errors.Errorf("canonicity of %s has %d bytes: %w", stateHash, len(value), ErrCorruptedRecord)
	}

	return canonicity.Status(value[0]), nil
}

// SetCanonical marks the block as canonical and makes it the canonical block of its height.
func (s *Store) SetCanonical(block *precomputed.Block) error {
	if err := s.canonicalHeights.Set(heightKey(block.Height), []byte(block.StateHash)); err != nil {
		return errors.Errorf("failed to store canonical block of height %d: %w", block.Height, err)
	}

	return s.SetCanonicity(block.StateHash, canonicity.Canonical)
}

// CanonicalStateHash returns the state hash of the canonical block of the given height.
func (s *Store) CanonicalStateHash(height uint32) (stateHash precomputed.StateHash, err error) {
	value, err := s.canonicalHeights.Get(heightKey(height))
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return "", errors.Errorf("canonical block of height %d: %w", height, ErrNotFound)
		}

		return "", errors.Errorf("failed to retrieve canonical block of height %d: %w", height, err)
	}

	return precomputed.StateHash(value), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region accounts /////////////////////////////////////////////////////////////////////////////////////////////////////

// StoreDiff records the state of every account the block of the Diff touched.
func (s *Store) StoreDiff(diff *ledger.Diff) error {
	for _, account := range diff.Accounts {
		if err := s.accountHistory.Set(accountHistoryKey(account.ID(), diff.Height), account.Bytes()); err != nil {
			return errors.Errorf("failed to store account %s at height %d: %w", account.ID(), diff.Height, err)
		}
	}

	return nil
}

// AccountAt returns the state of the account as of the canonical block of the given height. It combines the latest
// snapshot and the latest recorded change at or below that height.
func (s *Store) AccountAt(id ledger.AccountID, height uint32) (account ledger.Account, exists bool, err error) {
	snapshot, err := s.LatestSnapshot(height)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ledger.Account{}, false, err
	}

	var snapshotHeight uint32
	if snapshot != nil {
		snapshotHeight = snapshot.Height
		account, exists = snapshot.Ledger.Account(id)
	}

	changeHeight, change, changed, err := s.latestChange(id, height)
	if err != nil {
		return ledger.Account{}, false, err
	}
	if changed && (snapshot == nil || changeHeight > snapshotHeight) {
		return change, true, nil
	}

	return account, exists, nil
}

// AccountHistory returns every recorded state of the account by height.
func (s *Store) AccountHistory(id ledger.AccountID) (heights []uint32, accounts []ledger.Account, err error) {
	type entry struct {
		height  uint32
		account ledger.Account
	}

	var entries []entry
	var decodeErr error
	prefix := accountPrefix(id)
	if err = s.accountHistory.Iterate(prefix, func(key kvstore.Key, value kvstore.Value) bool {
		account, accountErr := ledger.AccountFromBytes(value)
		if accountErr != nil {
			decodeErr = errors.Errorf("failed to decode account %s: %v: %w", id, accountErr, ErrCorruptedRecord)
			return false
		}

		entries = append(entries, entry{height: heightFromKey(key[len(prefix):]), account: account})

		return true
	}); err != nil {
		return nil, nil, errors.Errorf("failed to iterate history of %s: %w", id, err)
	}
	if decodeErr != nil {
		return nil, nil, decodeErr
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].height < entries[j].height })
	for _, e := range entries {
		heights = append(heights, e.height)
		accounts = append(accounts, e.account)
	}

	return heights, accounts, nil
}

// latestChange returns the latest recorded state of the account at or below the given height. The iteration order of
// the underlying store is not relied upon.
func (s *Store) latestChange(id ledger.AccountID, maxHeight uint32) (height uint32, account ledger.Account, exists bool, err error) {
	heights, accounts, err := s.AccountHistory(id)
	if err != nil {
		return 0, ledger.Account{}, false, err
	}

	for i := len(heights) - 1; i >= 0; i-- {
		if heights[i] <= maxHeight {
			return heights[i], accounts[i], true, nil
		}
	}

	return 0, ledger.Account{}, false, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region snapshots ////////////////////////////////////////////////////////////////////////////////////////////////////

// StoreSnapshot persists the ledger snapshot.
func (s *Store) StoreSnapshot(snapshot *ledger.Snapshot) error {
	if err := s.snapshots.Set(heightKey(snapshot.Height), snapshot.Bytes()); err != nil {
		return errors.Errorf("failed to store snapshot at height %d: %w", snapshot.Height, err)
	}

	return nil
}

// LatestSnapshot returns the snapshot with the greatest height at or below maxHeight.
func (s *Store) LatestSnapshot(maxHeight uint32) (snapshot *ledger.Snapshot, err error) {
	var latest []byte
	var latestHeight uint32
	if err = s.snapshots.IterateKeys([]byte{}, func(key kvstore.Key) bool {
		if height := heightFromKey(key); height <= maxHeight && (latest == nil || height > latestHeight) {
			latest, latestHeight = append(latest[:0], key...), height
		}

		return true
	}); err != nil {
		return nil, errors.Errorf("failed to iterate snapshots: %w", err)
	}
	if latest == nil {
		return nil, errors.Errorf("snapshot at or below height %d: %w", maxHeight, ErrNotFound)
	}

	value, err := s.snapshots.Get(latest)
	if err != nil {
		return nil, errors.Errorf("failed to retrieve snapshot at height %d: %w", latestHeight, err)
	}

	if snapshot, err = ledger.SnapshotFromBytes(value); err != nil {
		return nil, errors.Errorf("failed to decode snapshot at height %d: %v: %w", latestHeight, err, ErrCorruptedRecord)
	}

	return snapshot, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region meta /////////////////////////////////////////////////////////////////////////////////////////////////////////

// SetRoot records the state hash of the canonical root.
func (s *Store) SetRoot(stateHash precomputed.StateHash) error {
	return s.setMeta(rootKey, stateHash)
}

// Root returns the recorded state hash of the canonical root.
func (s *Store) Root() (stateHash precomputed.StateHash, err error) {
	return s.getMeta(rootKey)
}

// SetBestTip records the state hash of the best tip.
func (s *Store) SetBestTip(stateHash precomputed.StateHash) error {
	return s.setMeta(bestTipKey, stateHash)
}

// BestTip returns the recorded state hash of the best tip.
func (s *Store) BestTip() (stateHash precomputed.StateHash, err error) {
	return s.getMeta(bestTipKey)
}

// SetGenesis records the state hash of the block the store was initialized with.
func (s *Store) SetGenesis(stateHash precomputed.StateHash) error {
	return s.setMeta(genesisKey, stateHash)
}

// Genesis returns the state hash of the block the store was initialized with.
func (s *Store) Genesis() (stateHash precomputed.StateHash, err error) {
	return s.getMeta(genesisKey)
}

func (s *Store) setMeta(key []byte, stateHash precomputed.StateHash) error {
	if err := s.meta.Set(key, []byte(stateHash)); err != nil {
		return errors.Errorf("failed to store %s: %w", key, err)
	}

	return nil
}

func (s *Store) getMeta(key []byte) (stateHash precomputed.StateHash, err error) {
	value, err := s.meta.Get(key)
	if err != nil {
		if errors.Is(err, kvstore.ErrKeyNotFound) {
			return "", errors.Errorf("%s: %w", key, ErrNotFound)
		}

		return "", errors.Errorf("failed to retrieve %s: %w", key, err)
	}

	return precomputed.StateHash(value), nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
