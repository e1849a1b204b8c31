package database

const (
	// PrefixHealth defines the prefix of the health and version markers.
	PrefixHealth byte = iota
	// PrefixBlocks defines the prefix of the stored precomputed blocks.
	PrefixBlocks
	// PrefixHeightIndex defines the prefix of the index of block state hashes by height.
	PrefixHeightIndex
	// PrefixCanonicalHeights defines the prefix of the canonical state hash of every height.
	PrefixCanonicalHeights
	// PrefixCanonicity defines the prefix of the canonicity status of every block.
	PrefixCanonicity
	// PrefixAccountHistory defines the prefix of the account versions written by canonical blocks.
	PrefixAccountHistory
	// PrefixLedgerSnapshots defines the prefix of the periodic root ledger snapshots.
	PrefixLedgerSnapshots
	// PrefixMeta defines the prefix of the indexer metadata (e.g. the canonical root).
	PrefixMeta
)
