package indexer

import (
	flag "github.com/spf13/pflag"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

const (
	// CfgIndexerNetwork defines the network name of the block reports.
	CfgIndexerNetwork = "indexer.network"
	// CfgIndexerBlocksDir defines the directory that is watched for block reports.
	CfgIndexerBlocksDir = "indexer.blocksDir"
	// CfgIndexerGenesisLedger defines the path of the genesis ledger file (empty starts from an empty ledger).
	CfgIndexerGenesisLedger = "indexer.genesisLedger"
	// CfgIndexerCanonicalThreshold defines the distance between the best tip and the canonical root.
	CfgIndexerCanonicalThreshold = "indexer.canonicalThreshold"
	// CfgIndexerPruneMemory defines for how many heights below the root pruned blocks are remembered.
	CfgIndexerPruneMemory = "indexer.pruneMemory"
	// CfgIndexerLedgerCadence defines every how many heights the root ledger is persisted.
	CfgIndexerLedgerCadence = "indexer.ledgerCadence"
	// CfgIndexerDoNotIngestOrphanBlocks disables storing blocks that bypass the witness tree.
	CfgIndexerDoNotIngestOrphanBlocks = "indexer.doNotIngestOrphanBlocks"
	// CfgIndexerQueueSize defines the capacity of the block queue.
	CfgIndexerQueueSize = "indexer.queueSize"
	// CfgIndexerMaxMemoryBytes defines the memory limit of the process (0 disables the check).
	CfgIndexerMaxMemoryBytes = "indexer.maxMemoryBytes"
	// CfgIndexerWatcherWorkers defines the number of workers that parse block reports.
	CfgIndexerWatcherWorkers = "indexer.watcherWorkers"
)

func init() {
	flag.String(CfgIndexerNetwork, precomputed.MainnetNetwork, "the network name of the block reports")
	flag.String(CfgIndexerBlocksDir, "blocks", "the directory that is watched for block reports")
	flag.String(CfgIndexerGenesisLedger, "", "the path of the genesis ledger file")
	flag.Uint32(CfgIndexerCanonicalThreshold, 10, "the distance between the best tip and the canonical root")
	flag.Uint32(CfgIndexerPruneMemory, precomputed.TransitionFrontierLength, "for how many heights below the root pruned blocks are remembered")
	flag.Uint32(CfgIndexerLedgerCadence, 100, "every how many heights the root ledger is persisted")
	flag.Bool(CfgIndexerDoNotIngestOrphanBlocks, false, "do not store blocks that are older than the canonical root")
	flag.Int(CfgIndexerQueueSize, 1024, "the capacity of the block queue")
	flag.Uint64(CfgIndexerMaxMemoryBytes, 0, "the memory limit of the process in bytes (0 disables the check)")
	flag.Int(CfgIndexerWatcherWorkers, 4, "the number of workers that parse block reports")
}
