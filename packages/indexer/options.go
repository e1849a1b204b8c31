package indexer

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/iotaledger/hive.go/logger"
	"github.com/shirou/gopsutil/process"
	"go.uber.org/zap"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
	"github.com/Granola-Team/mina-indexer-sub000/packages/witnesstree"
)

// region Option ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Option represents the return type of optional parameters that can be handed into the constructor of the Indexer.
type Option func(*options)

// WithCanonicalThreshold is an Option for the Indexer that sets the distance between the best tip and the canonical
// root.
func WithCanonicalThreshold(canonicalThreshold uint32) Option {
	return func(options *options) {
		options.canonicalThreshold = canonicalThreshold
	}
}

// WithPruneMemory is an Option for the Indexer that sets for how many heights below the root pruned blocks are
// remembered.
func WithPruneMemory(pruneMemory uint32) Option {
	return func(options *options) {
		options.pruneMemory = pruneMemory
	}
}

// WithLedgerCadence is an Option for the Indexer that sets every how many heights the root ledger is persisted.
func WithLedgerCadence(ledgerCadence uint32) Option {
	return func(options *options) {
		options.ledgerCadence = ledgerCadence
	}
}

// WithDoNotIngestOrphanBlocks is an Option for the Indexer that disables storing blocks that bypass the witness tree.
func WithDoNotIngestOrphanBlocks(doNotIngestOrphanBlocks bool) Option {
	return func(options *options) {
		options.doNotIngestOrphanBlocks = doNotIngestOrphanBlocks
	}
}

// WithQueueSize is an Option for the Indexer that sets the capacity of the block queue.
func WithQueueSize(queueSize int) Option {
	return func(options *options) {
		options.queueSize = queueSize
	}
}

// WithMaxMemoryBytes is an Option for the Indexer that sets the memory limit of the process (0 disables the check).
func WithMaxMemoryBytes(maxMemoryBytes uint64) Option {
	return func(options *options) {
		options.maxMemoryBytes = maxMemoryBytes
	}
}

// WithMemoryUsage is an Option for the Indexer that replaces how the memory usage of the process is measured.
func WithMemoryUsage(memoryUsage func() (uint64, error)) Option {
	return func(options *options) {
		options.memoryUsage = memoryUsage
	}
}

// WithBlockComparator is an Option for the Indexer that sets the tie-break between blocks of equal height.
func WithBlockComparator(comparator precomputed.Comparator) Option {
	return func(options *options) {
		options.comparator = comparator
	}
}

// WithLogger is an Option for the Indexer that sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(options *options) {
		options.log = log
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region options //////////////////////////////////////////////////////////////////////////////////////////////////////

type options struct {
	canonicalThreshold      uint32
	pruneMemory             uint32
	ledgerCadence           uint32
	doNotIngestOrphanBlocks bool
	queueSize               int
	maxMemoryBytes          uint64
	memoryUsage             func() (uint64, error)
	comparator              precomputed.Comparator
	log                     *logger.Logger
}

var defaultOptions = options{
	canonicalThreshold: 10,
	pruneMemory:        precomputed.TransitionFrontierLength,
	ledgerCadence:      100,
	queueSize:          1024,
	memoryUsage:        processMemoryUsage,
	comparator:         precomputed.CompareByVRFOutput,
	log:                zap.NewNop().Sugar(),
}

func newOptions(option ...Option) (new *options) {
	clonedDefaultOptions := defaultOptions
	for _, opt := range option {
		opt(&clonedDefaultOptions)
	}

	if clonedDefaultOptions.ledgerCadence == 0 {
		clonedDefaultOptions.ledgerCadence = 1
	}

	return &clonedDefaultOptions
}

func (o *options) treeOptions() []witnesstree.Option {
	return []witnesstree.Option{
		witnesstree.WithCanonicalThreshold(o.canonicalThreshold),
		witnesstree.WithPruneMemory(o.pruneMemory),
		witnesstree.WithBlockComparator(o.comparator),
		witnesstree.WithLogger(o.log),
	}
}

// processMemoryUsage returns the resident set size of the process.
func processMemoryUsage() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, errors.Errorf("failed to inspect process: %w", err)
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		return 0, errors.Errorf("failed to read memory usage: %w", err)
	}

	return memoryInfo.RSS, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
