package witnesstree

import (
	"github.com/iotaledger/hive.go/logger"
	"go.uber.org/zap"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region WithCanonicalThreshold ///////////////////////////////////////////////////////////////////////////////////////

// WithCanonicalThreshold is an Option for the WitnessTree that configures how many blocks the best tip has to be ahead
// of a block before the block becomes the canonical root.
func WithCanonicalThreshold(canonicalThreshold uint32) Option {
	return func(options *options) {
		options.canonicalThreshold = canonicalThreshold
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region WithPruneMemory //////////////////////////////////////////////////////////////////////////////////////////////

// WithPruneMemory is an Option for the WitnessTree that configures for how many heights below the root the state hashes
// of pruned blocks are remembered. Children of remembered blocks bypass the tree.
func WithPruneMemory(pruneMemory uint32) Option {
	return func(options *options) {
		options.pruneMemory = pruneMemory
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region WithBlockComparator //////////////////////////////////////////////////////////////////////////////////////////

// WithBlockComparator is an Option for the WitnessTree that configures how leaves of equal height are ordered when
// selecting the best tip. A nil comparator is ignored.
func WithBlockComparator(comparator precomputed.Comparator) Option {
	return func(options *options) {
		if comparator != nil {
			options.comparator = comparator
		}
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region WithLogger ///////////////////////////////////////////////////////////////////////////////////////////////////

// WithLogger is an Option for the WitnessTree that sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(options *options) {
		options.log = log
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Option ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Option represents the return type of optional parameters that can be handed into the constructor of the WitnessTree
// to configure its behavior.
type Option func(*options)

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region options //////////////////////////////////////////////////////////////////////////////////////////////////////

// options is a container for all configurable parameters of a WitnessTree.
type options struct {
	// canonicalThreshold contains the distance between the best tip and the canonical root.
	canonicalThreshold uint32
	// pruneMemory contains the number of heights below the root for which pruned state hashes are remembered.
	pruneMemory uint32
	// comparator breaks ties between leaves of equal height.
	comparator precomputed.Comparator
	log        *logger.Logger
}

// defaultOptions contains the default configuration parameters of the WitnessTree.
var defaultOptions = options{
	canonicalThreshold: 10,
	pruneMemory:        precomputed.TransitionFrontierLength,
	comparator:         precomputed.CompareByVRFOutput,
	log:                zap.NewNop().Sugar(),
}

// newOptions returns a new options object that corresponds to the handed in options and which is derived from the
// default options.
func newOptions(option ...Option) (new *options) {
	clonedDefaultOptions := defaultOptions
	return clonedDefaultOptions.apply(option...)
}

// apply modifies the options object by overriding the handed in options.
func (o *options) apply(options ...Option) (self *options) {
	for _, option := range options {
		option(o)
	}
	return o
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
