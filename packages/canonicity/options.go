package canonicity

import (
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region WithBlockComparator //////////////////////////////////////////////////////////////////////////////////////////

// WithBlockComparator is an Option for Discover that configures how blocks of equal height are ordered when selecting
// the best tip. A nil comparator keeps the default VRF output comparison.
func WithBlockComparator(comparator precomputed.Comparator) Option {
	return func(options *options) {
		options.comparator = comparator
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Option ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Option represents the return type of optional parameters that can be handed into Discover.
type Option func(*options)

type options struct {
	comparator precomputed.Comparator
}

var defaultOptions = options{
	comparator: precomputed.CompareByVRFOutput,
}

func newOptions(option ...Option) (new *options) {
	clonedDefaultOptions := defaultOptions
	for _, opt := range option {
		opt(&clonedDefaultOptions)
	}

	if clonedDefaultOptions.comparator == nil {
		clonedDefaultOptions.comparator = defaultOptions.comparator
	}

	return &clonedDefaultOptions
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
