package canonicity

import (
	"sort"

	"github.com/iotaledger/hive.go/generics/lo"
	"github.com/iotaledger/hive.go/generics/set"
	"github.com/iotaledger/hive.go/stringify"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region Status ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Status is the canonicity of a block.
type Status uint8

const (
	// Orphaned marks blocks that are not part of the canonical chain.
	Orphaned Status = iota

	// Recent marks blocks on the path to the best tip that are not yet deep enough to be canonical.
	Recent

	// Canonical marks the witness root and its ancestors.
	Canonical
)

// String returns a human-readable version of the Status.
func (s Status) String() string {
	switch s {
	case Canonical:
		return "Canonical"
	case Recent:
		return "Recent"
	default:
		return "Orphaned"
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Result ///////////////////////////////////////////////////////////////////////////////////////////////////////

// Result is the classification of a set of blocks. All slices are ordered by ascending height.
type Result struct {
	// DeepCanonical contains the witness root and all of its ancestors.
	DeepCanonical []*precomputed.Block

	// Recent contains the blocks between the witness root (exclusive) and the best tip (inclusive).
	Recent []*precomputed.Block

	// Orphaned contains every other block.
	Orphaned []*precomputed.Block

	// WitnessRoot contains the youngest deep canonical block (nil if the chain is shorter than the threshold).
	WitnessRoot *precomputed.Block

	// BestTip contains the best block of the lowest contiguous segment.
	BestTip *precomputed.Block

	statuses map[precomputed.StateHash]Status
}

// Status returns the canonicity of the block with the given state hash.
func (r *Result) Status(stateHash precomputed.StateHash) (status Status, exists bool) {
	status, exists = r.statuses[stateHash]

	return status, exists
}

// String returns a human-readable version of the Result.
func (r *Result) String() string {
	return stringify.Struct("Result",
		stringify.StructField("DeepCanonical", len(r.DeepCanonical)),
		stringify.StructField("Recent", len(r.Recent)),
		stringify.StructField("Orphaned", len(r.Orphaned)),
		stringify.StructField("WitnessRoot", stateHashOf(r.WitnessRoot)),
		stringify.StructField("BestTip", stateHashOf(r.BestTip)),
	)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Discover /////////////////////////////////////////////////////////////////////////////////////////////////////

// DiscoverPaths classifies the blocks of the given paths. See Discover.
func DiscoverPaths(paths [][]*precomputed.Block, canonicalThreshold uint32, opts ...Option) (result *Result) {
	var blocks []*precomputed.Block
	for _, path := range paths {
		blocks = append(blocks, path...)
	}

	return Discover(blocks, canonicalThreshold, opts...)
}

// Discover classifies a set of stored blocks into deep canonical, recent and orphaned blocks:
//
//  1. blocks are deduplicated and sorted by height,
//  2. the lowest contiguous segment is the set of blocks that connect to a block of the lowest height,
//  3. its best block is the best tip and the block canonicalThreshold blocks below the best tip is the witness root,
//  4. the witness root and its ancestors are deep canonical, the rest of the best tip's path is recent and every other
//     block (forks, disconnected segments) is orphaned.
//
// A threshold of zero makes the best tip the witness root. If the best tip is less than canonicalThreshold blocks above
// the lowest height, there is no witness root and the whole path is recent.
func Discover(blocks []*precomputed.Block, canonicalThreshold uint32, opts ...Option) (result *Result) {
	options := newOptions(opts...)

	sorted := sortedUnique(blocks, options.comparator)
	result = &Result{statuses: make(map[precomputed.StateHash]Status, len(sorted))}
	if len(sorted) == 0 {
		return result
	}

	byHash := make(map[precomputed.StateHash]*precomputed.Block, len(sorted))
	for _, block := range sorted {
		byHash[block.StateHash] = block
	}

	result.BestTip = bestTip(sorted, options.comparator)

	tipPath := ancestry(result.BestTip, byHash)
	if uint32(len(tipPath)) > canonicalThreshold {
		rootIndex := len(tipPath) - 1 - int(canonicalThreshold)
		result.WitnessRoot = tipPath[rootIndex]
		result.DeepCanonical = tipPath[:rootIndex+1]
		result.Recent = tipPath[rootIndex+1:]
	} else {
		result.Recent = tipPath
	}

	onPath := set.New[precomputed.StateHash](false)
	for _, block := range result.DeepCanonical {
		onPath.Add(block.StateHash)
		result.statuses[block.StateHash] = Canonical
	}
	for _, block := range result.Recent {
		onPath.Add(block.StateHash)
		result.statuses[block.StateHash] = Recent
	}

	result.Orphaned = lo.Filter(sorted, func(block *precomputed.Block) bool {
		return !onPath.Has(block.StateHash)
	})
	for _, block := range result.Orphaned {
		result.statuses[block.StateHash] = Orphaned
	}

	return result
}

// sortedUnique drops duplicate state hashes and orders the blocks by height (ties by descending preference).
func sortedUnique(blocks []*precomputed.Block, comparator precomputed.Comparator) (sorted []*precomputed.Block) {
	seen := set.New[precomputed.StateHash](false)
	for _, block := range blocks {
		if block != nil && seen.Add(block.StateHash) {
			sorted = append(sorted, block)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Height != sorted[j].Height {
			return sorted[i].Height < sorted[j].Height
		}

		return comparator(sorted[i], sorted[j]) > 0
	})

	return sorted
}

// bestTip returns the preferred block among the highest blocks of the lowest contiguous segment: the blocks that
// connect to a block of the lowest height through consecutive heights.
func bestTip(sorted []*precomputed.Block, comparator precomputed.Comparator) (best *precomputed.Block) {
	connected := set.New[precomputed.StateHash](false)
	for _, block := range sorted {
		if block.Height == sorted[0].Height || connected.Has(block.PreviousStateHash) {
			connected.Add(block.StateHash)

			if best == nil || comparator.Prefer(block, best) {
				best = block
			}
		}
	}

	return best
}

// ancestry returns the path from the oldest known ancestor of the given block to the block itself.
func ancestry(block *precomputed.Block, byHash map[precomputed.StateHash]*precomputed.Block) (path []*precomputed.Block) {
	for current, exists := block, true; exists; current, exists = byHash[current.PreviousStateHash] {
		if len(path) != 0 && path[len(path)-1].Height != current.Height+1 {
			break
		}

		path = append(path, current)
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}

func stateHashOf(block *precomputed.Block) precomputed.StateHash {
	if block == nil {
		return ""
	}

	return block.StateHash
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
