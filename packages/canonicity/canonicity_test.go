package canonicity

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

func TestDiscover_LinearChain(t *testing.T) {
	blocks := chain("B", 1, 20, "Root")

	result := Discover(blocks, 10)
	assert.Equal(t, hashes(blocks[:10]), hashes(result.DeepCanonical))
	assert.Equal(t, hashes(blocks[10:]), hashes(result.Recent))
	assert.Empty(t, result.Orphaned)
	assert.Equal(t, blocks[9], result.WitnessRoot)
	assert.Equal(t, blocks[19], result.BestTip)

	status, exists := result.Status(blocks[9].StateHash)
	require.True(t, exists)
	assert.Equal(t, Canonical, status)

	status, exists = result.Status(blocks[10].StateHash)
	require.True(t, exists)
	assert.Equal(t, Recent, status)

	_, exists = result.Status("3NUnknown")
	assert.False(t, exists)
}

func TestDiscover_Forks(t *testing.T) {
	mainChain := chain("B", 1, 20, "Root")
	fork := chain("F", 5, 7, "B4")

	result := DiscoverPaths([][]*precomputed.Block{mainChain, fork}, 10)
	assert.Equal(t, hashes(mainChain[:10]), hashes(result.DeepCanonical))
	assert.Equal(t, hashes(fork), hashes(result.Orphaned))

	status, _ := result.Status("3NF6")
	assert.Equal(t, Orphaned, status)
}

func TestDiscover_ThresholdZero(t *testing.T) {
	blocks := chain("B", 1, 5, "Root")

	result := Discover(blocks, 0)
	assert.Equal(t, hashes(blocks), hashes(result.DeepCanonical))
	assert.Empty(t, result.Recent)
	assert.Equal(t, blocks[4], result.WitnessRoot)
	assert.Equal(t, blocks[4], result.BestTip)
}

func TestDiscover_ShortChain(t *testing.T) {
	blocks := chain("B", 1, 5, "Root")

	result := Discover(blocks, 10)
	assert.Nil(t, result.WitnessRoot)
	assert.Empty(t, result.DeepCanonical)
	assert.Equal(t, hashes(blocks), hashes(result.Recent))

	blocks = chain("B", 1, 11, "Root")

	result = Discover(blocks, 10)
	assert.Equal(t, blocks[0], result.WitnessRoot)
	assert.Equal(t, hashes(blocks[:1]), hashes(result.DeepCanonical))
}

func TestDiscover_DisconnectedSegments(t *testing.T) {
	lower := chain("B", 1, 10, "Root")
	upper := chain("B", 15, 20, "B14")

	result := DiscoverPaths([][]*precomputed.Block{upper, lower}, 2)
	assert.Equal(t, lower[9], result.BestTip)
	assert.Equal(t, lower[7], result.WitnessRoot)
	assert.Equal(t, hashes(lower[:8]), hashes(result.DeepCanonical))
	assert.Equal(t, hashes(lower[8:]), hashes(result.Recent))
	assert.Equal(t, hashes(upper), hashes(result.Orphaned))
}

func TestDiscover_TieBreak(t *testing.T) {
	blocks := chain("B", 1, 5, "Root")
	blocks = append(blocks, newBlock("C5", "B4", 5))

	result := Discover(blocks, 1)
	assert.Equal(t, precomputed.StateHash("3NC5"), result.BestTip.StateHash)
	assert.Equal(t, []precomputed.StateHash{"3NB5"}, hashes(result.Orphaned))

	reversed := func(a, b *precomputed.Block) int { return -precomputed.CompareByVRFOutput(a, b) }
	result = Discover(blocks, 1, WithBlockComparator(reversed))
	assert.Equal(t, precomputed.StateHash("3NB5"), result.BestTip.StateHash)
	assert.Equal(t, []precomputed.StateHash{"3NC5"}, hashes(result.Orphaned))
}

func TestDiscover_NilComparator(t *testing.T) {
	blocks := chain("B", 1, 5, "Root")
	blocks = append(blocks, newBlock("C5", "B4", 5))

	var comparator precomputed.Comparator
	result := Discover(blocks, 1, WithBlockComparator(comparator))
	assert.Equal(t, precomputed.StateHash("3NC5"), result.BestTip.StateHash)
	assert.Equal(t, []precomputed.StateHash{"3NB5"}, hashes(result.Orphaned))
}

func TestDiscover_Duplicates(t *testing.T) {
	blocks := chain("B", 1, 5, "Root")

	result := Discover(append(blocks, blocks...), 2)
	assert.Len(t, result.DeepCanonical, 3)
	assert.Len(t, result.Recent, 2)
	assert.Empty(t, result.Orphaned)
}

func TestDiscover_Empty(t *testing.T) {
	result := Discover(nil, 10)
	assert.Nil(t, result.BestTip)
	assert.Nil(t, result.WitnessRoot)
	assert.Empty(t, result.DeepCanonical)
}

func TestDiscover_Monotonicity(t *testing.T) {
	blocks := append(chain("B", 1, 30, "Root"), chain("F", 12, 16, "B11")...)
	rand.Shuffle(len(blocks), func(i, j int) { blocks[i], blocks[j] = blocks[j], blocks[i] })

	previous := Discover(blocks, 30)
	for threshold := 29; threshold >= 0; threshold-- {
		result := Discover(blocks, uint32(threshold))

		require.GreaterOrEqual(t, len(result.DeepCanonical), len(previous.DeepCanonical))
		assert.Equal(t, hashes(previous.DeepCanonical), hashes(result.DeepCanonical[:len(previous.DeepCanonical)]))
		assert.Len(t, result.Orphaned, 5)

		previous = result
	}
}

func chain(prefix string, from, to int, parent precomputed.StateHash) (blocks []*precomputed.Block) {
	parentHash := "3N" + parent
	for height := from; height <= to; height++ {
		block := newBlock(fmt.Sprintf("%s%d", prefix, height), "", uint32(height))
		block.PreviousStateHash = parentHash

		blocks = append(blocks, block)
		parentHash = block.StateHash
	}

	return blocks
}

func newBlock(alias, parentAlias string, height uint32) *precomputed.Block {
	return &precomputed.Block{
		StateHash:         precomputed.StateHash("3N" + alias),
		PreviousStateHash: precomputed.StateHash("3N" + parentAlias),
		Height:            height,
		LastVRFOutput:     alias,
	}
}

func hashes(blocks []*precomputed.Block) (stateHashes []precomputed.StateHash) {
	stateHashes = make([]precomputed.StateHash, 0, len(blocks))
	for _, block := range blocks {
		stateHashes = append(stateHashes, block.StateHash)
	}

	return stateHashes
}
