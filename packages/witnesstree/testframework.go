package witnesstree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Granola-Team/mina-indexer-sub000/packages/ledger"
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

const (
	// TestSender is an account that is funded in the root ledger of the TestFramework.
	TestSender precomputed.PublicKey = "B62qTestSender"

	// TestReceiver is an account that does not exist in the root ledger of the TestFramework.
	TestReceiver precomputed.PublicKey = "B62qTestReceiver"

	// TestProducer is the creator and coinbase receiver of all blocks of the TestFramework.
	TestProducer precomputed.PublicKey = "B62qTestProducer"

	// TestSenderBalance is the initial balance of the TestSender.
	TestSenderBalance = 1000 * precomputed.NanominaPerMina
)

// region TestFramework ////////////////////////////////////////////////////////////////////////////////////////////////

// TestFramework creates blocks by alias and inserts them into a WitnessTree rooted at the block "Genesis".
type TestFramework struct {
	test          *testing.T
	blocksByAlias map[string]*precomputed.Block

	*WitnessTree
}

// NewTestFramework is the constructor of the TestFramework.
func NewTestFramework(test *testing.T, opts ...Option) (newFramework *TestFramework) {
	newFramework = &TestFramework{
		test:          test,
		blocksByAlias: make(map[string]*precomputed.Block),
	}

	genesis := newFramework.createBlock("Genesis", "Root", 1)
	newFramework.WitnessTree = New(genesis, ledger.NewFromAccounts([]ledger.Account{
		{PublicKey: TestSender, Token: ledger.DefaultToken, Balance: TestSenderBalance, Delegate: TestSender},
		{PublicKey: TestProducer, Token: ledger.DefaultToken, Delegate: TestProducer},
	}), opts...)

	return newFramework
}

// CreateBlock creates a block with the given alias that is a child of the block with the given parent alias.
func (t *TestFramework) CreateBlock(alias, parentAlias string, commands ...*precomputed.UserCommand) (block *precomputed.Block) {
	block = t.createBlock(alias, parentAlias, t.Block(parentAlias).Height+1)
	if len(commands) != 0 {
		block.Diffs = []*precomputed.DiffPart{{Commands: commands}}
	}

	return block
}

// CreateBlockAtHeight creates a block with an explicit height (parents do not have to be registered).
func (t *TestFramework) CreateBlockAtHeight(alias, parentAlias string, height uint32) (block *precomputed.Block) {
	return t.createBlock(alias, parentAlias, height)
}

// CreateChain creates the blocks <prefix><from> ... <prefix><to> on top of the given parent and returns their aliases.
func (t *TestFramework) CreateChain(prefix string, from, to int, parentAlias string) (aliases []string) {
	for i := from; i <= to; i++ {
		alias := fmt.Sprintf("%s%d", prefix, i)
		t.CreateBlock(alias, parentAlias)

		aliases = append(aliases, alias)
		parentAlias = alias
	}

	return aliases
}

// Block retrieves the block that is associated with the given alias.
func (t *TestFramework) Block(alias string) (block *precomputed.Block) {
	block, exists := t.blocksByAlias[alias]
	if !exists {
		panic(fmt.Sprintf("block alias %s not registered", alias))
	}

	return block
}

// StateHash returns the state hash of the block with the given alias.
func (t *TestFramework) StateHash(alias string) precomputed.StateHash {
	return t.Block(alias).StateHash
}

// Insert inserts the blocks with the given aliases and returns the result of the last insertion.
func (t *TestFramework) Insert(aliases ...string) (result *ExtensionResult) {
	for _, alias := range aliases {
		var err error
		result, err = t.WitnessTree.Insert(t.Block(alias))
		require.NoError(t.test, err, "inserting %s", alias)
	}

	return result
}

// AssertCase inserts the block with the given alias and asserts its ExtensionCase.
func (t *TestFramework) AssertCase(alias string, expected ExtensionCase) (result *ExtensionResult) {
	result = t.Insert(alias)
	assert.Equal(t.test, expected.String(), result.Case.String(), "case of %s", alias)
	t.AssertInvariants()

	return result
}

// AssertRoot asserts the canonical root.
func (t *TestFramework) AssertRoot(alias string) {
	assert.Equal(t.test, t.StateHash(alias), t.Root().StateHash, "root")
}

// AssertBestTip asserts the best tip.
func (t *TestFramework) AssertBestTip(alias string) {
	assert.Equal(t.test, t.StateHash(alias), t.BestTip().StateHash, "best tip")
}

// AssertMainLeaves asserts the leaves of the main branch.
func (t *TestFramework) AssertMainLeaves(aliases ...string) {
	t.assertLeaves(t.MainBranch(), aliases...)
}

// AssertDanglingLeaves asserts the leaves of the dangling branch with the given base.
func (t *TestFramework) AssertDanglingLeaves(baseAlias string, aliases ...string) {
	for _, branch := range t.DanglingBranches() {
		if branch.Base() == t.StateHash(baseAlias) {
			t.assertLeaves(branch, aliases...)
			return
		}
	}

	t.test.Errorf("no dangling branch with base %s", baseAlias)
}

// AssertInvariants checks the structural invariants of the tree: every block has exactly one parent edge, leaves are
// exactly the blocks without children, every leaf belongs to exactly one branch, main leaves carry ledgers and
// dangling leaves carry none.
func (t *TestFramework) AssertInvariants() {
	parentEdges := make(map[precomputed.StateHash]int)
	for stateHash, blockNode := range t.nodes {
		for _, child := range blockNode.children {
			childNode, exists := t.nodes[child]
			require.True(t.test, exists, "child %s of %s is missing", child, stateHash)
			require.Equal(t.test, stateHash, childNode.block.PreviousStateHash)
			require.Equal(t.test, blockNode.height()+1, childNode.height())
			require.Same(t.test, blockNode.branch, childNode.branch)
			parentEdges[child]++
		}
	}

	seenLeaves := make(map[precomputed.StateHash]bool)
	sizes := 0
	for _, branch := range append(t.DanglingBranches(), t.main) {
		require.Equal(t.test, 0, parentEdges[branch.base], "base %s has a parent edge", branch.base)
		require.True(t.test, t.main == branch || t.nodes[branch.base].height() > t.rootNode().height())
		sizes += branch.size

		for stateHash, leaf := range branch.leaves {
			require.False(t.test, seenLeaves[stateHash], "leaf %s is shared", stateHash)
			seenLeaves[stateHash] = true

			leafNode, exists := t.nodes[stateHash]
			require.True(t.test, exists)
			require.Empty(t.test, leafNode.children)
			require.Same(t.test, branch, leafNode.branch)
			require.Equal(t.test, branch == t.main, leaf.Ledger != nil, "ledger of leaf %s", stateHash)
		}
	}
	require.Equal(t.test, len(t.nodes), sizes)

	for stateHash, blockNode := range t.nodes {
		if stateHash != blockNode.branch.base {
			require.Equal(t.test, 1, parentEdges[stateHash], "parent edges of %s", stateHash)
		}
		if len(blockNode.children) == 0 {
			require.True(t.test, seenLeaves[stateHash], "%s has no children but is no leaf", stateHash)
		}
	}
}

// Payment creates an applied payment of the TestSender.
func (t *TestFramework) Payment(nonce, amount, fee uint64) *precomputed.UserCommand {
	return &precomputed.UserCommand{
		Kind:     precomputed.Payment,
		Status:   precomputed.Applied,
		FeePayer: TestSender,
		Source:   TestSender,
		Receiver: TestReceiver,
		Fee:      fee,
		FeeToken: uint64(ledger.DefaultToken),
		Token:    uint64(ledger.DefaultToken),
		Amount:   amount,
		Nonce:    nonce,
	}
}

func (t *TestFramework) assertLeaves(branch *Branch, aliases ...string) {
	expected := make([]precomputed.StateHash, 0, len(aliases))
	for _, alias := range aliases {
		expected = append(expected, t.StateHash(alias))
	}

	actual := make([]precomputed.StateHash, 0)
	for _, leaf := range branch.Leaves() {
		actual = append(actual, leaf.StateHash)
	}

	assert.ElementsMatch(t.test, expected, actual, "leaves of branch %s", branch.Base())
}

func (t *TestFramework) createBlock(alias, parentAlias string, height uint32) (block *precomputed.Block) {
	block = &precomputed.Block{
		StateHash:         aliasStateHash(alias),
		PreviousStateHash: aliasStateHash(parentAlias),
		Height:            height,
		Creator:           TestProducer,
		CoinbaseReceiver:  TestProducer,
		Winner:            TestProducer,
		LastVRFOutput:     alias,
	}
	t.blocksByAlias[alias] = block

	return block
}

func aliasStateHash(alias string) precomputed.StateHash {
	return precomputed.StateHash("3N" + alias)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
