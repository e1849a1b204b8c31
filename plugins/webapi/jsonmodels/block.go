package jsonmodels

import (
	"github.com/Granola-Team/mina-indexer-sub000/packages/precomputed"
)

// region BlockSummary /////////////////////////////////////////////////////////////////////////////////////////////////

// BlockSummary represents the JSON model of the identity of a precomputed.Block.
type BlockSummary struct {
	StateHash         string `json:"stateHash"`
	PreviousStateHash string `json:"previousStateHash"`
	Height            uint32 `json:"height"`
	GlobalSlot        uint32 `json:"globalSlot"`
}

// NewBlockSummary returns a BlockSummary from the given precomputed.Block.
func NewBlockSummary(block *precomputed.Block) *BlockSummary {
	return &BlockSummary{
		StateHash:         block.StateHash.String(),
		PreviousStateHash: block.PreviousStateHash.String(),
		Height:            block.Height,
		GlobalSlot:        block.GlobalSlot,
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region Block ////////////////////////////////////////////////////////////////////////////////////////////////////////

// Block represents the JSON model of a precomputed.Block.
type Block struct {
	*BlockSummary

	Creator          string `json:"creator"`
	CoinbaseReceiver string `json:"coinbaseReceiver"`
	Winner           string `json:"winner"`
	Supercharged     bool   `json:"supercharged"`
	UserCommands     int    `json:"userCommands"`
	Canonicity       string `json:"canonicity,omitempty"`
}

// NewBlock returns a Block from the given precomputed.Block and its canonicity.
func NewBlock(block *precomputed.Block, canonicity string) *Block {
	return &Block{
		BlockSummary:     NewBlockSummary(block),
		Creator:          block.Creator.String(),
		CoinbaseReceiver: block.CoinbaseReceiver.String(),
		Winner:           block.Winner.String(),
		Supercharged:     block.SuperchargeCoinbase,
		UserCommands:     len(block.Commands()),
		Canonicity:       canonicity,
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region PathResponse /////////////////////////////////////////////////////////////////////////////////////////////////

// PathResponse represents the JSON model of a chain of blocks.
type PathResponse struct {
	Blocks []*BlockSummary `json:"blocks"`
}

// NewPathResponse returns a PathResponse from the given blocks.
func NewPathResponse(path []*precomputed.Block) *PathResponse {
	response := &PathResponse{Blocks: make([]*BlockSummary, 0, len(path))}
	for _, block := range path {
		response.Blocks = append(response.Blocks, NewBlockSummary(block))
	}

	return response
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
