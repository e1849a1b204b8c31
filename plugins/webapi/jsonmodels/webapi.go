package jsonmodels

// region ErrorResponse ////////////////////////////////////////////////////////////////////////////////////////////////

// ErrorResponse is the response that is returned when an error occurred in any of the endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse returns an ErrorResponse from the given error.
func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		Error: err.Error(),
	}
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region InfoResponse /////////////////////////////////////////////////////////////////////////////////////////////////

// InfoResponse holds the state of the indexer.
type InfoResponse struct {
	BestTip           *BlockSummary `json:"bestTip"`
	CanonicalRoot     *BlockSummary `json:"canonicalRoot"`
	DanglingBranches  int           `json:"danglingBranches"`
	WitnessTreeSize   int           `json:"witnessTreeSize"`
	QueuedBlocks      int64         `json:"queuedBlocks"`
	IngestedBlocks    uint64        `json:"ingestedBlocks"`
	RejectedBlocks    uint64        `json:"rejectedBlocks"`
	PendingRecoveries int           `json:"pendingRecoveries"`
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
