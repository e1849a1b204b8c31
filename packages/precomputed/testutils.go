package precomputed

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// EncodeTestReport encodes the header of the given Block as a precomputed block report with an empty staged ledger
// diff.
func EncodeTestReport(block *Block) (report []byte, err error) {
	if report, err = json.Marshal(map[string]interface{}{
		"protocol_state": map[string]interface{}{
			"previous_state_hash": block.PreviousStateHash,
			"body": map[string]interface{}{
				"consensus_state": map[string]interface{}{
					"blockchain_length":         block.Height,
					"global_slot_since_genesis": block.GlobalSlot,
					"last_vrf_output":           block.LastVRFOutput,
					"block_stake_winner":        block.Winner,
					"block_creator":             block.Creator,
					"coinbase_receiver":         block.CoinbaseReceiver,
					"supercharge_coinbase":      block.SuperchargeCoinbase,
				},
			},
		},
		"staged_ledger_diff": map[string]interface{}{
			"diff": []interface{}{nil, nil},
		},
	}); err != nil {
		return nil, errors.Errorf("failed to encode report of %s: %w", block.StateHash, err)
	}

	return report, nil
}

// WriteTestReport stores the report of the given Block under its file name in the given directory.
func WriteTestReport(directory string, block *Block) (path string, err error) {
	report, err := EncodeTestReport(block)
	if err != nil {
		return "", err
	}

	path = filepath.Join(directory, block.FileName())
	if err = os.WriteFile(path, report, 0o600); err != nil {
		return "", errors.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
