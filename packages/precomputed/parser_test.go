package precomputed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testCreator  = "B62qrPN5Y5yq8kGE3FbVKbGTdTAJNdtNtB5sNVpxyRwWGcDEhpMzc8g"
	testReceiver = "B62qjCuPisQjLW7YkB22BR9KieSmUZTyApftqxsAuB3U21r3vj1YnaG"
	testProver   = "B62qkBqSkXgkirtU3n8HJ9YgwHh3vUD6kGJ5ZRkQYGNPeL5xYL2tL1L"
	testHash     = "3NKGgTk7en3347KH81yDra876GPAUSoSePrfVKPmwR1KHfMpvJC5"
)

const testReport = `{
  "protocol_state": {
    "previous_state_hash": "3NKeMoncuHab5ScarV5ViyF16cJPT4taWNSaTLS64Dp67wuXigPZ",
    "body": {
      "consensus_state": {
        "blockchain_length": "2",
        "global_slot_since_genesis": "3",
        "last_vrf_output": "vrf",
        "block_stake_winner": "` + testCreator + `",
        "block_creator": "` + testCreator + `",
        "coinbase_receiver": "` + testCreator + `",
        "supercharge_coinbase": true
      }
    }
  },
  "staged_ledger_diff": {
    "diff": [
      {
        "completed_works": [{"fee": "0.01", "prover": "` + testProver + `"}],
        "commands": [
          {
            "data": ["Signed_command", {"payload": {
              "common": {"fee": "0.1", "fee_token": "1", "fee_payer_pk": "` + testCreator + `", "nonce": "5", "memo": "E4Y"},
              "body": ["Payment", {"source_pk": "` + testCreator + `", "receiver_pk": "` + testReceiver + `", "token_id": "1", "amount": "2.5"}]
            }}],
            "status": ["Applied", {}]
          },
          {
            "data": ["Signed_command", {"payload": {
              "common": {"fee": "0.2", "fee_token": "1", "fee_payer_pk": "` + testReceiver + `", "nonce": "0", "memo": "E4Y"},
              "body": ["Stake_delegation", ["Set_delegate", {"delegator": "` + testReceiver + `", "new_delegate": "` + testCreator + `"}]]
            }}],
            "status": ["Failed", [["Amount_insufficient_to_create_account"]]]
          }
        ],
        "coinbase": ["One", {"receiver_pk": "` + testProver + `", "fee": "0.01"}],
        "internal_command_statuses": [["Applied", {}], ["Applied", {}]]
      },
      null
    ]
  },
  "proof": null
}`

func TestParse(t *testing.T) {
	block, err := Parse(strings.NewReader(testReport), testHash, MainnetNetwork)
	require.NoError(t, err)

	assert.Equal(t, StateHash(testHash), block.StateHash)
	assert.Equal(t, MainnetGenesisStateHash, block.PreviousStateHash)
	assert.Equal(t, uint32(2), block.Height)
	assert.Equal(t, uint32(3), block.GlobalSlot)
	assert.Equal(t, PublicKey(testCreator), block.Winner)
	assert.True(t, block.SuperchargeCoinbase)
	require.Len(t, block.Diffs, 1)

	part := block.Diffs[0]
	require.Len(t, part.Commands, 2)

	payment := part.Commands[0]
	assert.Equal(t, Payment, payment.Kind)
	assert.Equal(t, Applied, payment.Status)
	assert.Equal(t, uint64(100_000_000), payment.Fee)
	assert.Equal(t, uint64(2_500_000_000), payment.Amount)
	assert.Equal(t, uint64(5), payment.Nonce)
	assert.Equal(t, PublicKey(testReceiver), payment.Receiver)

	delegation := part.Commands[1]
	assert.Equal(t, StakeDelegation, delegation.Kind)
	assert.Equal(t, Failed, delegation.Status)
	assert.Equal(t, PublicKey(testReceiver), delegation.Source)
	assert.Equal(t, PublicKey(testCreator), delegation.Receiver)

	assert.Equal(t, uint64(300_000_000), part.TransactionFees())
	require.Len(t, part.CompletedWorks, 1)
	assert.Equal(t, uint64(10_000_000), part.CompletedWorks[0].Fee)

	require.NotNil(t, part.Coinbase)
	assert.Equal(t, CoinbaseOne, part.Coinbase.Kind)
	require.Len(t, part.Coinbase.FeeTransfers, 1)
	assert.Equal(t, PublicKey(testProver), part.Coinbase.FeeTransfers[0].Receiver)
	assert.Equal(t, []Status{Applied, Applied}, part.InternalCommandStatuses)
}

func TestParse_UnknownStatus(t *testing.T) {
	report := strings.Replace(testReport, `["Failed", [["Amount_insufficient_to_create_account"]]]`, `["Pending"]`, 1)

	_, err := Parse(strings.NewReader(report), testHash, MainnetNetwork)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStatus))
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"protocol_state": {}}`), testHash, MainnetNetwork)
	assert.True(t, errors.Is(err, ErrMalformedBlock))

	_, err = Parse(strings.NewReader(`not json`), testHash, MainnetNetwork)
	assert.True(t, errors.Is(err, ErrMalformedBlock))

	_, err = Parse(strings.NewReader(testReport), "", MainnetNetwork)
	assert.True(t, errors.Is(err, ErrMalformedBlock))
}

func TestParse_NumericFields(t *testing.T) {
	report := strings.Replace(testReport, `"blockchain_length": "2"`, `"blockchain_length": 2`, 1)

	block, err := Parse(strings.NewReader(report), testHash, MainnetNetwork)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), block.Height)
}

func TestParse_HeightOutOfRange(t *testing.T) {
	for _, field := range []string{`"blockchain_length": "2"`, `"global_slot_since_genesis": "3"`} {
		for _, value := range []string{"4294967296", "4294967297"} {
			name := strings.SplitN(field, ":", 2)[0]
			report := strings.Replace(testReport, field, name+`: "`+value+`"`, 1)

			_, err := Parse(strings.NewReader(report), testHash, MainnetNetwork)
			assert.True(t, errors.Is(err, ErrMalformedBlock), "%s %s", name, value)
		}
	}

	report := strings.Replace(testReport, `"blockchain_length": "2"`, `"blockchain_length": "4294967295"`, 1)
	block, err := Parse(strings.NewReader(report), testHash, MainnetNetwork)
	require.NoError(t, err)
	assert.Equal(t, uint32(4294967295), block.Height)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, FileName(MainnetNetwork, 2, testHash))
	require.NoError(t, os.WriteFile(path, []byte(testReport), 0o600))

	block, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, StateHash(testHash), block.StateHash)
	assert.Equal(t, MainnetNetwork, block.Network)
	assert.Equal(t, filepath.Base(path), block.FileName())

	wrongHeight := filepath.Join(dir, FileName(MainnetNetwork, 7, testHash))
	require.NoError(t, os.WriteFile(wrongHeight, []byte(testReport), 0o600))

	_, err = ParseFile(wrongHeight)
	assert.True(t, errors.Is(err, ErrMalformedBlock))
}

func TestWriteTestReport(t *testing.T) {
	block := &Block{
		StateHash:         "3NKeMoncuHab5ScarV5ViyF16cJPT4taWNSaTLS64Dp67wuXigPZ",
		PreviousStateHash: "3NLoKn22eMnyQ7rxh5pxB6vBA3XhSAhhrf7akdqS6HbAKD14Dh1d",
		Height:            2,
		GlobalSlot:        3,
		Network:           MainnetNetwork,
		Creator:           MainnetGenesisWinner,
		CoinbaseReceiver:  MainnetGenesisWinner,
		Winner:            MainnetGenesisWinner,
		LastVRFOutput:     "vrf",
	}

	path, err := WriteTestReport(t.TempDir(), block)
	require.NoError(t, err)

	parsed, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, block, parsed)
}
