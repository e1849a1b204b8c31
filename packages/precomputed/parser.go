package precomputed

import (
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseFile reads and decodes the precomputed block stored at the given path. Network, height and state hash are taken
// from the file name, which is the only place a report carries its own state hash.
func ParseFile(path string) (block *Block, err error) {
	network, height, stateHash, err := ParseFileName(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	if block, err = Parse(file, stateHash, network); err != nil {
		return nil, errors.Errorf("failed to parse %s: %w", path, err)
	}

	if block.Height != height {
		return nil, errors.Errorf("%s reports height %d: %w", path, block.Height, ErrMalformedBlock)
	}

	return block, nil
}

// Parse decodes a precomputed block report. The stateHash argument may be empty if the report contains a state_hash
// field.
func Parse(reader io.Reader, stateHash StateHash, network string) (block *Block, err error) {
	var decoded blockReport
	if err = json.NewDecoder(reader).Decode(&decoded); err != nil {
		return nil, errors.Errorf("failed to decode report (%v): %w", err, ErrMalformedBlock)
	}

	if stateHash == "" {
		if stateHash, err = StateHashFromBase58(decoded.StateHash); err != nil {
			return nil, errors.Errorf("report lacks a valid state hash (%v): %w", err, ErrMalformedBlock)
		}
	}

	return decoded.block(stateHash, network)
}

// region blockReport //////////////////////////////////////////////////////////////////////////////////////////////////

type blockReport struct {
	StateHash     string `json:"state_hash"`
	ProtocolState struct {
		PreviousStateHash string `json:"previous_state_hash"`
		Body              struct {
			ConsensusState struct {
				BlockchainLength       flexUint `json:"blockchain_length"`
				GlobalSlotSinceGenesis flexUint `json:"global_slot_since_genesis"`
				LastVRFOutput          string   `json:"last_vrf_output"`
				BlockStakeWinner       string   `json:"block_stake_winner"`
				BlockCreator           string   `json:"block_creator"`
				CoinbaseReceiver       string   `json:"coinbase_receiver"`
				SuperchargeCoinbase    bool     `json:"supercharge_coinbase"`
			} `json:"consensus_state"`
		} `json:"body"`
	} `json:"protocol_state"`
	StagedLedgerDiff struct {
		Diff []jsoniter.RawMessage `json:"diff"`
	} `json:"staged_ledger_diff"`
}

func (r *blockReport) block(stateHash StateHash, network string) (block *Block, err error) {
	consensusState := r.ProtocolState.Body.ConsensusState

	if consensusState.BlockchainLength > math.MaxUint32 {
		return nil, errors.Errorf("blockchain_length %d out of range: %w", consensusState.BlockchainLength, ErrMalformedBlock)
	}
	if consensusState.GlobalSlotSinceGenesis > math.MaxUint32 {
		return nil, errors.Errorf("global_slot_since_genesis %d out of range: %w", consensusState.GlobalSlotSinceGenesis, ErrMalformedBlock)
	}

	block = &Block{
		StateHash:           stateHash,
		Height:              uint32(consensusState.BlockchainLength),
		GlobalSlot:          uint32(consensusState.GlobalSlotSinceGenesis),
		Network:             network,
		LastVRFOutput:       consensusState.LastVRFOutput,
		SuperchargeCoinbase: consensusState.SuperchargeCoinbase,
	}

	if block.Height == 0 {
		return nil, errors.Errorf("blockchain_length missing: %w", ErrMalformedBlock)
	}

	if block.PreviousStateHash, err = StateHashFromBase58(r.ProtocolState.PreviousStateHash); err != nil {
		return nil, errors.Errorf("previous_state_hash (%v): %w", err, ErrMalformedBlock)
	}

	if block.Creator, err = PublicKeyFromBase58(consensusState.BlockCreator); err != nil {
		return nil, errors.Errorf("block_creator (%v): %w", err, ErrMalformedBlock)
	}

	if block.CoinbaseReceiver, err = PublicKeyFromBase58(consensusState.CoinbaseReceiver); err != nil {
		return nil, errors.Errorf("coinbase_receiver (%v): %w", err, ErrMalformedBlock)
	}

	if block.Winner, err = PublicKeyFromBase58(consensusState.BlockStakeWinner); err != nil {
		return nil, errors.Errorf("block_stake_winner (%v): %w", err, ErrMalformedBlock)
	}

	for i, rawPart := range r.StagedLedgerDiff.Diff {
		if isNull(rawPart) {
			continue
		}

		part, partErr := parseDiffPart(rawPart)
		if partErr != nil {
			return nil, errors.Errorf("diff part %d: %w", i, partErr)
		}
		block.Diffs = append(block.Diffs, part)
	}

	return block, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region diff parts ///////////////////////////////////////////////////////////////////////////////////////////////////

type diffPartReport struct {
	CompletedWorks []struct {
		Fee    string `json:"fee"`
		Prover string `json:"prover"`
	} `json:"completed_works"`
	Commands []struct {
		Data   []jsoniter.RawMessage `json:"data"`
		Status []jsoniter.RawMessage `json:"status"`
	} `json:"commands"`
	Coinbase                []jsoniter.RawMessage `json:"coinbase"`
	InternalCommandStatuses []jsoniter.RawMessage `json:"internal_command_statuses"`
}

type feeTransferReport struct {
	ReceiverPK string `json:"receiver_pk"`
	Fee        string `json:"fee"`
}

func parseDiffPart(raw jsoniter.RawMessage) (part *DiffPart, err error) {
	var decoded diffPartReport
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Errorf("failed to decode diff part (%v): %w", err, ErrMalformedBlock)
	}

	part = new(DiffPart)

	for i, command := range decoded.Commands {
		userCommand, commandErr := parseUserCommand(command.Data, command.Status)
		if commandErr != nil {
			return nil, errors.Errorf("command %d: %w", i, commandErr)
		}
		part.Commands = append(part.Commands, userCommand)
	}

	for _, work := range decoded.CompletedWorks {
		completedWork := &CompletedWork{}
		if completedWork.Prover, err = PublicKeyFromBase58(work.Prover); err != nil {
			return nil, errors.Errorf("completed work prover (%v): %w", err, ErrMalformedBlock)
		}
		if completedWork.Fee, err = ParseAmount(work.Fee); err != nil {
			return nil, err
		}
		part.CompletedWorks = append(part.CompletedWorks, completedWork)
	}

	if part.Coinbase, err = parseCoinbase(decoded.Coinbase); err != nil {
		return nil, err
	}

	for _, rawStatus := range decoded.InternalCommandStatuses {
		status, statusErr := parseStatus(rawStatus)
		if statusErr != nil {
			return nil, statusErr
		}
		part.InternalCommandStatuses = append(part.InternalCommandStatuses, status)
	}

	return part, nil
}

func parseCoinbase(tuple []jsoniter.RawMessage) (coinbase *Coinbase, err error) {
	coinbase = &Coinbase{Kind: CoinbaseZero}
	if len(tuple) == 0 {
		return coinbase, nil
	}

	var tag string
	if err = json.Unmarshal(tuple[0], &tag); err != nil {
		return nil, errors.Errorf("coinbase tag (%v): %w", err, ErrMalformedBlock)
	}

	switch tag {
	case "Zero":
		return coinbase, nil
	case "One":
		coinbase.Kind = CoinbaseOne
	case "Two":
		coinbase.Kind = CoinbaseTwo
	default:
		return nil, errors.Errorf("coinbase tag %q: %w", tag, ErrMalformedBlock)
	}

	for _, rawFeeTransfer := range tuple[1:] {
		if isNull(rawFeeTransfer) {
			coinbase.FeeTransfers = append(coinbase.FeeTransfers, nil)
			continue
		}

		var decoded feeTransferReport
		if err = json.Unmarshal(rawFeeTransfer, &decoded); err != nil {
			return nil, errors.Errorf("coinbase fee transfer (%v): %w", err, ErrMalformedBlock)
		}

		feeTransfer := &FeeTransfer{}
		if feeTransfer.Receiver, err = PublicKeyFromBase58(decoded.ReceiverPK); err != nil {
			return nil, errors.Errorf("coinbase fee transfer receiver (%v): %w", err, ErrMalformedBlock)
		}
		if feeTransfer.Fee, err = ParseAmount(decoded.Fee); err != nil {
			return nil, err
		}
		coinbase.FeeTransfers = append(coinbase.FeeTransfers, feeTransfer)
	}

	return coinbase, nil
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region user commands ////////////////////////////////////////////////////////////////////////////////////////////////

type signedCommandReport struct {
	Payload struct {
		Common struct {
			Fee        string   `json:"fee"`
			FeeToken   flexUint `json:"fee_token"`
			FeePayerPK string   `json:"fee_payer_pk"`
			Nonce      flexUint `json:"nonce"`
			Memo       string   `json:"memo"`
		} `json:"common"`
		Body []jsoniter.RawMessage `json:"body"`
	} `json:"payload"`
}

type paymentReport struct {
	SourcePK   string   `json:"source_pk"`
	ReceiverPK string   `json:"receiver_pk"`
	TokenID    flexUint `json:"token_id"`
	Amount     string   `json:"amount"`
}

type delegationReport struct {
	Delegator   string `json:"delegator"`
	NewDelegate string `json:"new_delegate"`
}

func parseUserCommand(data, status []jsoniter.RawMessage) (command *UserCommand, err error) {
	if len(data) != 2 || len(status) == 0 {
		return nil, errors.Errorf("command data or status missing: %w", ErrMalformedBlock)
	}

	var kind string
	if err = json.Unmarshal(data[0], &kind); err != nil || kind != "Signed_command" {
		return nil, errors.Errorf("command kind %q: %w", kind, ErrUnknownCommand)
	}

	var signedCommand signedCommandReport
	if err = json.Unmarshal(data[1], &signedCommand); err != nil {
		return nil, errors.Errorf("signed command (%v): %w", err, ErrMalformedBlock)
	}

	common := signedCommand.Payload.Common
	command = &UserCommand{
		FeeToken: uint64(common.FeeToken),
		Nonce:    uint64(common.Nonce),
		Memo:     common.Memo,
	}
	if command.FeeToken == 0 {
		command.FeeToken = 1
	}
	if command.Status, err = parseStatus(status[0]); err != nil {
		return nil, err
	}
	if command.Fee, err = ParseAmount(common.Fee); err != nil {
		return nil, err
	}
	if command.FeePayer, err = PublicKeyFromBase58(common.FeePayerPK); err != nil {
		return nil, errors.Errorf("fee payer (%v): %w", err, ErrMalformedBlock)
	}

	if err = parseCommandBody(command, signedCommand.Payload.Body); err != nil {
		return nil, err
	}

	return command, nil
}

func parseCommandBody(command *UserCommand, body []jsoniter.RawMessage) (err error) {
	if len(body) != 2 {
		return errors.Errorf("command body: %w", ErrMalformedBlock)
	}

	var tag string
	if err = json.Unmarshal(body[0], &tag); err != nil {
		return errors.Errorf("command body tag (%v): %w", err, ErrMalformedBlock)
	}

	switch tag {
	case "Payment":
		var payment paymentReport
		if err = json.Unmarshal(body[1], &payment); err != nil {
			return errors.Errorf("payment (%v): %w", err, ErrMalformedBlock)
		}

		command.Kind = Payment
		command.Token = uint64(payment.TokenID)
		if command.Token == 0 {
			command.Token = 1
		}
		if command.Source, err = PublicKeyFromBase58(payment.SourcePK); err != nil {
			return errors.Errorf("payment source (%v): %w", err, ErrMalformedBlock)
		}
		if command.Receiver, err = PublicKeyFromBase58(payment.ReceiverPK); err != nil {
			return errors.Errorf("payment receiver (%v): %w", err, ErrMalformedBlock)
		}
		if command.Amount, err = ParseAmount(payment.Amount); err != nil {
			return err
		}

		return nil
	case "Stake_delegation":
		var delegation []jsoniter.RawMessage
		if err = json.Unmarshal(body[1], &delegation); err != nil || len(delegation) != 2 {
			return errors.Errorf("stake delegation: %w", ErrMalformedBlock)
		}

		var decoded delegationReport
		if err = json.Unmarshal(delegation[1], &decoded); err != nil {
			return errors.Errorf("stake delegation (%v): %w", err, ErrMalformedBlock)
		}

		command.Kind = StakeDelegation
		command.Token = 1
		if command.Source, err = PublicKeyFromBase58(decoded.Delegator); err != nil {
			return errors.Errorf("delegator (%v): %w", err, ErrMalformedBlock)
		}
		if command.Receiver, err = PublicKeyFromBase58(decoded.NewDelegate); err != nil {
			return errors.Errorf("new delegate (%v): %w", err, ErrMalformedBlock)
		}

		return nil
	default:
		return errors.Errorf("command body %q: %w", tag, ErrUnknownCommand)
	}
}

// parseStatus accepts both ["Applied", ...] tuples and bare "Applied" strings.
func parseStatus(raw jsoniter.RawMessage) (status Status, err error) {
	var tag string
	if err = json.Unmarshal(raw, &tag); err == nil {
		return StatusFromString(tag)
	}

	var tuple []jsoniter.RawMessage
	if err = json.Unmarshal(raw, &tuple); err != nil || len(tuple) == 0 {
		return Failed, errors.Errorf("status: %w", ErrUnknownStatus)
	}

	if err = json.Unmarshal(tuple[0], &tag); err != nil {
		return Failed, errors.Errorf("status tag: %w", ErrUnknownStatus)
	}

	return StatusFromString(tag)
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////

// region utils ////////////////////////////////////////////////////////////////////////////////////////////////////////

// flexUint decodes unsigned integers that are encoded either as JSON numbers or as decimal strings.
type flexUint uint64

func (f *flexUint) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)
	if text == "" || text == "null" {
		*f = 0
		return nil
	}

	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return errors.Errorf("invalid unsigned integer %q: %w", text, err)
	}
	*f = flexUint(value)

	return nil
}

func isNull(raw jsoniter.RawMessage) bool {
	return len(raw) == 0 || strings.TrimSpace(string(raw)) == "null"
}

// endregion ///////////////////////////////////////////////////////////////////////////////////////////////////////////
