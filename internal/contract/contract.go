// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the external call surface of the issuance ledger.
// It decodes ABI calldata, dispatches it to the ledger, and encodes results and events.
package contract

import (
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed ledger.abi.json
var definition string

// Parsed ABI of the ledger.
var ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("contract: parse abi: %v", err))
	}
	ABI = parsed
}

// Calldata could not be decoded for the selected method.
var ErrInvalidCalldata = errors.New("invalid calldata")

// PackConstructor encodes the constructor arguments of a ledger.
func PackConstructor(config ledger.Config) ([]byte, error) {
	return ABI.Constructor.Inputs.Pack(
		config.MintPrice,
		new(big.Int).SetUint64(config.MaxSupply),
		config.BaseURI,
		config.RoyaltyRecipient,
		new(big.Int).SetUint64(config.RoyaltyBasisPoints),
	)
}

// UnpackConstructor decodes the constructor arguments of a ledger.
func UnpackConstructor(input []byte) (ledger.Config, error) {
	args, err := ABI.Constructor.Inputs.Unpack(input)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("%w: constructor: %v", ErrInvalidCalldata, err)
	}
	maxTokens := args[1].(*big.Int)
	royaltyBasis := args[4].(*big.Int)
	if !maxTokens.IsUint64() || !royaltyBasis.IsUint64() {
		return ledger.Config{}, fmt.Errorf("%w: max supply %v or royalty %v out of range",
			ledger.ErrInvalidConfiguration, maxTokens, royaltyBasis)
	}
	return ledger.Config{
		MintPrice:          args[0].(*big.Int),
		MaxSupply:          maxTokens.Uint64(),
		BaseURI:            args[2].(string),
		RoyaltyRecipient:   args[3].(common.Address),
		RoyaltyBasisPoints: royaltyBasis.Uint64(),
	}, nil
}

// Pack encodes a call to the named method.
func Pack(method string, args ...interface{}) ([]byte, error) {
	return ABI.Pack(method, args...)
}

// Unpack decodes the return values of the named method.
func Unpack(method string, output []byte) ([]interface{}, error) {
	return ABI.Unpack(method, output)
}

// RevertData encodes err as the custom error the ledger reverts with.
// It returns nil when err is not a ledger error.
func RevertData(err error) []byte {
	kind := ledger.Kind(err)
	if kind == "" {
		return nil
	}
	abiErr, ok := ABI.Errors[kind]
	if !ok {
		return nil
	}
	return common.CopyBytes(abiErr.ID[:4])
}

// RevertKind returns the name of the custom error encoded in data.
func RevertKind(data []byte) (string, error) {
	if len(data) < 4 {
		return "", fmt.Errorf("contract: revert data too short")
	}
	var selector [4]byte
	copy(selector[:], data[:4])
	abiErr, err := ABI.ErrorByID(selector)
	if err != nil {
		return "", err
	}
	return abiErr.Name, nil
}

// EncodeEvent converts a ledger event into a log emitted by the contract.
func EncodeEvent(address common.Address, event ledger.Event) (*types.Log, error) {
	abiEvent, ok := ABI.Events[event.EventName()]
	if !ok {
		return nil, fmt.Errorf("contract: unknown event %s", event.EventName())
	}
	var indexed []interface{}
	var data []interface{}
	switch e := event.(type) {
	case ledger.MintingCompleted:
		indexed = []interface{}{new(big.Int).SetUint64(e.TokenID), e.Minter}
	case ledger.FundsDistributed:
		indexed = []interface{}{e.Recipient}
		data = []interface{}{e.Amount}
	default:
		return nil, fmt.Errorf("contract: unsupported event %T", event)
	}
	query := make([][]interface{}, len(indexed))
	for i, arg := range indexed {
		query[i] = []interface{}{arg}
	}
	rules, err := abi.MakeTopics(query...)
	if err != nil {
		return nil, fmt.Errorf("contract: make topics: %w", err)
	}
	topics := []common.Hash{abiEvent.ID}
	for _, rule := range rules {
		topics = append(topics, rule[0])
	}
	payload, err := abiEvent.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		return nil, fmt.Errorf("contract: pack event: %w", err)
	}
	return &types.Log{
		Address: address,
		Topics:  topics,
		Data:    payload,
	}, nil
}

// DecodeEvent converts a log emitted by the contract back into a ledger event.
func DecodeEvent(log *types.Log) (ledger.Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("contract: log without topics")
	}
	abiEvent, err := ABI.EventByID(log.Topics[0])
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if len(log.Data) > 0 {
		if err := abiEvent.Inputs.NonIndexed().UnpackIntoMap(fields, log.Data); err != nil {
			return nil, fmt.Errorf("contract: unpack event: %w", err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range abiEvent.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("contract: parse topics: %w", err)
	}
	switch abiEvent.Name {
	case "MintingCompleted":
		return ledger.MintingCompleted{
			TokenID: fields["tokenId"].(*big.Int).Uint64(),
			Minter:  fields["minter"].(common.Address),
		}, nil
	case "FundsDistributed":
		return ledger.FundsDistributed{
			Recipient: fields["recipient"].(common.Address),
			Amount:    fields["amount"].(*big.Int),
		}, nil
	}
	return nil, fmt.Errorf("contract: unsupported event %s", abiEvent.Name)
}
