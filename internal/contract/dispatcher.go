// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package contract

import (
	"fmt"
	"math/big"

	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// A call addressed to a deployed ledger.
type Call struct {
	From  common.Address
	Value *big.Int
	Data  []byte
}

// Outcome of a successful call.
type Result struct {
	Output []byte
	Logs   []*types.Log
}

// Dispatcher routes calldata to the ledger deployed at Address.
type Dispatcher struct {
	Address common.Address
	Ledger  *ledger.IssuanceLedger
}

// Dispatch selects the operation from the first four bytes of the calldata.
// Plain value transfers and unknown selectors are rejected.
func (d *Dispatcher) Dispatch(call Call) (*Result, error) {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}
	if len(call.Data) == 0 {
		// receive
		return nil, d.Ledger.Receive(call.From, value)
	}
	var method *abi.Method
	if len(call.Data) >= 4 {
		method, _ = ABI.MethodById(call.Data[:4])
	}
	if method == nil {
		// fallback
		return nil, d.Ledger.Receive(call.From, value)
	}
	if !method.IsPayable() && value.Sign() != 0 {
		return nil, fmt.Errorf("%w: %s is not payable",
			ledger.ErrUnauthorizedDirectTransfer, method.Name)
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidCalldata, method.Name, err)
	}

	var logs []*types.Log
	var out []interface{}
	switch method.Name {
	case "mintTo":
		tokenID, events, err := d.Ledger.MintTo(call.From, args[0].(string), value)
		if err != nil {
			return nil, err
		}
		for _, event := range events {
			log, err := EncodeEvent(d.Address, event)
			if err != nil {
				return nil, err
			}
			logs = append(logs, log)
		}
		out = []interface{}{new(big.Int).SetUint64(tokenID)}
	case "tokenURI":
		uri, err := d.Ledger.TokenURI(args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		out = []interface{}{uri}
	case "ownerOf":
		owner, err := d.Ledger.OwnerOf(args[0].(*big.Int))
		if err != nil {
			return nil, err
		}
		out = []interface{}{owner}
	case "totalSupply":
		out = []interface{}{new(big.Int).SetUint64(d.Ledger.TotalSupply())}
	case "getCurrentTokenCount":
		out = []interface{}{new(big.Int).SetUint64(d.Ledger.CurrentTokenCount())}
	case "getMaxSupply":
		out = []interface{}{new(big.Int).SetUint64(d.Ledger.MaxSupply())}
	case "getMintPrice":
		out = []interface{}{d.Ledger.MintPrice()}
	case "getBaseURI":
		out = []interface{}{d.Ledger.BaseURI()}
	case "royaltyInfo":
		receiver, amount := d.Ledger.RoyaltyInfo(args[0].(*big.Int), args[1].(*big.Int))
		out = []interface{}{receiver, amount}
	case "name":
		out = []interface{}{d.Ledger.Name()}
	case "symbol":
		out = []interface{}{d.Ledger.Symbol()}
	case "owner":
		out = []interface{}{d.Ledger.Owner()}
	default:
		return nil, d.Ledger.Receive(call.From, value)
	}

	output, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, fmt.Errorf("contract: pack %s output: %w", method.Name, err)
	}
	return &Result{Output: output, Logs: logs}, nil
}

// ReadOnly reports whether the calldata selects a method that never changes state.
func ReadOnly(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	method, err := ABI.MethodById(data[:4])
	if err != nil {
		return false
	}
	return method.IsConstant()
}
