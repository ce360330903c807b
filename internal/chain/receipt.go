// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package chain

import (
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt of a mined transaction.
type Receipt struct {
	TxHash          common.Hash     `json:"transactionHash"`
	From            common.Address  `json:"from"`
	To              *common.Address `json:"to"`
	Value           *hexutil.Big    `json:"value"`
	ContractAddress *common.Address `json:"contractAddress,omitempty"`
	BlockNumber     uint64          `json:"blockNumber"`
	Method          string          `json:"method"`
	Status          uint64          `json:"status"`
	GasUsed         uint64          `json:"gasUsed"`
	Output          hexutil.Bytes   `json:"output,omitempty"`
	Logs            []*types.Log    `json:"logs"`
	RevertData      hexutil.Bytes   `json:"revertData,omitempty"`
	ErrorKind       string          `json:"errorKind,omitempty"`
	Error           string          `json:"error,omitempty"`

	err error
}

// Err returns the error that reverted the transaction, if any.
func (r *Receipt) Err() error {
	return r.err
}

func (r *Receipt) Succeeded() bool {
	return r.Status == ReceiptStatusSuccessful
}

func (r *Receipt) fail(err error) {
	r.err = err
	r.Status = ReceiptStatusFailed
	r.Output = nil
	r.Logs = nil
	r.RevertData = contract.RevertData(err)
	r.ErrorKind = ledger.Kind(err)
	r.Error = err.Error()
}
