// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package chain

import (
	"github.com/courtneycrews/ccnft/internal/contract"
)

// Method names used for transactions that do not call a ledger method.
const (
	MethodDeploy   = "deploy"
	MethodTransfer = "transfer"
	MethodFallback = "fallback"
)

// Base cost of any transaction.
const IntrinsicGas = 21_000

// GasSchedule is the gas charged per method on top of the intrinsic cost.
// The figures approximate the compiled contract and only feed the gas report.
type GasSchedule map[string]uint64

func DefaultGasSchedule() GasSchedule {
	return GasSchedule{
		MethodDeploy:   2_400_000,
		MethodTransfer: 0,
		MethodFallback: 2_300,
		"mintTo":       143_000,
	}
}

// Cost returns the total gas used by a call to method.
func (g GasSchedule) Cost(method string) uint64 {
	return IntrinsicGas + g[method]
}

func methodName(tx Transaction) string {
	if tx.To == nil {
		return MethodDeploy
	}
	if len(tx.Data) == 0 {
		return MethodTransfer
	}
	if len(tx.Data) >= 4 {
		if method, err := contract.ABI.MethodById(tx.Data[:4]); err == nil {
			return method.Name
		}
	}
	return MethodFallback
}
