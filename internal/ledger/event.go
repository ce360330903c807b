// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Event is an observable effect of a successful mint.
type Event interface {
	EventName() string
}

// Emitted once per mint, before FundsDistributed.
type MintingCompleted struct {
	TokenID uint64
	Minter  common.Address
}

func (MintingCompleted) EventName() string {
	return "MintingCompleted"
}

// Emitted once per mint after the proceeds reached the owner.
type FundsDistributed struct {
	Recipient common.Address
	Amount    *big.Int
}

func (FundsDistributed) EventName() string {
	return "FundsDistributed"
}
