// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// Balance of each development account, 10000 ether.
var DevAccountBalance = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))

// DevGenesis funds each address with DevAccountBalance.
func DevGenesis(addresses []common.Address) map[common.Address]*big.Int {
	genesis := make(map[common.Address]*big.Int, len(addresses))
	for _, address := range addresses {
		genesis[address] = new(big.Int).Set(DevAccountBalance)
	}
	return genesis
}
