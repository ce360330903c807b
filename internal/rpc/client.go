// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The rpc package reads the state of a remote network through its JSON-RPC endpoint.
package rpc

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

type Client struct {
	eth *ethclient.Client
}

// Summary of the latest block.
type BlockGas struct {
	Number   uint64
	GasUsed  uint64
	GasLimit uint64
	BaseFee  *big.Int
}

func Dial(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("rpc: missing endpoint url")
	}
	eth, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rpc: dial: %w", err)
	}
	return &Client{eth: eth}, nil
}

func (c *Client) Close() {
	c.eth.Close()
}

// LatestBlockGas returns the gas used by the latest block.
func (c *Client) LatestBlockGas(ctx context.Context) (*BlockGas, error) {
	header, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc: latest block: %w", err)
	}
	slog.Debug("rpc: latest block", "number", header.Number, "gasUsed", header.GasUsed)
	return &BlockGas{
		Number:   header.Number.Uint64(),
		GasUsed:  header.GasUsed,
		GasLimit: header.GasLimit,
		BaseFee:  header.BaseFee,
	}, nil
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := c.eth.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("rpc: chain id: %w", err)
	}
	return id, nil
}

// Balance returns the latest balance of the account in wei.
func (c *Client) Balance(ctx context.Context, address common.Address) (*big.Int, error) {
	balance, err := c.eth.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc: balance: %w", err)
	}
	return balance, nil
}

func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("rpc: gas price: %w", err)
	}
	return price, nil
}
