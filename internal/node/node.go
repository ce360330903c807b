// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package assembles the development node: the chain with a deployed
// issuance ledger, the journal indexer, and the HTTP API.
// This is separate from the main package to facilitate testing.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/courtneycrews/ccnft/internal/api"
	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/journal"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/courtneycrews/ccnft/internal/supervisor"
	"github.com/courtneycrews/ccnft/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const DefaultHttpPort = 8545
const HttpTimeout = 10 * time.Second

const (
	DefaultMintPrice = "2000000000000000000"
	DefaultMaxSupply = 3
	DefaultBaseURI   = "https://ipfs.io/ipfs/bafkreidr5a7hvyiilxfug2yqpbkdowcahpbsw4jszstz6iur5ae5dx7b54"
	// Second account of the test mnemonic.
	DefaultRoyaltyRecipient   = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	DefaultRoyaltyBasisPoints = 500
)

// Options to the node.
type NodeOpts struct {
	HttpAddress string
	HttpPort    int

	// Ledger constructor arguments.
	MintPrice          string
	MaxSupply          uint64
	BaseURI            string
	RoyaltyRecipient   string
	RoyaltyBasisPoints uint64

	// Index of the test account that deploys and owns the ledger.
	DeployerIndex uint32
	Accounts      int

	// If set, the journal is not started.
	DisableJournal   bool
	DbImplementation string
	SqliteFile       string
	PostgresURL      string

	TimeoutWorker time.Duration
}

// Create the options struct with default values.
func NewNodeOpts() NodeOpts {
	return NodeOpts{
		HttpAddress:        "127.0.0.1",
		HttpPort:           DefaultHttpPort,
		MintPrice:          DefaultMintPrice,
		MaxSupply:          DefaultMaxSupply,
		BaseURI:            DefaultBaseURI,
		RoyaltyRecipient:   DefaultRoyaltyRecipient,
		RoyaltyBasisPoints: DefaultRoyaltyBasisPoints,
		DeployerIndex:      0,
		Accounts:           wallet.DefaultAccountCount,
		DisableJournal:     false,
		DbImplementation:   journal.ImplementationSqlite,
		SqliteFile:         "",
		PostgresURL:        "",
		TimeoutWorker:      supervisor.DefaultSupervisorTimeout,
	}
}

// A running development network.
type Node struct {
	Chain    *chain.Chain
	Contract common.Address
	Owner    wallet.Account
	Accounts []wallet.Account
	Journal  *journal.Repository
}

// Close releases the journal database.
func (n *Node) Close() error {
	if n.Journal == nil {
		return nil
	}
	return n.Journal.Db.Close()
}

// Config builds the ledger configuration from the options.
func (opts NodeOpts) Config() (ledger.Config, error) {
	price, ok := new(big.Int).SetString(opts.MintPrice, 0)
	if !ok {
		return ledger.Config{}, fmt.Errorf("node: invalid mint price %q", opts.MintPrice)
	}
	if !common.IsHexAddress(opts.RoyaltyRecipient) {
		return ledger.Config{}, fmt.Errorf("node: invalid royalty recipient %q", opts.RoyaltyRecipient)
	}
	config := ledger.Config{
		MintPrice:          price,
		MaxSupply:          opts.MaxSupply,
		BaseURI:            opts.BaseURI,
		RoyaltyRecipient:   common.HexToAddress(opts.RoyaltyRecipient),
		RoyaltyBasisPoints: opts.RoyaltyBasisPoints,
	}
	return config, config.Validate()
}

// Start a chain with the funded test accounts and deploy the ledger on it.
func Deploy(opts NodeOpts) (*Node, error) {
	config, err := opts.Config()
	if err != nil {
		return nil, err
	}
	if opts.Accounts <= int(opts.DeployerIndex) {
		return nil, fmt.Errorf("node: deployer index %v out of %v accounts",
			opts.DeployerIndex, opts.Accounts)
	}
	accounts, err := wallet.TestAccounts(opts.Accounts)
	if err != nil {
		return nil, err
	}
	addresses := make([]common.Address, len(accounts))
	for i, account := range accounts {
		addresses[i] = account.Address
	}
	c := chain.New(chain.DevChainID, chain.DevGenesis(addresses))

	owner := accounts[opts.DeployerIndex]
	input, err := contract.PackConstructor(config)
	if err != nil {
		return nil, err
	}
	receipt, err := c.SendTransaction(chain.Transaction{From: owner.Address, Data: input})
	if err != nil {
		return nil, err
	}
	if !receipt.Succeeded() {
		return nil, fmt.Errorf("node: deploy failed: %w", receipt.Err())
	}
	slog.Info("node: ledger deployed", "address", receipt.ContractAddress, "owner", owner.Address)
	return &Node{
		Chain:    c,
		Contract: *receipt.ContractAddress,
		Owner:    owner,
		Accounts: accounts,
	}, nil
}

// Create the node supervisor.
// The caller must close the returned node.
func NewSupervisor(opts NodeOpts) (supervisor.SupervisorWorker, *Node, error) {
	var w supervisor.SupervisorWorker
	w.Name = "ccnft"
	w.Timeout = opts.TimeoutWorker

	n, err := Deploy(opts)
	if err != nil {
		return w, nil, err
	}

	if !opts.DisableJournal {
		repository, err := journal.Open(opts.DbImplementation, opts.SqliteFile, opts.PostgresURL)
		if err != nil {
			return w, nil, err
		}
		n.Journal = repository
		// the chain starts from genesis on every run
		if err := repository.Truncate(context.Background()); err != nil {
			n.Close()
			return w, nil, err
		}
		w.Workers = append(w.Workers, journal.Indexer{
			Chain:      n.Chain,
			Repository: repository,
		})
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		ErrorMessage: "Request timed out",
		Timeout:      HttpTimeout,
	}))
	api.Register(e, n.Chain, n.Contract, n.Journal)
	w.Workers = append(w.Workers, supervisor.HttpWorker{
		Address: fmt.Sprintf("%v:%v", opts.HttpAddress, opts.HttpPort),
		Handler: e,
	})
	return w, n, nil
}
