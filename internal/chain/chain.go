// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The chain package is the development host of the issuance ledger.
// It orders transactions, keeps the account balances, and applies each
// transaction atomically. A single mutex serializes every state change.
package chain

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Chain id of the local development network.
const DevChainID = 31337

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownContract   = errors.New("unknown contract")
	ErrNotReadOnly       = errors.New("call would change state")
	ErrUnknownReceipt    = errors.New("unknown receipt")
)

// A transaction submitted to the chain.
// A nil To deploys a ledger with Data as the ABI-encoded constructor arguments.
type Transaction struct {
	From     common.Address
	To       *common.Address
	Value    *big.Int
	Data     []byte
	GasPrice *big.Int
}

// Chain holds the accounts and the deployed ledgers.
type Chain struct {
	mutex       sync.Mutex
	chainID     *big.Int
	balances    map[common.Address]*big.Int
	nonces      map[common.Address]uint64
	contracts   map[common.Address]*contract.Dispatcher
	rejecting   map[common.Address]bool
	receipts    []*Receipt
	blockNumber uint64
	gas         GasSchedule
}

// Create a new chain with the given initial balances.
func New(chainID int64, genesis map[common.Address]*big.Int) *Chain {
	balances := make(map[common.Address]*big.Int, len(genesis))
	for address, balance := range genesis {
		balances[address] = new(big.Int).Set(balance)
	}
	return &Chain{
		chainID:   big.NewInt(chainID),
		balances:  balances,
		nonces:    map[common.Address]uint64{},
		contracts: map[common.Address]*contract.Dispatcher{},
		rejecting: map[common.Address]bool{},
		gas:       DefaultGasSchedule(),
	}
}

func (c *Chain) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// BlockNumber returns the number of the latest block.
// Every transaction is mined in its own block.
func (c *Chain) BlockNumber() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.blockNumber
}

// Balance returns the balance of the account in wei.
func (c *Chain) Balance(address common.Address) *big.Int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return new(big.Int).Set(c.balance(address))
}

// Reject marks an account that refuses any incoming value.
func (c *Chain) Reject(address common.Address) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.rejecting[address] = true
}

// SendTransaction executes the transaction in a new block.
// A transaction that fails is still mined, with a failed receipt and no state change
// besides the sender nonce.
func (c *Chain) SendTransaction(tx Transaction) (*Receipt, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	value := tx.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("chain: negative value %v", value)
	}
	if tx.GasPrice != nil && tx.GasPrice.Sign() < 0 {
		return nil, fmt.Errorf("chain: negative gas price %v", tx.GasPrice)
	}
	nonce := c.nonces[tx.From]
	receipt := &Receipt{
		TxHash:      txHash(tx, nonce),
		From:        tx.From,
		To:          tx.To,
		Value:       (*hexutil.Big)(new(big.Int).Set(value)),
		BlockNumber: c.blockNumber + 1,
		Method:      methodName(tx),
	}
	receipt.GasUsed = c.gas.Cost(receipt.Method)
	fee := new(big.Int)
	if tx.GasPrice != nil {
		fee.Mul(tx.GasPrice, new(big.Int).SetUint64(receipt.GasUsed))
	}
	cost := new(big.Int).Add(value, fee)
	if c.balance(tx.From).Cmp(cost) < 0 {
		return nil, fmt.Errorf("%w: %v has %v, needs %v",
			ErrInsufficientFunds, tx.From, c.balance(tx.From), cost)
	}

	snapshot := c.snapshot()
	var err error
	if tx.To == nil {
		err = c.deploy(tx, nonce, value, receipt)
	} else {
		err = c.execute(tx, value, receipt)
	}
	if err != nil {
		c.revert(snapshot)
		receipt.fail(err)
		slog.Info("chain: transaction reverted", "hash", receipt.TxHash,
			"method", receipt.Method, "error", err)
	} else {
		receipt.Status = ReceiptStatusSuccessful
		slog.Info("chain: transaction mined", "hash", receipt.TxHash,
			"method", receipt.Method, "block", receipt.BlockNumber)
	}

	// fees and nonces are kept even when the transaction reverts
	c.debit(tx.From, fee)
	c.nonces[tx.From] = nonce + 1
	c.blockNumber++
	for i, log := range receipt.Logs {
		log.BlockNumber = receipt.BlockNumber
		log.TxHash = receipt.TxHash
		log.Index = uint(i)
	}
	c.receipts = append(c.receipts, receipt)
	return receipt, nil
}

// Call runs a read-only method against the latest state.
func (c *Chain) Call(tx Transaction) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if tx.To == nil {
		return nil, fmt.Errorf("%w: missing contract address", ErrUnknownContract)
	}
	d, ok := c.contracts[*tx.To]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownContract, *tx.To)
	}
	if !contract.ReadOnly(tx.Data) {
		return nil, ErrNotReadOnly
	}
	result, err := d.Dispatch(contract.Call{From: tx.From, Value: tx.Value, Data: tx.Data})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// Receipt returns the receipt of a mined transaction.
func (c *Chain) Receipt(hash common.Hash) (*Receipt, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for _, receipt := range c.receipts {
		if receipt.TxHash == hash {
			return receipt, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownReceipt, hash)
}

// ReceiptsFrom returns the receipts mined after the first n transactions.
func (c *Chain) ReceiptsFrom(n int) []*Receipt {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if n >= len(c.receipts) {
		return nil
	}
	receipts := make([]*Receipt, len(c.receipts)-n)
	copy(receipts, c.receipts[n:])
	return receipts
}

//
// Auxiliary methods; the caller must hold the mutex.
//

func (c *Chain) deploy(tx Transaction, nonce uint64, value *big.Int, receipt *Receipt) error {
	if value.Sign() != 0 {
		return fmt.Errorf("%w: constructor is not payable", ledger.ErrUnauthorizedDirectTransfer)
	}
	config, err := contract.UnpackConstructor(tx.Data)
	if err != nil {
		return err
	}
	address := crypto.CreateAddress(tx.From, nonce)
	l, err := ledger.New(config, tx.From, &treasury{chain: c, address: address})
	if err != nil {
		return err
	}
	c.contracts[address] = &contract.Dispatcher{Address: address, Ledger: l}
	receipt.ContractAddress = &address
	slog.Info("chain: deployed ledger", "address", address, "owner", tx.From,
		"maxSupply", config.MaxSupply, "mintPrice", config.MintPrice)
	return nil
}

func (c *Chain) execute(tx Transaction, value *big.Int, receipt *Receipt) error {
	to := *tx.To
	d, ok := c.contracts[to]
	if !ok {
		// plain transfer between accounts
		return c.transfer(tx.From, to, value)
	}
	if err := c.transfer(tx.From, to, value); err != nil {
		return err
	}
	result, err := d.Dispatch(contract.Call{From: tx.From, Value: value, Data: tx.Data})
	if err != nil {
		return err
	}
	receipt.Output = result.Output
	receipt.Logs = result.Logs
	return nil
}

func (c *Chain) transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if c.rejecting[to] {
		return fmt.Errorf("chain: %v refuses value transfers", to)
	}
	if c.balance(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: %v has %v, needs %v", ErrInsufficientFunds, from, c.balance(from), amount)
	}
	c.debit(from, amount)
	c.balances[to] = new(big.Int).Add(c.balance(to), amount)
	return nil
}

func (c *Chain) debit(address common.Address, amount *big.Int) {
	c.balances[address] = new(big.Int).Sub(c.balance(address), amount)
}

func (c *Chain) balance(address common.Address) *big.Int {
	balance, ok := c.balances[address]
	if !ok {
		return new(big.Int)
	}
	return balance
}

type snapshot map[common.Address]*big.Int

func (c *Chain) snapshot() snapshot {
	s := make(snapshot, len(c.balances))
	for address, balance := range c.balances {
		s[address] = balance
	}
	return s
}

func (c *Chain) revert(s snapshot) {
	c.balances = s
}

// treasury pays out of the balance of a deployed ledger.
// It runs inside SendTransaction, so the mutex is already held.
type treasury struct {
	chain   *Chain
	address common.Address
}

func (t *treasury) Transfer(to common.Address, amount *big.Int) error {
	if _, ok := t.chain.contracts[to]; ok {
		return fmt.Errorf("chain: contract %v does not accept value", to)
	}
	return t.chain.transfer(t.address, to, amount)
}

func txHash(tx Transaction, nonce uint64) common.Hash {
	to := common.Address{}
	if tx.To != nil {
		to = *tx.To
	}
	value := new(big.Int)
	if tx.Value != nil {
		value = tx.Value
	}
	return crypto.Keccak256Hash(
		tx.From.Bytes(),
		new(big.Int).SetUint64(nonce).Bytes(),
		to.Bytes(),
		value.Bytes(),
		tx.Data,
	)
}
