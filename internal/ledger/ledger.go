// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The ledger package implements the fixed-supply, fixed-price issuance state machine.
// It has no locks: the host that owns a ledger serializes every call.
package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fixed identity of the collection.
const (
	Name   = "CourtneyCrewsNFTContract"
	Symbol = "CC"
)

// Royalty rates are expressed over this denominator.
const BasisPointsDenominator = 10_000

// Immutable configuration of a ledger.
type Config struct {
	MintPrice          *big.Int
	MaxSupply          uint64
	BaseURI            string
	RoyaltyRecipient   common.Address
	RoyaltyBasisPoints uint64
}

// Validate checks the constructor constraints.
func (c Config) Validate() error {
	if c.MaxSupply == 0 {
		return fmt.Errorf("%w: max supply must be greater than zero", ErrInvalidConfiguration)
	}
	if c.MintPrice == nil || c.MintPrice.Sign() <= 0 {
		return fmt.Errorf("%w: mint price must be greater than zero", ErrInvalidConfiguration)
	}
	if c.RoyaltyBasisPoints > BasisPointsDenominator {
		return fmt.Errorf("%w: royalty basis points %d above %d",
			ErrInvalidConfiguration, c.RoyaltyBasisPoints, BasisPointsDenominator)
	}
	return nil
}

// Treasury moves the ledger's funds.
// Transfer must either move the whole amount or return an error and move nothing.
type Treasury interface {
	Transfer(to common.Address, amount *big.Int) error
}

// A single issued token.
type Token struct {
	ID    uint64
	URI   string
	Owner common.Address
}

// IssuanceLedger owns the configuration and the issued tokens.
type IssuanceLedger struct {
	config   Config
	owner    common.Address
	treasury Treasury
	tokens   []Token
}

// Create a new ledger owned by the deployer.
// Mint proceeds are forwarded to the deployer through the treasury.
func New(config Config, deployer common.Address, treasury Treasury) (*IssuanceLedger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if treasury == nil {
		return nil, fmt.Errorf("%w: missing treasury", ErrInvalidConfiguration)
	}
	config.MintPrice = new(big.Int).Set(config.MintPrice)
	return &IssuanceLedger{
		config:   config,
		owner:    deployer,
		treasury: treasury,
	}, nil
}

// MintTo issues the next token to the caller.
// The payment must match the mint price exactly and is forwarded to the owner.
// On error nothing changes.
func (l *IssuanceLedger) MintTo(caller common.Address, uri string, payment *big.Int) (uint64, []Event, error) {
	if l.issued() >= l.config.MaxSupply {
		return 0, nil, fmt.Errorf("%w: all %d tokens issued", ErrSupplyExhausted, l.config.MaxSupply)
	}
	if payment == nil || payment.Cmp(l.config.MintPrice) != 0 {
		return 0, nil, fmt.Errorf("%w: sent %v, price is %v",
			ErrIncorrectPayment, payment, l.config.MintPrice)
	}

	tokenID := l.issued()
	l.tokens = append(l.tokens, Token{ID: tokenID, URI: uri, Owner: caller})

	amount := new(big.Int).Set(payment)
	if err := l.treasury.Transfer(l.owner, amount); err != nil {
		l.tokens = l.tokens[:tokenID]
		return 0, nil, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}

	events := []Event{
		MintingCompleted{TokenID: tokenID, Minter: caller},
		FundsDistributed{Recipient: l.owner, Amount: amount},
	}
	return tokenID, events, nil
}

// Receive handles a plain value transfer. It always fails.
func (l *IssuanceLedger) Receive(caller common.Address, value *big.Int) error {
	return fmt.Errorf("%w: %v from %v", ErrUnauthorizedDirectTransfer, value, caller)
}

// TokenURI returns the URI given when the token was minted.
func (l *IssuanceLedger) TokenURI(tokenID *big.Int) (string, error) {
	token, err := l.token(tokenID)
	if err != nil {
		return "", err
	}
	return token.URI, nil
}

// OwnerOf returns the account that minted the token.
func (l *IssuanceLedger) OwnerOf(tokenID *big.Int) (common.Address, error) {
	token, err := l.token(tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return token.Owner, nil
}

// RoyaltyInfo returns the royalty owed on a sale.
// The policy is global, so the token does not need to exist.
func (l *IssuanceLedger) RoyaltyInfo(_ *big.Int, salePrice *big.Int) (common.Address, *big.Int) {
	amount := new(big.Int)
	if salePrice != nil {
		amount.Mul(salePrice, new(big.Int).SetUint64(l.config.RoyaltyBasisPoints))
		amount.Quo(amount, big.NewInt(BasisPointsDenominator))
	}
	return l.config.RoyaltyRecipient, amount
}

func (l *IssuanceLedger) TotalSupply() uint64 {
	return l.issued()
}

func (l *IssuanceLedger) CurrentTokenCount() uint64 {
	return l.issued()
}

func (l *IssuanceLedger) MaxSupply() uint64 {
	return l.config.MaxSupply
}

func (l *IssuanceLedger) MintPrice() *big.Int {
	return new(big.Int).Set(l.config.MintPrice)
}

func (l *IssuanceLedger) BaseURI() string {
	return l.config.BaseURI
}

func (l *IssuanceLedger) Name() string {
	return Name
}

func (l *IssuanceLedger) Symbol() string {
	return Symbol
}

func (l *IssuanceLedger) Owner() common.Address {
	return l.owner
}

// Tokens returns a copy of the issued tokens in issuance order.
func (l *IssuanceLedger) Tokens() []Token {
	tokens := make([]Token, len(l.tokens))
	copy(tokens, l.tokens)
	return tokens
}

func (l *IssuanceLedger) issued() uint64 {
	return uint64(len(l.tokens))
}

func (l *IssuanceLedger) token(tokenID *big.Int) (Token, error) {
	if tokenID == nil || tokenID.Sign() < 0 || !tokenID.IsUint64() || tokenID.Uint64() >= l.issued() {
		return Token{}, fmt.Errorf("%w: %v", ErrUnknownToken, tokenID)
	}
	return l.tokens[tokenID.Uint64()], nil
}
