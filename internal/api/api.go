// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The api package exposes the development chain and its issuance ledger over HTTP.
package api

import (
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/journal"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
)

// Register the ledger API to echo.
// The journal is optional; without it the /journal routes answer 503.
func Register(e *echo.Echo, c *chain.Chain, address common.Address, j *journal.Repository) {
	a := &ledgerAPI{chain: c, address: address, journal: j}
	e.POST("/rpc", a.SendTransaction)
	e.POST("/call", a.Call)
	e.GET("/receipts/:hash", a.GetReceipt)
	e.GET("/ledger/info", a.GetInfo)
	e.GET("/ledger/tokens/:id", a.GetToken)
	e.GET("/ledger/royalty", a.GetRoyalty)
	e.POST("/ledger/mint", a.Mint)
	e.GET("/journal/mints", a.GetMints)
	e.GET("/journal/payouts", a.GetPayouts)
	e.GET("/journal/gas", a.GetGas)
	e.GET("/accounts/:address/balance", a.GetBalance)
}

// Shared struct for request handlers.
type ledgerAPI struct {
	chain   *chain.Chain
	address common.Address
	journal *journal.Repository
}

// A transaction as sent to POST /rpc and POST /call.
type TransactionRequest struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Value    *hexutil.Big    `json:"value"`
	Data     hexutil.Bytes   `json:"data"`
	GasPrice *hexutil.Big    `json:"gasPrice"`
}

type CallResponse struct {
	Result hexutil.Bytes `json:"result"`
}

// A mint as sent to POST /ledger/mint. Value is in wei, decimal or 0x hex.
type MintRequest struct {
	From  common.Address `json:"from"`
	URI   string         `json:"uri"`
	Value string         `json:"value"`
}

type MintResponse struct {
	TokenID *uint64        `json:"tokenId,omitempty"`
	Receipt *chain.Receipt `json:"receipt"`
}

type LedgerInfo struct {
	Address           common.Address `json:"address"`
	Name              string         `json:"name"`
	Symbol            string         `json:"symbol"`
	Owner             common.Address `json:"owner"`
	MintPrice         string         `json:"mintPrice"`
	MaxSupply         uint64         `json:"maxSupply"`
	TotalSupply       uint64         `json:"totalSupply"`
	CurrentTokenCount uint64         `json:"currentTokenCount"`
	BaseURI           string         `json:"baseURI"`
	RoyaltyRecipient  common.Address `json:"royaltyRecipient"`
}

type TokenResponse struct {
	ID    uint64         `json:"id"`
	URI   string         `json:"uri"`
	Owner common.Address `json:"owner"`
}

type RoyaltyResponse struct {
	Receiver      common.Address `json:"receiver"`
	RoyaltyAmount string         `json:"royaltyAmount"`
}

type BalanceResponse struct {
	Address common.Address `json:"address"`
	Balance string         `json:"balance"`
}

// Handle POST requests to /rpc.
// Reverted transactions answer with the status of their error kind and the receipt.
func (a *ledgerAPI) SendTransaction(c echo.Context) error {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	receipt, err := a.chain.SendTransaction(chain.Transaction{
		From:     req.From,
		To:       req.To,
		Value:    req.Value.ToInt(),
		Data:     req.Data,
		GasPrice: req.GasPrice.ToInt(),
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(receiptStatus(receipt), receipt)
}

// Handle POST requests to /call.
func (a *ledgerAPI) Call(c echo.Context) error {
	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	to := req.To
	if to == nil {
		to = &a.address
	}
	output, err := a.chain.Call(chain.Transaction{
		From:  req.From,
		To:    to,
		Value: req.Value.ToInt(),
		Data:  req.Data,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, CallResponse{Result: output})
}

// Handle GET requests to /receipts/:hash.
func (a *ledgerAPI) GetReceipt(c echo.Context) error {
	raw := c.Param("hash")
	hash, err := hexutil.Decode(raw)
	if err != nil || len(hash) != common.HashLength {
		return badRequest(c, fmt.Sprintf("invalid transaction hash %q", raw))
	}
	receipt, err := a.chain.Receipt(common.BytesToHash(hash))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, receipt)
}

// Handle GET requests to /ledger/info.
func (a *ledgerAPI) GetInfo(c echo.Context) error {
	info := LedgerInfo{Address: a.address}
	var err error
	read := func(method string, args ...interface{}) []interface{} {
		if err != nil {
			return nil
		}
		var values []interface{}
		values, err = a.view(method, args...)
		return values
	}
	name := read("name")
	symbol := read("symbol")
	owner := read("owner")
	price := read("getMintPrice")
	maxSupply := read("getMaxSupply")
	totalSupply := read("totalSupply")
	count := read("getCurrentTokenCount")
	baseURI := read("getBaseURI")
	royalty := read("royaltyInfo", new(big.Int), new(big.Int))
	if err != nil {
		return errorJSON(c, err)
	}
	info.Name = name[0].(string)
	info.Symbol = symbol[0].(string)
	info.Owner = owner[0].(common.Address)
	info.MintPrice = price[0].(*big.Int).String()
	info.MaxSupply = maxSupply[0].(*big.Int).Uint64()
	info.TotalSupply = totalSupply[0].(*big.Int).Uint64()
	info.CurrentTokenCount = count[0].(*big.Int).Uint64()
	info.BaseURI = baseURI[0].(string)
	info.RoyaltyRecipient = royalty[0].(common.Address)
	return c.JSON(http.StatusOK, info)
}

// Handle GET requests to /ledger/tokens/:id.
func (a *ledgerAPI) GetToken(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, fmt.Sprintf("invalid token id %q", c.Param("id")))
	}
	tokenID := new(big.Int).SetUint64(id)
	uri, err := a.view("tokenURI", tokenID)
	if err != nil {
		return errorJSON(c, err)
	}
	owner, err := a.view("ownerOf", tokenID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, TokenResponse{
		ID:    id,
		URI:   uri[0].(string),
		Owner: owner[0].(common.Address),
	})
}

// Handle GET requests to /ledger/royalty.
func (a *ledgerAPI) GetRoyalty(c echo.Context) error {
	tokenID, ok := parseAmount(c.QueryParam("tokenId"))
	if !ok {
		return badRequest(c, fmt.Sprintf("invalid tokenId %q", c.QueryParam("tokenId")))
	}
	salePrice, ok := parseAmount(c.QueryParam("salePrice"))
	if !ok {
		return badRequest(c, fmt.Sprintf("invalid salePrice %q", c.QueryParam("salePrice")))
	}
	values, err := a.view("royaltyInfo", tokenID, salePrice)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, RoyaltyResponse{
		Receiver:      values[0].(common.Address),
		RoyaltyAmount: values[1].(*big.Int).String(),
	})
}

// Handle POST requests to /ledger/mint.
func (a *ledgerAPI) Mint(c echo.Context) error {
	var req MintRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	value := new(big.Int)
	if req.Value != "" {
		var ok bool
		value, ok = parseAmount(req.Value)
		if !ok {
			return badRequest(c, fmt.Sprintf("invalid value %q", req.Value))
		}
	}
	data, err := contract.Pack("mintTo", req.URI)
	if err != nil {
		return errorJSON(c, err)
	}
	receipt, err := a.chain.SendTransaction(chain.Transaction{
		From:  req.From,
		To:    &a.address,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	resp := MintResponse{Receipt: receipt}
	if receipt.Succeeded() {
		values, err := contract.Unpack("mintTo", receipt.Output)
		if err != nil {
			return errorJSON(c, err)
		}
		tokenID := values[0].(*big.Int).Uint64()
		resp.TokenID = &tokenID
		slog.Info("api: minted", "tokenId", tokenID, "minter", req.From)
		return c.JSON(http.StatusCreated, resp)
	}
	return c.JSON(receiptStatus(receipt), resp)
}

// Handle GET requests to /journal/mints.
func (a *ledgerAPI) GetMints(c echo.Context) error {
	if a.journal == nil {
		return journalDisabled(c)
	}
	mints, err := a.journal.FindMints(c.Request().Context(), a.address)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, mints)
}

// Handle GET requests to /journal/payouts.
func (a *ledgerAPI) GetPayouts(c echo.Context) error {
	if a.journal == nil {
		return journalDisabled(c)
	}
	payouts, err := a.journal.FindPayouts(c.Request().Context(), a.address)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, payouts)
}

// Handle GET requests to /journal/gas.
func (a *ledgerAPI) GetGas(c echo.Context) error {
	if a.journal == nil {
		return journalDisabled(c)
	}
	usage, err := a.journal.GasByMethod(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, usage)
}

// Handle GET requests to /accounts/:address/balance.
func (a *ledgerAPI) GetBalance(c echo.Context) error {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		return badRequest(c, fmt.Sprintf("invalid address %q", raw))
	}
	address := common.HexToAddress(raw)
	return c.JSON(http.StatusOK, BalanceResponse{
		Address: address,
		Balance: a.chain.Balance(address).String(),
	})
}

// Run a read-only method of the ledger.
func (a *ledgerAPI) view(method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	output, err := a.chain.Call(chain.Transaction{To: &a.address, Data: data})
	if err != nil {
		return nil, err
	}
	return contract.Unpack(method, output)
}

func receiptStatus(receipt *chain.Receipt) int {
	if receipt.Succeeded() {
		return http.StatusOK
	}
	return statusOfKind(receipt.ErrorKind)
}

func journalDisabled(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   http.StatusText(http.StatusServiceUnavailable),
		Message: "the journal is disabled",
	})
}

// Parse a non-negative decimal or 0x hex amount that fits a uint256.
func parseAmount(raw string) (*big.Int, bool) {
	amount, ok := new(big.Int).SetString(raw, 0)
	if !ok || amount.Sign() < 0 || amount.BitLen() > 256 {
		return nil, false
	}
	return amount, true
}
