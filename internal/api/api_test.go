package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/commons"
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/journal"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/courtneycrews/ccnft/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	suite.Suite
	echo      *echo.Echo
	chain     *chain.Chain
	dbFactory *commons.DbFactory
	journal   *journal.Repository
	owner     common.Address
	artist    common.Address
	buyer     common.Address
	contract  common.Address
	price     *big.Int
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	commons.ConfigureLog(slog.LevelDebug)
	accounts, err := wallet.TestAccounts(3)
	s.Require().NoError(err)
	s.owner = accounts[0].Address
	s.artist = accounts[1].Address
	s.buyer = accounts[2].Address
	s.price = big.NewInt(params.Ether)
	s.chain = chain.New(chain.DevChainID, chain.DevGenesis([]common.Address{s.owner, s.artist, s.buyer}))
	input, err := contract.PackConstructor(ledger.Config{
		MintPrice:          s.price,
		MaxSupply:          2,
		BaseURI:            "ipfs://base",
		RoyaltyRecipient:   s.artist,
		RoyaltyBasisPoints: 500,
	})
	s.Require().NoError(err)
	receipt, err := s.chain.SendTransaction(chain.Transaction{From: s.owner, Data: input})
	s.Require().NoError(err)
	s.contract = *receipt.ContractAddress

	s.dbFactory = commons.NewDbFactory()
	s.journal = &journal.Repository{Db: s.dbFactory.CreateDb("api.sqlite3")}
	s.Require().NoError(s.journal.CreateTables())

	s.echo = echo.New()
	Register(s.echo, s.chain, s.contract, s.journal)
}

func (s *APISuite) TearDownTest() {
	s.journal.Db.Close()
	s.dbFactory.Cleanup()
}

func (s *APISuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *APISuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *APISuite) mint(uri string, value *big.Int) *httptest.ResponseRecorder {
	body := fmt.Sprintf(`{"from":"%s","uri":"%s","value":"%s"}`, s.buyer.Hex(), uri, value)
	return s.do(http.MethodPost, "/ledger/mint", body)
}

func (s *APISuite) TestGetInfo() {
	rec := s.do(http.MethodGet, "/ledger/info", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var info LedgerInfo
	s.decode(rec, &info)
	s.Equal(s.contract, info.Address)
	s.Equal("CourtneyCrewsNFTContract", info.Name)
	s.Equal("CC", info.Symbol)
	s.Equal(s.owner, info.Owner)
	s.Equal(s.price.String(), info.MintPrice)
	s.Equal(uint64(2), info.MaxSupply)
	s.Equal(uint64(0), info.TotalSupply)
	s.Equal("ipfs://base", info.BaseURI)
	s.Equal(s.artist, info.RoyaltyRecipient)
}

func (s *APISuite) TestMintAndReadTheToken() {
	rec := s.mint("ipfs://token-0", s.price)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var minted MintResponse
	s.decode(rec, &minted)
	s.Require().NotNil(minted.TokenID)
	s.Equal(uint64(0), *minted.TokenID)
	s.Len(minted.Receipt.Logs, 2)

	rec = s.do(http.MethodGet, "/ledger/tokens/0", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var token TokenResponse
	s.decode(rec, &token)
	s.Equal("ipfs://token-0", token.URI)
	s.Equal(s.buyer, token.Owner)
}

func (s *APISuite) TestMintErrors() {
	rec := s.mint("uri", big.NewInt(1))
	s.Equal(http.StatusPaymentRequired, rec.Code)
	var resp MintResponse
	s.decode(rec, &resp)
	s.Nil(resp.TokenID)
	s.Equal("IncorrectPayment", resp.Receipt.ErrorKind)

	s.mint("uri", s.price)
	s.mint("uri", s.price)
	rec = s.mint("uri", s.price)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/ledger/mint", `{"from":"`+s.buyer.Hex()+`","uri":"u","value":"lots"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestMintWithFailingPayout() {
	s.chain.Reject(s.owner)
	rec := s.mint("uri", s.price)
	s.Equal(http.StatusBadGateway, rec.Code)
}

func (s *APISuite) TestUnknownToken() {
	rec := s.do(http.MethodGet, "/ledger/tokens/5", "")
	s.Equal(http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	s.decode(rec, &resp)
	s.Equal("UnknownToken", resp.Error)

	rec = s.do(http.MethodGet, "/ledger/tokens/abc", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestGetRoyalty() {
	rec := s.do(http.MethodGet, "/ledger/royalty?tokenId=1&salePrice=2000000000000000000", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var royalty RoyaltyResponse
	s.decode(rec, &royalty)
	s.Equal(s.artist, royalty.Receiver)
	s.Equal("100000000000000000", royalty.RoyaltyAmount)

	rec = s.do(http.MethodGet, "/ledger/royalty?tokenId=1", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestAmountsAboveUint256() {
	tooBig := "0x1" + strings.Repeat("0", 64)
	rec := s.do(http.MethodGet, "/ledger/royalty?tokenId=1&salePrice="+tooBig, "")
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/ledger/tokens/"+tooBig, "")
	s.Equal(http.StatusBadRequest, rec.Code, rec.Body.String())

	maxUint256 := "0x" + strings.Repeat("f", 64)
	rec = s.do(http.MethodGet, "/ledger/royalty?tokenId=1&salePrice="+maxUint256, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var royalty RoyaltyResponse
	s.decode(rec, &royalty)
	salePrice, _ := new(big.Int).SetString(maxUint256[2:], 16)
	expected := new(big.Int).Div(new(big.Int).Mul(salePrice, big.NewInt(500)), big.NewInt(10000))
	s.Equal(expected.String(), royalty.RoyaltyAmount)
}

func (s *APISuite) TestDirectTransfersAreForbidden() {
	body := fmt.Sprintf(`{"from":"%s","to":"%s","value":"0xde0b6b3a7640000"}`, s.buyer.Hex(), s.contract.Hex())
	rec := s.do(http.MethodPost, "/rpc", body)
	s.Equal(http.StatusForbidden, rec.Code)
	var receipt chain.Receipt
	s.decode(rec, &receipt)
	s.Equal("UnauthorizedDirectTransfer", receipt.ErrorKind)
}

func (s *APISuite) TestSendRawMint() {
	data, err := contract.Pack("mintTo", "raw")
	s.Require().NoError(err)
	body := fmt.Sprintf(`{"from":"%s","to":"%s","value":"%s","data":"%s"}`,
		s.buyer.Hex(), s.contract.Hex(), hexutil.EncodeBig(s.price), hexutil.Encode(data))
	rec := s.do(http.MethodPost, "/rpc", body)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var receipt chain.Receipt
	s.decode(rec, &receipt)
	s.Equal(chain.ReceiptStatusSuccessful, receipt.Status)

	rec = s.do(http.MethodGet, "/receipts/"+receipt.TxHash.Hex(), "")
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/receipts/"+common.Hash{}.Hex(), "")
	s.Equal(http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodGet, "/receipts/0x12", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestCall() {
	data, err := contract.Pack("getMaxSupply")
	s.Require().NoError(err)
	rec := s.do(http.MethodPost, "/call", fmt.Sprintf(`{"data":"%s"}`, hexutil.Encode(data)))
	s.Require().Equal(http.StatusOK, rec.Code)
	var resp CallResponse
	s.decode(rec, &resp)
	values, err := contract.Unpack("getMaxSupply", resp.Result)
	s.Require().NoError(err)
	s.Equal(int64(2), values[0].(*big.Int).Int64())

	data, err = contract.Pack("mintTo", "uri")
	s.Require().NoError(err)
	rec = s.do(http.MethodPost, "/call", fmt.Sprintf(`{"data":"%s"}`, hexutil.Encode(data)))
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *APISuite) TestJournal() {
	s.mint("uri-0", s.price)
	indexer := journal.Indexer{Chain: s.chain, Repository: s.journal}
	_, err := indexer.Sync(context.Background(), 0)
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/journal/mints", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var mints []journal.Mint
	s.decode(rec, &mints)
	s.Require().Len(mints, 1)
	s.Equal(s.buyer.Hex(), mints[0].Minter)

	rec = s.do(http.MethodGet, "/journal/payouts", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var payouts []journal.Payout
	s.decode(rec, &payouts)
	s.Require().Len(payouts, 1)
	s.Equal(s.owner.Hex(), payouts[0].Recipient)

	rec = s.do(http.MethodGet, "/journal/gas", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *APISuite) TestJournalDisabled() {
	e := echo.New()
	Register(e, s.chain, s.contract, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal/mints", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func (s *APISuite) TestGetBalance() {
	rec := s.do(http.MethodGet, "/accounts/"+s.buyer.Hex()+"/balance", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var balance BalanceResponse
	s.decode(rec, &balance)
	s.Equal(chain.DevAccountBalance.String(), balance.Balance)

	rec = s.do(http.MethodGet, "/accounts/nope/balance", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}
