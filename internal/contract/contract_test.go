package contract

import (
	"math/big"
	"testing"

	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/suite"
)

type okTreasury struct{}

func (okTreasury) Transfer(common.Address, *big.Int) error {
	return nil
}

type ContractSuite struct {
	suite.Suite
	config     ledger.Config
	owner      common.Address
	buyer      common.Address
	address    common.Address
	dispatcher *Dispatcher
}

func TestContractSuite(t *testing.T) {
	suite.Run(t, new(ContractSuite))
}

func (s *ContractSuite) SetupTest() {
	s.config = ledger.Config{
		MintPrice:          big.NewInt(2_000_000_000_000_000_000),
		MaxSupply:          3,
		BaseURI:            "ipfs://base",
		RoyaltyRecipient:   common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		RoyaltyBasisPoints: 500,
	}
	s.owner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	s.buyer = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	s.address = crypto.CreateAddress(s.owner, 0)
	l, err := ledger.New(s.config, s.owner, okTreasury{})
	s.Require().NoError(err)
	s.dispatcher = &Dispatcher{Address: s.address, Ledger: l}
}

func (s *ContractSuite) call(value *big.Int, method string, args ...interface{}) (*Result, error) {
	data, err := Pack(method, args...)
	s.Require().NoError(err)
	return s.dispatcher.Dispatch(Call{From: s.buyer, Value: value, Data: data})
}

func (s *ContractSuite) view(method string, args ...interface{}) []interface{} {
	result, err := s.call(nil, method, args...)
	s.Require().NoError(err)
	values, err := Unpack(method, result.Output)
	s.Require().NoError(err)
	return values
}

func (s *ContractSuite) TestConstructorRoundTrip() {
	input, err := PackConstructor(s.config)
	s.Require().NoError(err)
	config, err := UnpackConstructor(input)
	s.Require().NoError(err)
	s.Equal(s.config.MintPrice.String(), config.MintPrice.String())
	s.Equal(s.config.MaxSupply, config.MaxSupply)
	s.Equal(s.config.BaseURI, config.BaseURI)
	s.Equal(s.config.RoyaltyRecipient, config.RoyaltyRecipient)
	s.Equal(s.config.RoyaltyBasisPoints, config.RoyaltyBasisPoints)
}

func (s *ContractSuite) TestConstructorRejectsGarbage() {
	_, err := UnpackConstructor([]byte{0x01, 0x02})
	s.ErrorIs(err, ErrInvalidCalldata)
}

func (s *ContractSuite) TestItReadsTheGetters() {
	s.Equal("CourtneyCrewsNFTContract", s.view("name")[0])
	s.Equal("CC", s.view("symbol")[0])
	s.Equal(s.owner, s.view("owner")[0])
	s.Equal("ipfs://base", s.view("getBaseURI")[0])
	s.Equal(s.config.MintPrice.String(), s.view("getMintPrice")[0].(*big.Int).String())
	s.Equal(int64(3), s.view("getMaxSupply")[0].(*big.Int).Int64())
	s.Equal(int64(0), s.view("totalSupply")[0].(*big.Int).Int64())
	s.Equal(int64(0), s.view("getCurrentTokenCount")[0].(*big.Int).Int64())
}

func (s *ContractSuite) TestItComputesTheRoyalty() {
	values := s.view("royaltyInfo", big.NewInt(1), s.config.MintPrice)
	s.Equal(s.config.RoyaltyRecipient, values[0])
	s.Equal("100000000000000000", values[1].(*big.Int).String())
}

func (s *ContractSuite) TestItMintsAndEmitsLogs() {
	result, err := s.call(s.config.MintPrice, "mintTo", "uri-1")
	s.Require().NoError(err)
	values, err := Unpack("mintTo", result.Output)
	s.Require().NoError(err)
	s.Equal(int64(0), values[0].(*big.Int).Int64())

	s.Require().Len(result.Logs, 2)
	s.Equal(s.address, result.Logs[0].Address)
	s.Equal(ABI.Events["MintingCompleted"].ID, result.Logs[0].Topics[0])
	s.Equal(ABI.Events["FundsDistributed"].ID, result.Logs[1].Topics[0])

	first, err := DecodeEvent(result.Logs[0])
	s.Require().NoError(err)
	s.Equal(ledger.MintingCompleted{TokenID: 0, Minter: s.buyer}, first)
	second, err := DecodeEvent(result.Logs[1])
	s.Require().NoError(err)
	funds := second.(ledger.FundsDistributed)
	s.Equal(s.owner, funds.Recipient)
	s.Equal(s.config.MintPrice.String(), funds.Amount.String())

	s.Equal("uri-1", s.view("tokenURI", big.NewInt(0))[0])
	s.Equal(s.buyer, s.view("ownerOf", big.NewInt(0))[0])
	s.Equal(int64(1), s.view("totalSupply")[0].(*big.Int).Int64())
}

func (s *ContractSuite) TestItRevertsWithTheLedgerError() {
	_, err := s.call(big.NewInt(1), "mintTo", "uri")
	s.ErrorIs(err, ledger.ErrIncorrectPayment)
	kind, err := RevertKind(RevertData(err))
	s.NoError(err)
	s.Equal("IncorrectPayment", kind)

	_, err = s.call(nil, "tokenURI", big.NewInt(7))
	s.ErrorIs(err, ledger.ErrUnknownToken)
}

func (s *ContractSuite) TestItRejectsPlainTransfers() {
	_, err := s.dispatcher.Dispatch(Call{From: s.buyer, Value: s.config.MintPrice})
	s.ErrorIs(err, ledger.ErrUnauthorizedDirectTransfer)
	_, err = s.dispatcher.Dispatch(Call{From: s.buyer})
	s.ErrorIs(err, ledger.ErrUnauthorizedDirectTransfer)
}

func (s *ContractSuite) TestItRejectsUnknownSelectors() {
	for _, data := range [][]byte{{0x01}, {0xde, 0xad, 0xbe, 0xef}, {0xde, 0xad, 0xbe, 0xef, 0x00}} {
		_, err := s.dispatcher.Dispatch(Call{From: s.buyer, Data: data})
		s.ErrorIs(err, ledger.ErrUnauthorizedDirectTransfer)
	}
}

func (s *ContractSuite) TestItRejectsValueOnViews() {
	_, err := s.call(big.NewInt(1), "totalSupply")
	s.ErrorIs(err, ledger.ErrUnauthorizedDirectTransfer)
}

func (s *ContractSuite) TestItRejectsMalformedArguments() {
	data, err := Pack("tokenURI", big.NewInt(0))
	s.Require().NoError(err)
	_, err = s.dispatcher.Dispatch(Call{From: s.buyer, Data: data[:10]})
	s.ErrorIs(err, ErrInvalidCalldata)
}

func (s *ContractSuite) TestReadOnly() {
	view, _ := Pack("totalSupply")
	mint, _ := Pack("mintTo", "uri")
	s.True(ReadOnly(view))
	s.False(ReadOnly(mint))
	s.False(ReadOnly(nil))
}
