package journal

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/commons"
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/courtneycrews/ccnft/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/suite"
)

type JournalSuite struct {
	suite.Suite
	ctx        context.Context
	dbFactory  *commons.DbFactory
	repository *Repository
	chain      *chain.Chain
	owner      common.Address
	buyer      common.Address
	contract   common.Address
	price      *big.Int
}

func TestJournalSuite(t *testing.T) {
	suite.Run(t, new(JournalSuite))
}

func (s *JournalSuite) SetupTest() {
	commons.ConfigureLog(slog.LevelDebug)
	s.ctx = context.Background()
	s.dbFactory = commons.NewDbFactory()
	db := s.dbFactory.CreateDb("journal.sqlite3")
	s.repository = &Repository{Db: db}
	s.Require().NoError(s.repository.CreateTables())

	accounts, err := wallet.TestAccounts(3)
	s.Require().NoError(err)
	s.owner = accounts[0].Address
	s.buyer = accounts[2].Address
	s.price = big.NewInt(params.Ether)
	s.chain = chain.New(chain.DevChainID, chain.DevGenesis([]common.Address{s.owner, s.buyer}))
	input, err := contract.PackConstructor(ledger.Config{
		MintPrice:          s.price,
		MaxSupply:          2,
		BaseURI:            "ipfs://base",
		RoyaltyRecipient:   accounts[1].Address,
		RoyaltyBasisPoints: 500,
	})
	s.Require().NoError(err)
	receipt, err := s.chain.SendTransaction(chain.Transaction{From: s.owner, Data: input})
	s.Require().NoError(err)
	s.Require().True(receipt.Succeeded())
	s.contract = *receipt.ContractAddress
}

func (s *JournalSuite) TearDownTest() {
	s.repository.Db.Close()
	s.dbFactory.Cleanup()
}

func (s *JournalSuite) mint(uri string) *chain.Receipt {
	data, err := contract.Pack("mintTo", uri)
	s.Require().NoError(err)
	receipt, err := s.chain.SendTransaction(chain.Transaction{
		From: s.buyer, To: &s.contract, Value: s.price, Data: data,
	})
	s.Require().NoError(err)
	return receipt
}

func (s *JournalSuite) sync() uint64 {
	indexer := Indexer{Chain: s.chain, Repository: s.repository}
	cursor, err := indexer.Sync(s.ctx, 0)
	s.Require().NoError(err)
	return cursor
}

func (s *JournalSuite) TestCreateTablesTwice() {
	s.NoError(s.repository.CreateTables())
}

func (s *JournalSuite) TestItSavesMintsAndPayouts() {
	s.mint("uri-0")
	s.mint("uri-1")
	s.Equal(uint64(3), s.sync())

	count, err := s.repository.CountMints(s.ctx, s.contract)
	s.Require().NoError(err)
	s.Equal(uint64(2), count)

	mints, err := s.repository.FindMints(s.ctx, s.contract)
	s.Require().NoError(err)
	s.Require().Len(mints, 2)
	s.Equal(uint64(0), mints[0].TokenID)
	s.Equal(uint64(1), mints[1].TokenID)
	s.Equal(s.buyer.Hex(), mints[0].Minter)
	s.Equal(uint64(2), mints[0].BlockNumber)

	payouts, err := s.repository.FindPayouts(s.ctx, s.contract)
	s.Require().NoError(err)
	s.Require().Len(payouts, 2)
	s.Equal(s.owner.Hex(), payouts[0].Recipient)
	s.Equal(s.price.String(), payouts[0].Amount)
}

func (s *JournalSuite) TestItSavesFailedTransactionsWithoutEvents() {
	s.mint("uri-0")
	s.mint("uri-1")
	failed := s.mint("uri-2")
	s.Require().False(failed.Succeeded())
	s.sync()

	tx, err := s.repository.FindTransactionByHash(s.ctx, failed.TxHash)
	s.Require().NoError(err)
	s.Equal(chain.ReceiptStatusFailed, tx.Status)
	s.Equal("SupplyExhausted", tx.ErrorKind)
	s.Equal("mintTo", tx.Method)
	s.Equal(s.contract.Hex(), tx.Recipient)

	count, err := s.repository.CountMints(s.ctx, s.contract)
	s.Require().NoError(err)
	s.Equal(uint64(2), count)
}

func (s *JournalSuite) TestItRecordsTheDeployedAddress() {
	s.sync()
	count, err := s.repository.CountTransactions(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)
	receipts := s.chain.ReceiptsFrom(0)
	tx, err := s.repository.FindTransactionByHash(s.ctx, receipts[0].TxHash)
	s.Require().NoError(err)
	s.Equal(s.contract.Hex(), tx.Recipient)
	s.Equal(chain.MethodDeploy, tx.Method)
}

func (s *JournalSuite) TestItAggregatesGasByMethod() {
	s.mint("uri-0")
	s.mint("uri-1")
	s.sync()
	usage, err := s.repository.GasByMethod(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(usage, 2)
	s.Equal(chain.MethodDeploy, usage[0].Method)
	s.Equal(uint64(1), usage[0].Calls)
	s.Equal("mintTo", usage[1].Method)
	s.Equal(uint64(2), usage[1].Calls)
	cost := chain.DefaultGasSchedule().Cost("mintTo")
	s.Equal(cost, usage[1].Min)
	s.Equal(cost, usage[1].Max)
	s.Equal(cost, usage[1].Avg)
}

func (s *JournalSuite) TestFindMintsOfAnUnknownContract() {
	mints, err := s.repository.FindMints(s.ctx, common.HexToAddress("0x1"))
	s.NoError(err)
	s.Empty(mints)
}

func (s *JournalSuite) TestTruncate() {
	s.mint("uri-0")
	s.sync()
	s.Require().NoError(s.repository.Truncate(s.ctx))
	count, err := s.repository.CountTransactions(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
	mints, err := s.repository.FindMints(s.ctx, s.contract)
	s.Require().NoError(err)
	s.Empty(mints)
	s.Equal(uint64(2), s.sync())
}
