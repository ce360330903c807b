// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The journal package persists the receipts mined by the development chain
// as a queryable read model of mints, payouts, and gas usage.
package journal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/contract"
	"github.com/courtneycrews/ccnft/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// A mined transaction.
type Transaction struct {
	ID          int64  `db:"id"`
	TxHash      string `db:"tx_hash"`
	Sender      string `db:"sender"`
	Recipient   string `db:"recipient"`
	Method      string `db:"method"`
	Status      uint64 `db:"status"`
	GasUsed     uint64 `db:"gas_used"`
	BlockNumber uint64 `db:"block_number"`
	ErrorKind   string `db:"error_kind"`
}

// A MintingCompleted event.
type Mint struct {
	Contract    string `db:"contract"`
	TokenID     uint64 `db:"token_id"`
	Minter      string `db:"minter"`
	TxHash      string `db:"tx_hash"`
	BlockNumber uint64 `db:"block_number"`
}

// A FundsDistributed event. Amount is a decimal string in wei.
type Payout struct {
	Contract    string `db:"contract"`
	Recipient   string `db:"recipient"`
	Amount      string `db:"amount"`
	TxHash      string `db:"tx_hash"`
	BlockNumber uint64 `db:"block_number"`
}

// Gas used by one method across all mined transactions.
type GasUsage struct {
	Method string `db:"method"`
	Calls  uint64 `db:"calls"`
	Min    uint64 `db:"min_gas"`
	Max    uint64 `db:"max_gas"`
	Avg    uint64 `db:"avg_gas"`
}

type Repository struct {
	Db *sqlx.DB
}

func (r *Repository) CreateTables() error {
	autoIncrement := "INTEGER"

	if r.Db.DriverName() == "postgres" {
		autoIncrement = "SERIAL"
	}

	schema := `CREATE TABLE IF NOT EXISTS transactions (
		id 				%s NOT NULL PRIMARY KEY,
		tx_hash			text NOT NULL UNIQUE,
		sender			text,
		recipient		text,
		method			text,
		status			integer,
		gas_used		bigint,
		block_number	bigint,
		error_kind		text);
	CREATE TABLE IF NOT EXISTS mints (
		contract		text NOT NULL,
		token_id		bigint NOT NULL,
		minter			text,
		tx_hash			text,
		block_number	bigint,
		PRIMARY KEY (contract, token_id));
	CREATE TABLE IF NOT EXISTS payouts (
		contract		text NOT NULL,
		recipient		text,
		amount			text,
		tx_hash			text NOT NULL PRIMARY KEY,
		block_number	bigint);
	CREATE INDEX IF NOT EXISTS idx_transactions_method ON transactions(method);`
	schema = fmt.Sprintf(schema, autoIncrement)
	_, err := r.Db.Exec(schema)
	if err == nil {
		slog.Debug("journal: tables created")
	} else {
		slog.Error("journal: create table error", "error", err)
	}
	return err
}

// SaveReceipt stores the transaction and its decoded events in one database transaction.
func (r *Repository) SaveReceipt(ctx context.Context, receipt *chain.Receipt) error {
	tx, err := r.Db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck

	recipient := ""
	if receipt.To != nil {
		recipient = receipt.To.Hex()
	} else if receipt.ContractAddress != nil {
		recipient = receipt.ContractAddress.Hex()
	}
	insertTx := tx.Rebind(`INSERT INTO transactions (
		tx_hash,
		sender,
		recipient,
		method,
		status,
		gas_used,
		block_number,
		error_kind) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = tx.ExecContext(ctx, insertTx,
		receipt.TxHash.Hex(),
		receipt.From.Hex(),
		recipient,
		receipt.Method,
		receipt.Status,
		receipt.GasUsed,
		receipt.BlockNumber,
		receipt.ErrorKind,
	)
	if err != nil {
		return fmt.Errorf("journal: insert transaction: %w", err)
	}

	for _, log := range receipt.Logs {
		event, err := contract.DecodeEvent(log)
		if err != nil {
			return err
		}
		switch e := event.(type) {
		case ledger.MintingCompleted:
			insertMint := tx.Rebind(`INSERT INTO mints (
				contract,
				token_id,
				minter,
				tx_hash,
				block_number) VALUES (?, ?, ?, ?, ?)`)
			_, err = tx.ExecContext(ctx, insertMint,
				log.Address.Hex(),
				e.TokenID,
				e.Minter.Hex(),
				receipt.TxHash.Hex(),
				receipt.BlockNumber,
			)
		case ledger.FundsDistributed:
			insertPayout := tx.Rebind(`INSERT INTO payouts (
				contract,
				recipient,
				amount,
				tx_hash,
				block_number) VALUES (?, ?, ?, ?, ?)`)
			_, err = tx.ExecContext(ctx, insertPayout,
				log.Address.Hex(),
				e.Recipient.Hex(),
				e.Amount.String(),
				receipt.TxHash.Hex(),
				receipt.BlockNumber,
			)
		}
		if err != nil {
			return fmt.Errorf("journal: insert %s: %w", event.EventName(), err)
		}
	}
	return tx.Commit()
}

// Truncate removes every stored transaction and event.
func (r *Repository) Truncate(ctx context.Context) error {
	tx, err := r.Db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint: errcheck
	for _, table := range []string{"payouts", "mints", "transactions"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("journal: truncate %s: %w", table, err)
		}
	}
	slog.Debug("journal: truncated")
	return tx.Commit()
}

// CountTransactions returns the number of stored transactions.
func (r *Repository) CountTransactions(ctx context.Context) (uint64, error) {
	var count uint64
	err := r.Db.GetContext(ctx, &count, "SELECT count(*) FROM transactions")
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Repository) FindTransactionByHash(ctx context.Context, hash common.Hash) (*Transaction, error) {
	query := r.Db.Rebind(`SELECT * FROM transactions WHERE tx_hash = ?`)
	var t Transaction
	err := r.Db.GetContext(ctx, &t, query, hash.Hex())
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) CountMints(ctx context.Context, address common.Address) (uint64, error) {
	query := r.Db.Rebind(`SELECT count(*) FROM mints WHERE contract = ?`)
	var count uint64
	err := r.Db.GetContext(ctx, &count, query, address.Hex())
	if err != nil {
		return 0, err
	}
	return count, nil
}

// FindMints returns the mints of the contract ordered by token id.
func (r *Repository) FindMints(ctx context.Context, address common.Address) ([]Mint, error) {
	query := r.Db.Rebind(`SELECT * FROM mints WHERE contract = ? ORDER BY token_id`)
	mints := []Mint{}
	err := r.Db.SelectContext(ctx, &mints, query, address.Hex())
	if err != nil {
		return nil, err
	}
	return mints, nil
}

// FindPayouts returns the payouts of the contract in block order.
func (r *Repository) FindPayouts(ctx context.Context, address common.Address) ([]Payout, error) {
	query := r.Db.Rebind(`SELECT * FROM payouts WHERE contract = ? ORDER BY block_number`)
	payouts := []Payout{}
	err := r.Db.SelectContext(ctx, &payouts, query, address.Hex())
	if err != nil {
		return nil, err
	}
	return payouts, nil
}

// GasByMethod aggregates the gas used per method, ordered by method name.
func (r *Repository) GasByMethod(ctx context.Context) ([]GasUsage, error) {
	query := `SELECT
		method,
		count(*) AS calls,
		min(gas_used) AS min_gas,
		max(gas_used) AS max_gas,
		CAST(avg(gas_used) AS bigint) AS avg_gas
		FROM transactions GROUP BY method ORDER BY method`
	usage := []GasUsage{}
	err := r.Db.SelectContext(ctx, &usage, query)
	if err != nil {
		return nil, err
	}
	return usage, nil
}
