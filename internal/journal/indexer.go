// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package journal

import (
	"context"
	"log/slog"
	"time"

	"github.com/courtneycrews/ccnft/internal/chain"
)

const DefaultPollInterval = 500 * time.Millisecond

// Indexer copies the receipts mined by the chain into the journal.
type Indexer struct {
	Chain        *chain.Chain
	Repository   *Repository
	PollInterval time.Duration
}

// String implements supervisor.Worker.
func (x Indexer) String() string {
	return "journal-indexer"
}

// Start implements supervisor.Worker.
func (x Indexer) Start(ctx context.Context, ready chan<- struct{}) error {
	cursor, err := x.Repository.CountTransactions(ctx)
	if err != nil {
		return err
	}
	interval := x.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	ready <- struct{}{}
	for {
		cursor, err = x.Sync(ctx, cursor)
		if err != nil {
			return err
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			slog.Debug("journal: indexer canceled", "error", ctx.Err().Error())
			return nil
		}
	}
}

// Sync stores the receipts mined after the first cursor transactions
// and returns the new cursor.
func (x Indexer) Sync(ctx context.Context, cursor uint64) (uint64, error) {
	for _, receipt := range x.Chain.ReceiptsFrom(int(cursor)) {
		if err := x.Repository.SaveReceipt(ctx, receipt); err != nil {
			return cursor, err
		}
		slog.Debug("journal: saved receipt",
			"hash", receipt.TxHash,
			"method", receipt.Method,
			"block", receipt.BlockNumber,
		)
		cursor++
	}
	return cursor, nil
}
