// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

package gasreport

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"

	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/journal"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Gas statistics of one method.
type Row struct {
	Method string
	Calls  uint64
	Min    uint64
	Max    uint64
	Avg    uint64
}

type Report struct {
	Rows       []Row
	GasPrice   *big.Int
	Token      string
	Currency   string
	TokenPrice float64
	// Highlight methods and costs with terminal colors.
	Colors bool
}

// RowsFromUsage converts the gas recorded in the journal.
func RowsFromUsage(usage []journal.GasUsage) []Row {
	rows := make([]Row, len(usage))
	for i, u := range usage {
		rows[i] = Row{Method: u.Method, Calls: u.Calls, Min: u.Min, Max: u.Max, Avg: u.Avg}
	}
	return rows
}

// RowsFromJournal reads the gas measured by the journal.
func RowsFromJournal(ctx context.Context, repository *journal.Repository) ([]Row, error) {
	usage, err := repository.GasByMethod(ctx)
	if err != nil {
		return nil, fmt.Errorf("gasreport: journal: %w", err)
	}
	return RowsFromUsage(usage), nil
}

// RowsFromSchedule lists the estimated gas of every method with a cost.
func RowsFromSchedule(schedule chain.GasSchedule) []Row {
	rows := []Row{}
	for method := range schedule {
		cost := schedule.Cost(method)
		rows = append(rows, Row{Method: method, Min: cost, Max: cost, Avg: cost})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Method < rows[j].Method
	})
	return rows
}

// Fee returns the fee of the gas in tokens.
func (r Report) Fee(gas uint64) *big.Float {
	if r.GasPrice == nil {
		return new(big.Float)
	}
	wei := new(big.Int).Mul(r.GasPrice, new(big.Int).SetUint64(gas))
	return new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether))
}

// Cost returns the fee of the gas in the currency, empty without a quote.
func (r Report) Cost(gas uint64) string {
	if r.TokenPrice == 0 {
		return ""
	}
	cost := new(big.Float).Mul(r.Fee(gas), big.NewFloat(r.TokenPrice))
	return cost.Text('f', 4)
}

// Write renders the report as a table.
func (r Report) Write(w io.Writer) error {
	gwei := "-"
	if r.GasPrice != nil {
		gwei = new(big.Float).Quo(new(big.Float).SetInt(r.GasPrice), big.NewFloat(params.GWei)).Text('f', 2)
	}
	if _, err := fmt.Fprintf(w, "Gas price: %s gwei, %s price: %v %s\n",
		gwei, r.Token, r.TokenPrice, r.Currency); err != nil {
		return err
	}
	method := color.New(color.FgCyan)
	cost := color.New(color.FgGreen)
	if r.Colors {
		method.EnableColor()
		cost.EnableColor()
	} else {
		method.DisableColor()
		cost.DisableColor()
	}
	table := tablewriter.NewWriter(w)
	table.Header("Method", "Calls", "Min", "Max", "Avg", r.Token, r.Currency)
	for _, row := range r.Rows {
		err := table.Append([]string{
			method.Sprint(row.Method),
			fmt.Sprint(row.Calls),
			fmt.Sprint(row.Min),
			fmt.Sprint(row.Max),
			fmt.Sprint(row.Avg),
			r.Fee(row.Avg).Text('f', 8),
			cost.Sprint(r.Cost(row.Avg)),
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteFile renders the report without colors to the file, replacing it.
func (r Report) WriteFile(path string) error {
	r.Colors = false
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
