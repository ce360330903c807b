// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// This package contains the main function that executes the ccnft command.
package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/courtneycrews/ccnft/internal/chain"
	"github.com/courtneycrews/ccnft/internal/commons"
	"github.com/courtneycrews/ccnft/internal/config"
	"github.com/courtneycrews/ccnft/internal/gasreport"
	"github.com/courtneycrews/ccnft/internal/journal"
	"github.com/courtneycrews/ccnft/internal/node"
	"github.com/courtneycrews/ccnft/internal/rpc"
	"github.com/courtneycrews/ccnft/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var startupMessage = `
CourtneyCrewsNFTContract deployed at CONTRACT_ADDRESS
Ledger API running at http://localhost:HTTP_PORT/ledger/info
Transactions accepted at http://localhost:HTTP_PORT/rpc
Press Ctrl+C to stop the node
`

const remoteTimeout = 10 * time.Second

var cmd = &cobra.Command{
	Use:     "ccnft [flags]",
	Short:   "ccnft is a development node for the CourtneyCrews NFT issuance ledger",
	Run:     run,
	Version: versioninfo.Short(),
}

var CompletionCmd = &cobra.Command{
	Use:                   "completion",
	Short:                 "Generate shell completion scripts",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cobra.CheckErr(cmd.Root().GenBashCompletion(os.Stdout))
		case "zsh":
			cobra.CheckErr(cmd.Root().GenZshCompletion(os.Stdout))
		case "fish":
			cobra.CheckErr(cmd.Root().GenFishCompletion(os.Stdout, true))
		case "powershell":
			cobra.CheckErr(cmd.Root().GenPowerShellCompletion(os.Stdout))
		}
	},
}

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Show the network profiles",
	Long: "Show the network profiles. With --check, query the chain id of each " +
		"network that has an RPC URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Network", "Chain ID", "RPC URL", "Account", "Explorer Key", "Ready", "Remote Chain ID")
		for _, network := range settings.Networks() {
			url := network.URL
			if network.Local {
				url = "in-process"
			}
			_ = table.Append([]string{
				network.Name,
				fmt.Sprint(network.ChainID),
				url,
				yesNo(network.HasAccount || network.Local),
				yesNo(settings.ExplorerAPIKey(network) != ""),
				yesNo(network.Configured()),
				remoteChainID(ctx, network),
			})
		}
		return table.Render()
	},
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Show the wallet address of STUNT_WALLET_PRIVATE_KEY",
	Long: "Show the wallet address derived from STUNT_WALLET_PRIVATE_KEY, " +
		"or from the first test account when the key is not set",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}
		var account wallet.Account
		if settings.WalletPrivateKey != "" {
			account, err = wallet.FromPrivateKey(settings.WalletPrivateKey)
		} else {
			slog.Warn("wallet: STUNT_WALLET_PRIVATE_KEY not set, using the test mnemonic")
			account, err = wallet.FromMnemonic(wallet.TestMnemonic, 0)
		}
		if err != nil {
			return err
		}
		fmt.Println("Wallet address:", account.Address.Hex())

		network, err := settings.Network(networkName)
		if err != nil {
			return err
		}
		if network.Local || network.URL == "" {
			return nil
		}
		client, err := rpc.Dial(cmd.Context(), network.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		balance, err := client.Balance(cmd.Context(), account.Address)
		if err != nil {
			return err
		}
		fmt.Printf("Balance on %s: %s wei\n", network.Name, balance)
		return nil
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Show the funded test accounts of the development chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := wallet.TestAccounts(accountCount)
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("#", "Address", "Private Key")
		for i, account := range accounts {
			_ = table.Append([]string{fmt.Sprint(i), account.Address.Hex(), account.PrivateKeyHex()})
		}
		return table.Render()
	},
}

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Show the gas used in the latest block of a network",
	RunE:  runGas,
}

var (
	debug        bool
	color        bool
	configFile   string
	accountCount int
	networkName  string
	gasReport    bool
	gasOutput    bool
	gasJournal   bool
	checkRemote  bool
	opts         = node.NewNodeOpts()
)

func init() {
	cmd.PersistentFlags().BoolVarP(&debug, "enable-debug", "d", false, "If set, enable debug output")
	cmd.PersistentFlags().BoolVar(&color, "enable-color", true, "If set, enables logs color")
	cmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Optional config file with the environment keys")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setupLog()
		cobra.CheckErr(config.LoadEnv(envBuilded))
	}

	// http-*
	cmd.Flags().StringVar(&opts.HttpAddress, "http-address", opts.HttpAddress,
		"HTTP address used by ccnft to serve its APIs")
	cmd.Flags().IntVar(&opts.HttpPort, "http-port", opts.HttpPort,
		"HTTP port used by ccnft to serve its APIs")

	// ledger constructor
	cmd.Flags().StringVar(&opts.MintPrice, "mint-price", opts.MintPrice,
		"Mint price in wei")
	cmd.Flags().Uint64Var(&opts.MaxSupply, "max-supply", opts.MaxSupply,
		"Maximum number of tokens")
	cmd.Flags().StringVar(&opts.BaseURI, "base-uri", opts.BaseURI,
		"Base URI of the collection")
	cmd.Flags().StringVar(&opts.RoyaltyRecipient, "royalty-recipient", opts.RoyaltyRecipient,
		"Address that receives the royalties")
	cmd.Flags().Uint64Var(&opts.RoyaltyBasisPoints, "royalty-basis-points", opts.RoyaltyBasisPoints,
		"Royalty in basis points of the sale price")

	// accounts
	cmd.Flags().Uint32Var(&opts.DeployerIndex, "deployer-index", opts.DeployerIndex,
		"Index of the test account that deploys the ledger")
	cmd.Flags().IntVar(&opts.Accounts, "accounts", opts.Accounts,
		"Number of funded test accounts")

	// journal
	cmd.Flags().BoolVar(&opts.DisableJournal, "disable-journal", opts.DisableJournal,
		"If set, ccnft won't record mints and payouts in a database")
	cmd.Flags().StringVar(&opts.DbImplementation, "db-implementation", opts.DbImplementation,
		"DB to use. postgres or sqlite")
	cmd.Flags().StringVar(&opts.SqliteFile, "sqlite-file", opts.SqliteFile,
		"The sqlite file of the journal")
	cmd.Flags().StringVar(&opts.PostgresURL, "postgres-url", opts.PostgresURL,
		"Postgres connection url, defaults to the POSTGRES_* variables")

	cmd.Flags().DurationVar(&opts.TimeoutWorker, "timeout-worker", opts.TimeoutWorker,
		"Timeout for workers. Example: ccnft --timeout-worker 30s")

	accountsCmd.Flags().IntVar(&accountCount, "count", wallet.DefaultAccountCount,
		"Number of accounts")

	networksCmd.Flags().BoolVar(&checkRemote, "check", false,
		"If set, queries the chain id of the networks with an RPC URL")

	walletCmd.Flags().StringVar(&networkName, "network", "amoy",
		"Network profile used to read the wallet balance")

	gasCmd.Flags().StringVar(&networkName, "network", "amoy", "Network profile to query")
	gasCmd.Flags().BoolVar(&gasReport, "report", false,
		"If set, prints the gas report of the ledger operations")
	gasCmd.Flags().BoolVar(&gasOutput, "output", false,
		"If set, writes the gas report to the configured output file")
	gasCmd.Flags().BoolVar(&gasJournal, "journal", false,
		"If set, reports the gas recorded in the journal of the last ccnft run")
	gasCmd.Flags().StringVar(&opts.DbImplementation, "db-implementation", opts.DbImplementation,
		"Journal DB to read. postgres or sqlite")
	gasCmd.Flags().StringVar(&opts.SqliteFile, "sqlite-file", opts.SqliteFile,
		"The sqlite file of the journal")
	gasCmd.Flags().StringVar(&opts.PostgresURL, "postgres-url", opts.PostgresURL,
		"Postgres connection url, defaults to the POSTGRES_* variables")
}

func setupLog() {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	commons.ConfigureLogWithColor(level, color)
}

func run(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	startTime := time.Now()

	// check args
	checkEthAddress(cmd, "royalty-recipient")
	if opts.HttpPort == 0 {
		exitf("--http-port cannot be 0")
	}
	if commons.IsPortInUse(opts.HttpAddress, opts.HttpPort) {
		exitf("--http-port %v is already in use", opts.HttpPort)
	}

	// handle signals with notify context
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	w, n, err := node.NewSupervisor(opts)
	cobra.CheckErr(err)

	// start ccnft
	ready := make(chan struct{}, 1)
	go func() {
		select {
		case <-ready:
			msg := strings.ReplaceAll(startupMessage, "HTTP_PORT", fmt.Sprint(opts.HttpPort))
			msg = strings.ReplaceAll(msg, "CONTRACT_ADDRESS", n.Contract.Hex())
			fmt.Println(msg)
			slog.Info("ccnft: ready", "after", time.Since(startTime))
		case <-ctx.Done():
		}
	}()
	err = w.Start(ctx, ready)
	// CheckErr exits the process, so close the node first
	n.Close()
	cobra.CheckErr(err)
}

func runGas(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if gasReport || settings.GasReporter.Enabled {
		return printGasReport(ctx, settings)
	}
	network, err := settings.Network(networkName)
	if err != nil {
		return err
	}
	if network.URL == "" {
		exitf("network %v has no rpc url, set %v", network.Name, config.EnvAlchemyURL)
	}
	client, err := rpc.Dial(ctx, network.URL)
	if err != nil {
		return err
	}
	defer client.Close()
	block, err := client.LatestBlockGas(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Gas Used in the Latest Block:", block.GasUsed)
	return nil
}

func printGasReport(ctx context.Context, settings *config.Settings) error {
	reporter := settings.GasReporter
	source := gasreport.NewPriceSource(reporter.GasPriceAPI, reporter.CoinMarketCapKey)
	report := gasreport.Report{
		Rows:     gasreport.RowsFromSchedule(chain.DefaultGasSchedule()),
		Token:    reporter.Token,
		Currency: reporter.Currency,
		Colors:   !reporter.NoColors,
	}
	if gasJournal {
		repository, err := journal.Open(opts.DbImplementation, opts.SqliteFile, opts.PostgresURL)
		if err != nil {
			return err
		}
		defer repository.Db.Close()
		report.Rows, err = gasreport.RowsFromJournal(ctx, repository)
		if err != nil {
			return err
		}
	}
	var err error
	report.GasPrice, err = source.GasPrice(ctx)
	if err != nil {
		slog.Warn("gas: no gas price from the api", "error", err)
		report.GasPrice = networkGasPrice(ctx, settings)
	}
	report.TokenPrice, err = source.TokenPrice(ctx, reporter.Token, reporter.Currency)
	if err != nil && !errors.Is(err, gasreport.ErrNoQuote) {
		slog.Warn("gas: no token price", "error", err)
	}
	if gasOutput {
		if err := report.WriteFile(reporter.OutputFile); err != nil {
			return err
		}
		slog.Info("gas: report written", "file", reporter.OutputFile)
		return nil
	}
	return report.Write(os.Stdout)
}

// Ask the RPC node of the selected network for the gas price.
func networkGasPrice(ctx context.Context, settings *config.Settings) *big.Int {
	network, err := settings.Network(networkName)
	if err != nil || network.URL == "" {
		return nil
	}
	client, err := rpc.Dial(ctx, network.URL)
	if err != nil {
		slog.Warn("gas: no gas price from the network", "error", err)
		return nil
	}
	defer client.Close()
	price, err := client.GasPrice(ctx)
	if err != nil {
		slog.Warn("gas: no gas price from the network", "error", err)
		return nil
	}
	return price
}

func remoteChainID(ctx context.Context, network config.Network) string {
	if !checkRemote || network.Local || network.URL == "" {
		return "-"
	}
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()
	client, err := rpc.Dial(ctx, network.URL)
	if err != nil {
		return "unreachable"
	}
	defer client.Close()
	id, err := client.ChainID(ctx)
	if err != nil {
		slog.Warn("networks: chain id", "network", network.Name, "error", err)
		return "unreachable"
	}
	return id.String()
}

func loadSettings() (*config.Settings, error) {
	return config.Load(configFile)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

//go:embed .env
var envBuilded []byte

func main() {
	cmd.AddCommand(networksCmd, walletCmd, accountsCmd, gasCmd, CompletionCmd)
	cobra.CheckErr(cmd.Execute())
}

func exitf(format string, args ...any) {
	err := fmt.Sprintf(format, args...)
	slog.Error("configuration error", "error", err)
	os.Exit(1)
}

func checkEthAddress(cmd *cobra.Command, varName string) {
	if cmd.Flags().Changed(varName) {
		value, err := cmd.Flags().GetString(varName)
		cobra.CheckErr(err)
		bytes, err := hexutil.Decode(value)
		if err != nil {
			exitf("invalid address for --%v: %v", varName, err)
		}
		if len(bytes) != common.AddressLength {
			exitf("invalid address for --%v: wrong length", varName)
		}
	}
}
