// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The config package reads the credentials, network profiles, and gas reporter
// settings from the environment and an optional config file.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Environment keys.
const (
	EnvAlchemyURL            = "ALCHEMY_URL"
	EnvAlchemyAPIKey         = "ALCHEMY_API_KEY"
	EnvWalletPrivateKey      = "STUNT_WALLET_PRIVATE_KEY"
	EnvEtherscanAPIKey       = "ETHERSCAN_API_KEY"
	EnvPolygonscanAPIKey     = "POLYGONSCAN_API_KEY"
	EnvArbiscanAPIKey        = "ARBISCAN_API_KEY"
	EnvCoinMarketCapAPIKey   = "COINMARKETCAP_API_KEY"
	EnvReportGas             = "REPORT_GAS"
	EnvGasPriceAPI           = "GAS_PRICE_API"
	EnvGasReportOutputFile   = "GAS_REPORT_OUTPUT_FILE"
	EnvGasReportCurrency     = "GAS_REPORT_CURRENCY"
	EnvGasReportToken        = "GAS_REPORT_TOKEN"
	EnvGasReportNoColors     = "GAS_REPORT_NO_COLORS"
	DefaultGasPriceAPI       = "https://api.etherscan.io/api?module=proxy&action=eth_gasPrice"
	DefaultGasReportFile     = "gas-report.txt"
	DefaultGasReportCurrency = "USD"
	DefaultGasReportToken    = "MATIC"
)

// Settings of the toolbox.
type Settings struct {
	AlchemyURL       string
	AlchemyAPIKey    string
	WalletPrivateKey string

	// Block explorer keys by explorer network name.
	ExplorerAPIKeys map[string]string

	GasReporter GasReporter
}

// Settings of the gas report.
type GasReporter struct {
	Enabled          bool
	Currency         string
	Token            string
	GasPriceAPI      string
	OutputFile       string
	CoinMarketCapKey string
	NoColors         bool
}

// Load reads the settings from the environment.
// A non-empty configFile is read first and the environment overrides it.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	for _, key := range []string{
		EnvAlchemyURL,
		EnvAlchemyAPIKey,
		EnvWalletPrivateKey,
		EnvEtherscanAPIKey,
		EnvPolygonscanAPIKey,
		EnvArbiscanAPIKey,
		EnvCoinMarketCapAPIKey,
		EnvReportGas,
		EnvGasPriceAPI,
		EnvGasReportOutputFile,
		EnvGasReportCurrency,
		EnvGasReportToken,
		EnvGasReportNoColors,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	v.SetDefault(EnvGasPriceAPI, DefaultGasPriceAPI)
	v.SetDefault(EnvGasReportOutputFile, DefaultGasReportFile)
	v.SetDefault(EnvGasReportCurrency, DefaultGasReportCurrency)
	v.SetDefault(EnvGasReportToken, DefaultGasReportToken)
	v.SetDefault(EnvGasReportNoColors, true)
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	etherscan := v.GetString(EnvEtherscanAPIKey)
	polygonscan := v.GetString(EnvPolygonscanAPIKey)
	arbiscan := v.GetString(EnvArbiscanAPIKey)
	return &Settings{
		AlchemyURL:       v.GetString(EnvAlchemyURL),
		AlchemyAPIKey:    v.GetString(EnvAlchemyAPIKey),
		WalletPrivateKey: v.GetString(EnvWalletPrivateKey),
		ExplorerAPIKeys: map[string]string{
			"etherMain":          etherscan,
			"etherSepolia":       etherscan,
			"polygonMain":        polygonscan,
			"polygonAmoy":        polygonscan,
			"arbitrumOneMain":    arbiscan,
			"arbitrumOneSepolia": arbiscan,
		},
		GasReporter: GasReporter{
			// any non-empty value enables the report
			Enabled:          v.GetString(EnvReportGas) != "",
			Currency:         v.GetString(EnvGasReportCurrency),
			Token:            v.GetString(EnvGasReportToken),
			GasPriceAPI:      v.GetString(EnvGasPriceAPI),
			OutputFile:       v.GetString(EnvGasReportOutputFile),
			CoinMarketCapKey: v.GetString(EnvCoinMarketCapAPIKey),
			NoColors:         v.GetBool(EnvGasReportNoColors),
		},
	}, nil
}
