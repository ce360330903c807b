// (c) ccnft authors (see AUTHORS)
// SPDX-License-Identifier: Apache-2.0 (see LICENSE)

// The gasreport package prices the gas used by the ledger operations and
// renders it as a table.
package gasreport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const DefaultQuoteAPI = "https://pro-api.coinmarketcap.com/v1/cryptocurrency/quotes/latest"

var ErrNoQuote = errors.New("gasreport: no coinmarketcap api key")

// PriceSource fetches the gas price and the token quote.
type PriceSource struct {
	GasPriceAPI string
	QuoteAPI    string
	QuoteAPIKey string
	client      *retryablehttp.Client
}

func NewPriceSource(gasPriceAPI, quoteAPIKey string) *PriceSource {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	return &PriceSource{
		GasPriceAPI: gasPriceAPI,
		QuoteAPI:    DefaultQuoteAPI,
		QuoteAPIKey: quoteAPIKey,
		client:      client,
	}
}

// GasPrice returns the gas price in wei from an eth_gasPrice style response.
func (p *PriceSource) GasPrice(ctx context.Context) (*big.Int, error) {
	body, err := p.get(ctx, p.GasPriceAPI, nil)
	if err != nil {
		return nil, err
	}
	result := gjson.GetBytes(body, "result")
	if !result.Exists() {
		return nil, fmt.Errorf("gasreport: gas price response without result: %s", body)
	}
	price, err := hexutil.DecodeBig(result.String())
	if err != nil {
		return nil, fmt.Errorf("gasreport: gas price %q: %w", result.String(), err)
	}
	slog.Debug("gasreport: gas price", "wei", price)
	return price, nil
}

// TokenPrice returns the price of one token in the currency.
func (p *PriceSource) TokenPrice(ctx context.Context, token, currency string) (float64, error) {
	if p.QuoteAPIKey == "" {
		return 0, ErrNoQuote
	}
	query := url.Values{}
	query.Set("symbol", token)
	query.Set("convert", currency)
	header := http.Header{}
	header.Set("X-CMC_PRO_API_KEY", p.QuoteAPIKey)
	body, err := p.get(ctx, p.QuoteAPI+"?"+query.Encode(), header)
	if err != nil {
		return 0, err
	}
	price := gjson.GetBytes(body, fmt.Sprintf("data.%s.quote.%s.price",
		gjson.Escape(token), gjson.Escape(currency)))
	if !price.Exists() {
		return 0, fmt.Errorf("gasreport: no %s quote for %s", currency, token)
	}
	return price.Float(), nil
}

func (p *PriceSource) get(ctx context.Context, rawURL string, header http.Header) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gasreport: get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gasreport: get: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
