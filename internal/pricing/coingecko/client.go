// Package coingecko implements the pricing.Oracle port against the CoinGecko
// simple-price API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallyhq/tally/internal/errs"
)

const (
	defaultBaseURL = "https://api.coingecko.com/api/v3"
	headerAPIKey   = "x-cg-demo-api-key"
	requestTimeout = 10 * time.Second
)

// symbolToID maps ticker symbols to CoinGecko coin ids. The ledger only
// special-cases ETH today; additions go here.
var symbolToID = map[string]string{
	"ETH": "ethereum",
	"BTC": "bitcoin",
}

// Client is a CoinGecko API client. All failures, including malformed
// responses, surface as errs.ErrExternalService so callers can distinguish
// transient oracle trouble from their own bad input.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New constructs a client. baseURL overrides the public API host when
// non-empty (used by tests and self-hosted mirrors).
func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// SpotPrice returns the current price of symbol quoted in vsCurrency.
func (c *Client) SpotPrice(ctx context.Context, symbol, vsCurrency string) (decimal.Decimal, error) {
	id, ok := symbolToID[strings.ToUpper(symbol)]
	if !ok {
		// Unknown symbols fall through as lowercase coin ids.
		id = strings.ToLower(symbol)
	}
	vs := strings.ToLower(vsCurrency)

	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", vs)
	params.Set("precision", "8")
	reqURL := fmt.Sprintf("%s/simple/price?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: build price request: %v", errs.ErrExternalService, err)
	}
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price oracle unreachable: %v", errs.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return decimal.Zero, fmt.Errorf("%w: price oracle rate limited", errs.ErrExternalService)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: price oracle status %d", errs.ErrExternalService, resp.StatusCode)
	}

	// {"ethereum":{"usd":3000.12}}
	var raw map[string]map[string]json.Number
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed price response: %v", errs.ErrExternalService, err)
	}
	quotes, ok := raw[id]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no quote for %s", errs.ErrExternalService, id)
	}
	num, ok := quotes[vs]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no %s quote for %s", errs.ErrExternalService, vs, id)
	}
	price, err := decimal.NewFromString(num.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed price %q: %v", errs.ErrExternalService, num.String(), err)
	}
	return price, nil
}
