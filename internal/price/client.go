package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PriceRow is one entry in the primary price source response.
type PriceRow struct {
	FAAddress    string `json:"faAddress"`
	TokenAddress string `json:"tokenAddress"`
	Symbol       string `json:"symbol"`
	USDPrice     string `json:"usdPrice"`
	Decimals     int    `json:"decimals"`
	Change24h    string `json:"change24h,omitempty"`
	MarketCap    string `json:"marketCap,omitempty"`
}

// Address returns the asset address the row refers to, preferring the
// fungible-asset address over the legacy coin-type address.
func (r PriceRow) Address() string {
	if r.FAAddress != "" {
		return r.FAAddress
	}
	return r.TokenAddress
}

// Client fetches USD prices from the primary aggregator, which supports batch
// lookup by comma-joined address list.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new primary price source client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchPrices fetches prices for the given addresses in a single request.
// Addresses absent from the response are simply missing from the result.
func (c *Client) FetchPrices(ctx context.Context, addresses []string) ([]PriceRow, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("addresses", strings.Join(addresses, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/prices?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating price request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading price response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price source HTTP %d: %s", resp.StatusCode, string(body))
	}

	var rows []PriceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parsing price response: %w", err)
	}
	return rows, nil
}
