package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// SecondaryClient fetches per-address prices from the secondary analytics
// source, with retry on 429. It only supports single-address lookups, so the
// aggregator bounds its concurrency when falling back here.
type SecondaryClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewSecondaryClient creates a new secondary price source client.
func NewSecondaryClient(baseURL string, delay time.Duration, maxRetries int) *SecondaryClient {
	return &SecondaryClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

type secondaryRow struct {
	PriceUSD                    float64 `json:"price_usd"`
	BucketedTimestampMinutesUTC string  `json:"bucketed_timestamp_minutes_utc"`
}

// FetchPrice fetches the latest USD price bucket for an address. Returns
// (nil, nil) when the source has no data for the address.
func (c *SecondaryClient) FetchPrice(ctx context.Context, address string) (*decimal.Decimal, error) {
	params := url.Values{}
	params.Set("address", address)

	body, err := c.fetchWithRetry(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var rows []secondaryRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parsing secondary price response: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	p := decimal.NewFromFloat(rows[0].PriceUSD)
	return &p, nil
}

func (c *SecondaryClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating secondary price request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("secondary price request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading secondary price response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("secondary source rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("secondary source HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
