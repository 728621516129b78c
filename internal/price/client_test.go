package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientFetchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("addresses"); got != "0xa,0xb" {
			t.Errorf("addresses = %q, want comma-joined list", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"tokenAddress":"0xa","symbol":"AAA","usdPrice":"1.25","decimals":8}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	rows, err := client.FetchPrices(context.Background(), []string{"0xa", "0xb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].USDPrice != "1.25" {
		t.Errorf("usdPrice = %q, want 1.25", rows[0].USDPrice)
	}
}

func TestClientFetchPricesEmptyInput(t *testing.T) {
	client := NewClient("http://unreachable.invalid", "")
	rows, err := client.FetchPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != nil {
		t.Errorf("rows = %v, want nil (no request for empty input)", rows)
	}
}

func TestPriceRowAddressPrefersFA(t *testing.T) {
	row := PriceRow{FAAddress: "0xfa", TokenAddress: "0xcoin"}
	if got := row.Address(); got != "0xfa" {
		t.Errorf("Address() = %q, want 0xfa", got)
	}
	row = PriceRow{TokenAddress: "0xcoin"}
	if got := row.Address(); got != "0xcoin" {
		t.Errorf("Address() = %q, want 0xcoin", got)
	}
}

func TestSecondaryClientFetchPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "0xa" {
			t.Errorf("address = %q, want 0xa", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"price_usd":0.5,"bucketed_timestamp_minutes_utc":"2024-01-01T00:00:00Z"}]`))
	}))
	defer server.Close()

	client := NewSecondaryClient(server.URL, time.Millisecond, 1)
	p, err := client.FetchPrice(context.Background(), "0xa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.String() != "0.5" {
		t.Errorf("price = %v, want 0.5", p)
	}
}

func TestSecondaryClientNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewSecondaryClient(server.URL, time.Millisecond, 1)
	p, err := client.FetchPrice(context.Background(), "0xa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("price = %v, want nil for empty response", p)
	}
}
