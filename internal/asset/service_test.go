package asset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
	"github.com/aptfolio/defitrack/internal/indexer"
)

type stubIndexer struct {
	balances []indexer.FungibleAssetBalance
	err      error
}

func (s *stubIndexer) FetchBalances(ctx context.Context, address string) ([]indexer.FungibleAssetBalance, error) {
	return s.balances, s.err
}

type stubPrices struct {
	prices map[string]float64
}

func (s *stubPrices) GetBatchPrices(ctx context.Context, addresses []string) map[string]domain.AssetPrice {
	result := make(map[string]domain.AssetPrice)
	for _, addr := range addresses {
		p := domain.AssetPrice{AssetType: addr}
		if v, ok := s.prices[addr]; ok {
			d := decimal.NewFromFloat(v)
			p.Price = &d
			p.Source = "primary"
		}
		result[addr] = p
	}
	return result
}

var testWallet = "0x" + strings.Repeat("ab", 32)

func intPtr(n int) *int { return &n }

func TestGetWalletAssetsEnrichment(t *testing.T) {
	idx := &stubIndexer{balances: []indexer.FungibleAssetBalance{
		{
			AssetType: domain.APTAddress,
			Amount:    "1000000000",
			Metadata:  &indexer.AssetMetadata{Decimals: intPtr(8), Symbol: "APT", Name: "Aptos Coin"},
		},
	}}
	svc := NewService(idx, &stubPrices{prices: map[string]float64{domain.APTAddress: 5.50}})

	assets, err := svc.GetWalletAssets(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 1 {
		t.Fatalf("assets = %d, want 1", len(assets))
	}

	a := assets[0]
	if !a.Balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("balance = %s, want 10 (1000000000 at 8 decimals)", a.Balance)
	}
	if a.Value == nil || !a.Value.Equal(decimal.NewFromInt(55)) {
		t.Errorf("value = %v, want 55", a.Value)
	}
	if !a.IsVerified {
		t.Error("canonical APT should be verified")
	}
}

func TestGetWalletAssetsDecimalsDefault(t *testing.T) {
	idx := &stubIndexer{balances: []indexer.FungibleAssetBalance{
		{AssetType: "0xabc::m::T", Amount: "100000000", Metadata: &indexer.AssetMetadata{Symbol: "T"}},
		{AssetType: "0xdef::m::U", Amount: "100000000"},
	}}
	svc := NewService(idx, &stubPrices{})

	assets, err := svc.GetWalletAssets(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, a := range assets {
		if a.Decimals != 8 {
			t.Errorf("decimals for %s = %d, want default 8", a.AssetType, a.Decimals)
		}
		if !a.Balance.Equal(decimal.NewFromInt(1)) {
			t.Errorf("balance for %s = %s, want 1", a.AssetType, a.Balance)
		}
	}
}

func TestGetWalletAssetsExplicitZeroDecimals(t *testing.T) {
	idx := &stubIndexer{balances: []indexer.FungibleAssetBalance{
		{AssetType: "0xabc::m::T", Amount: "42", Metadata: &indexer.AssetMetadata{Decimals: intPtr(0), Symbol: "T"}},
	}}
	svc := NewService(idx, &stubPrices{})

	assets, err := svc.GetWalletAssets(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assets[0].Decimals != 0 {
		t.Errorf("decimals = %d, want 0; an explicit zero is not a missing value", assets[0].Decimals)
	}
	if !assets[0].Balance.Equal(decimal.NewFromInt(42)) {
		t.Errorf("balance = %s, want 42 at 0 decimals", assets[0].Balance)
	}
}

func TestGetWalletAssetsNilPriceExcludedFromValue(t *testing.T) {
	idx := &stubIndexer{balances: []indexer.FungibleAssetBalance{
		{AssetType: "0xabc::m::T", Amount: "100000000", Metadata: &indexer.AssetMetadata{Decimals: intPtr(8), Symbol: "T"}},
	}}
	svc := NewService(idx, &stubPrices{})

	assets, err := svc.GetWalletAssets(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assets[0].Price != nil {
		t.Error("price should stay nil when unresolved")
	}
	if assets[0].Value != nil {
		t.Error("value should stay nil when price is unknown, not zero")
	}
}

func TestGetWalletAssetsPhantomAssetNotValued(t *testing.T) {
	mklp := "0x5ae6789dd2fec1a9ec9cccfb3acaf12e93d432f0a3a42c92fe1a9d490b7bbc06::house_lp::MKLP"
	idx := &stubIndexer{balances: []indexer.FungibleAssetBalance{
		{AssetType: mklp, Amount: "100000000", Metadata: &indexer.AssetMetadata{Decimals: intPtr(8), Symbol: "MKLP"}},
	}}
	svc := NewService(idx, &stubPrices{prices: map[string]float64{mklp: 1.05}})

	assets, err := svc.GetWalletAssets(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assets[0].Price == nil {
		t.Error("price should still be reported for a receipt token")
	}
	if assets[0].Value != nil {
		t.Errorf("value = %v, want nil: the position already carries this value", assets[0].Value)
	}
}

func TestGetWalletAssetsIndexerFailure(t *testing.T) {
	idx := &stubIndexer{err: errors.New("indexer down")}
	svc := NewService(idx, &stubPrices{})

	_, err := svc.GetWalletAssets(context.Background(), testWallet)
	if err == nil {
		t.Fatal("expected wrapped error, got nil (no silent empty list)")
	}
	if !strings.Contains(err.Error(), testWallet) {
		t.Errorf("error %q should carry the wallet address", err)
	}
}

func TestGetWalletAssetsInvalidAddress(t *testing.T) {
	idx := &stubIndexer{}
	svc := NewService(idx, &stubPrices{})

	_, err := svc.GetWalletAssets(context.Background(), "0x123")
	if !errors.Is(err, domain.ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress before any fetch", err)
	}
}

func TestGetAssetPricesNeverFails(t *testing.T) {
	svc := NewService(&stubIndexer{}, &stubPrices{prices: map[string]float64{"0xa": 1}})

	prices := svc.GetAssetPrices(context.Background(), []string{"0xa", "0xb"})
	if len(prices) != 2 {
		t.Fatalf("entries = %d, want one per input", len(prices))
	}
	if prices[0].Price == nil {
		t.Error("0xa should resolve")
	}
	if prices[1].Price != nil {
		t.Error("0xb should carry the nil-price sentinel")
	}
}
