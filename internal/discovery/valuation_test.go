package discovery

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
)

const (
	stAPTType = amnisAddr + "::stapt_token::StakedApt"
	lzUSDC    = "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC"
)

func priceMap(prices map[string]float64) map[string]domain.AssetPrice {
	out := make(map[string]domain.AssetPrice, len(prices))
	for addr, v := range prices {
		d := decimal.NewFromFloat(v)
		out[addr] = domain.AssetPrice{AssetType: addr, Price: &d}
	}
	return out
}

func TestCollectPriceAddresses(t *testing.T) {
	positions := []domain.DetailedPosition{
		{
			Tokens: []domain.TokenHolding{{Address: stAPTType}, {Address: stAPTType}},
			LPTokens: []domain.LPHolding{
				{PoolTokens: []string{domain.APTAddress, lzUSDC}},
				{PoolTokens: []string{"APT"}}, // symbol-only pair, not priceable
			},
		},
	}

	addresses := collectPriceAddresses(positions)
	for _, want := range []string{stAPTType, domain.APTAddress, lzUSDC} {
		if !lo.Contains(addresses, want) {
			t.Errorf("addresses should include %s", want)
		}
	}
	if lo.Contains(addresses, "APT") {
		t.Error("bare symbols must not be sent to the price service")
	}
	if len(addresses) != len(lo.Uniq(addresses)) {
		t.Error("addresses should be deduplicated")
	}
}

func TestResolvePriceDirect(t *testing.T) {
	prices := priceMap(map[string]float64{lzUSDC: 1.0})
	if p := resolvePrice(lzUSDC, prices); p == nil || !p.Equal(decimal.NewFromInt(1)) {
		t.Errorf("price = %v, want 1", p)
	}
}

func TestResolvePriceViaUnderlying(t *testing.T) {
	prices := priceMap(map[string]float64{domain.APTAddress: 5.0})
	if p := resolvePrice(stAPTType, prices); p == nil || !p.Equal(decimal.NewFromInt(5)) {
		t.Errorf("price = %v, want APT's 5 through the underlying mapping", p)
	}
}

func TestResolvePriceUnresolved(t *testing.T) {
	if p := resolvePrice("0xdead::m::T", priceMap(nil)); p != nil {
		t.Errorf("price = %v, want nil, never zero", p)
	}
}

func TestValuePositionStaking(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "amnis", ProtocolAddress: amnisAddr,
		Type: domain.PositionTypeStaking, IsActive: true,
		Tokens: []domain.TokenHolding{{Symbol: "StakedApt", Address: stAPTType, Balance: "500000000"}},
	}
	out := valuePosition(p, priceMap(map[string]float64{domain.APTAddress: 5.0}))

	if out.ProtocolLabel != "Amnis Finance" || out.ProtocolType != domain.ProtocolTypeLiquidStaking {
		t.Errorf("protocol identity = %s/%s, want registry label and type", out.ProtocolLabel, out.ProtocolType)
	}
	if len(out.Position.Staked) != 1 {
		t.Fatalf("staked entries = %d, want 1", len(out.Position.Staked))
	}
	e := out.Position.Staked[0]
	if e.Amount != "5" {
		t.Errorf("amount = %s, want 5 (500000000 at 8 decimals)", e.Amount)
	}
	if e.Value == nil || !e.Value.Equal(decimal.NewFromInt(25)) {
		t.Errorf("value = %v, want 25", e.Value)
	}
	if !out.TotalValue.Equal(decimal.NewFromInt(25)) {
		t.Errorf("total = %s, want 25", out.TotalValue)
	}
}

func TestValuePositionLendingDirections(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "aries", ProtocolAddress: ariesAddr,
		Type: domain.PositionTypeLending, IsActive: true,
		Tokens: []domain.TokenHolding{
			{Symbol: "USDC", Address: lzUSDC, Balance: "100000000", Direction: domain.DirectionSupplied},
			{Symbol: "APT", Address: domain.APTAddress, Balance: "400000000", Direction: domain.DirectionBorrowed},
		},
	}
	out := valuePosition(p, priceMap(map[string]float64{lzUSDC: 1.0, domain.APTAddress: 5.0}))

	if len(out.Position.Supplied) != 1 || len(out.Position.Borrowed) != 1 {
		t.Fatalf("buckets = %d supplied / %d borrowed, want 1/1", len(out.Position.Supplied), len(out.Position.Borrowed))
	}
	if out.Position.Supplied[0].Amount != "100" {
		t.Errorf("supplied amount = %s, want 100 (USDC uses 6 decimals)", out.Position.Supplied[0].Amount)
	}
	// 100 supplied minus 20 borrowed
	if !out.TotalValue.Equal(decimal.NewFromInt(80)) {
		t.Errorf("total = %s, want 80 (borrowed subtracts)", out.TotalValue)
	}
}

func TestValuePositionUnpricedEntryKept(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "thala", ProtocolAddress: thalaAddr,
		Type: domain.PositionTypeLiquidity, IsActive: true,
		Tokens: []domain.TokenHolding{{Symbol: "THL", Address: thalaAddr + "::thl_coin::THL", Balance: "100000000"}},
	}
	out := valuePosition(p, priceMap(nil))

	if len(out.Position.Supplied) != 1 {
		t.Fatal("unpriced entry must stay in the detail list")
	}
	if out.Position.Supplied[0].Value != nil {
		t.Error("value should be nil when the price is unavailable")
	}
	if !out.TotalValue.IsZero() {
		t.Errorf("total = %s, want 0 contribution from nil-price entries", out.TotalValue)
	}
}

func TestValuePositionPlainTokensNeverFillLiquidity(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "thala", ProtocolAddress: thalaAddr,
		Type: domain.PositionTypeLiquidity, IsActive: true,
		Tokens: []domain.TokenHolding{{Symbol: "MOD", Address: thalaAddr + "::mod_coin::MOD", Balance: "100000000"}},
	}
	out := valuePosition(p, priceMap(map[string]float64{thalaAddr + "::mod_coin::MOD": 1.0}))

	if len(out.Position.Liquidity) != 0 {
		t.Error("plain tokens held at a DEX belong in Supplied, Liquidity is for pool shares")
	}
	if len(out.Position.Supplied) != 1 {
		t.Errorf("supplied entries = %d, want 1", len(out.Position.Supplied))
	}
}

func TestValuePositionFarmingTokenSupplied(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "thala-farm", ProtocolAddress: "0x6b3720cd988adeaf721ed9d4730da4324d52364871a68eac62b46d21e4d2fa99",
		Type: domain.PositionTypeFarming, IsActive: true,
		Tokens: []domain.TokenHolding{{Symbol: "THL", Address: thalaAddr + "::thl_coin::THL", Balance: "100000000"}},
	}
	out := valuePosition(p, priceMap(nil))

	if len(out.Position.Supplied) != 1 || len(out.Position.Staked) != 0 {
		t.Errorf("buckets = %d supplied / %d staked, want the plain farm token under Supplied",
			len(out.Position.Supplied), len(out.Position.Staked))
	}
}

func TestValuePositionLPFirstPriceableToken(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "thala", ProtocolAddress: thalaAddr,
		Type: domain.PositionTypeLiquidity, IsActive: true,
		LPTokens: []domain.LPHolding{{
			PoolType:   "thala-stable",
			PoolTokens: []string{"0xdead::m::Unknown", lzUSDC},
			Balance:    "300000000",
		}},
	}
	out := valuePosition(p, priceMap(map[string]float64{lzUSDC: 1.0}))

	if len(out.Position.Liquidity) != 1 {
		t.Fatalf("liquidity entries = %d, want 1", len(out.Position.Liquidity))
	}
	e := out.Position.Liquidity[0]
	if e.Symbol != "Unknown/USDC LP" {
		t.Errorf("symbol = %s, want Unknown/USDC LP", e.Symbol)
	}
	if e.Value == nil || !e.Value.Equal(decimal.NewFromInt(3)) {
		t.Errorf("value = %v, want 3 (first priceable pool token at $1)", e.Value)
	}
}

func TestValuePositionDerivativesBucket(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "merkle", ProtocolAddress: "0x5ae6789dd2fec1a9ec9cccfb3acaf12e93d432f0a3a42c92fe1a9d490b7bbc06",
		Type: domain.PositionTypeDerivatives, IsActive: true,
		LPTokens: []domain.LPHolding{{PoolType: "merkle-house", Balance: "100000000"}},
	}
	out := valuePosition(p, priceMap(nil))
	if len(out.Position.Derivatives) != 1 || len(out.Position.Liquidity) != 0 {
		t.Error("derivatives pool shares belong in the derivatives bucket")
	}
}

func TestValuePositionPlaceholderForOpaqueState(t *testing.T) {
	p := domain.DetailedPosition{
		Protocol: "aries", ProtocolAddress: ariesAddr,
		Type: domain.PositionTypeLending, IsActive: true,
	}
	out := valuePosition(p, priceMap(nil))

	if len(out.Position.Supplied) != 1 {
		t.Fatal("opaque active positions should surface a marker entry")
	}
	marker := out.Position.Supplied[0]
	if marker.Amount != "0.001" || marker.Value != nil {
		t.Errorf("marker = %+v, want amount 0.001 with no value", marker)
	}
}

func TestValuePositionsDropsInactive(t *testing.T) {
	positions := []domain.DetailedPosition{
		{Protocol: "thala", IsActive: false},
		{Protocol: "amnis", IsActive: true},
	}
	valued := valuePositions(positions, priceMap(nil))
	if len(valued) != 1 || valued[0].Protocol != "amnis" {
		t.Errorf("valued = %+v, want only the active position", valued)
	}
}
