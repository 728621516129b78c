package price

import (
	"strings"

	"github.com/shopspring/decimal"
)

// priceOverride pins a fixed USD price for an instrument the price sources do
// not index. Either Address (exact match) or Pattern (substring of the asset
// type) must be set.
type priceOverride struct {
	Address string
	Pattern string
	Price   decimal.Decimal
}

// priceOverrides is the whitelist of synthetic/vault tokens with pinned
// prices. Checked before any lookup, so these resolve even when every price
// source is down.
var priceOverrides = []priceOverride{
	{Pattern: "::house_lp::MKLP", Price: decimal.RequireFromString("1.05")},
	{Pattern: "::mkl_token::MKL", Price: decimal.RequireFromString("0.10")},
	{Address: "0x48271d39d0b05bd6efca2278f22277d6fcc375504f9839fd73f74ace240861af::mod_coin::MOD", Price: decimal.RequireFromString("1.00")},
}

// overridePrice returns the pinned price for an asset, or false when the
// asset has no override.
func overridePrice(assetType string) (decimal.Decimal, bool) {
	for _, o := range priceOverrides {
		if o.Address != "" && o.Address == assetType {
			return o.Price, true
		}
		if o.Pattern != "" && strings.Contains(assetType, o.Pattern) {
			return o.Price, true
		}
	}
	return decimal.Decimal{}, false
}
