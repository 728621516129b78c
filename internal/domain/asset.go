package domain

import (
	"strings"

	"github.com/samber/lo"
)

// APTAddress is the canonical coin type of the native APT asset. Anything that
// calls itself APT but lives at a different address is a fake.
const APTAddress = "0x1::aptos_coin::AptosCoin"

// DefaultDecimals is assumed when asset metadata carries no usable decimals.
const DefaultDecimals = 8

// stablecoinAllowlist holds the asset types of legitimate stablecoins. Any
// asset that looks like a stablecoin but is not listed here is unverified.
var stablecoinAllowlist = map[string]bool{
	"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC": true,
	"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDT": true,
	"0x5e156f1207d0ebfa19a9eeff00d62a282278fb8719f4fab3a586a0a2c0fffbea::coin::T":     true,
	"0xbae207659db88bea0cbead6da0ed00aac12edcdda169e591cd41c94180b46f3b":              true, // native USDC (FA)
	"0x357b0b74bc833e95a115ad22604854d6b0fca151cecd94111770e5d6ffc9dc2b":              true, // native USDT (FA)
}

// stablecoinHints are symbol/address substrings that mark an asset as
// stablecoin-looking, triggering the allowlist check.
var stablecoinHints = []string{"usdc", "usdt", "usda", "busd", "dai", "musd", "mod"}

// scamBlacklist holds asset types known to be scams or impersonations.
var scamBlacklist = map[string]bool{
	"0x397071c01929cc6672a17f130bd62b1bce224309029837ce4f18214cc83ce2a7::USDC::USDC":  true,
	"0xbbc4a9af0e7fa8885bda5db08028e7b882f2c2bba1e0fedbad1d8316f73f8b2f::ograffio::Ograffio": true,
	"0xf658475dc67a4d48295dbcea6de1dc3c9af64c1c80d4161284df369ed9bcb64f::ember_coin::EmberCoin": true,
}

// scamPatterns are substrings whose presence in an asset type marks it
// unverified regardless of other checks.
var scamPatterns = []string{"claim", "airdrop", "reward.apt", "free", "bonus", "gift", ".site", ".xyz"}

// phantomAssets are locked or wrapped receipt tokens that represent claims
// rather than spendable balances. They are never valued directly.
var phantomAssets = map[string]string{
	"0x5ae6789dd2fec1a9ec9cccfb3acaf12e93d432f0a3a42c92fe1a9d490b7bbc06::house_lp::MKLP":       "Merkle house LP receipt",
	"0x9770fa9c725cbd97eb50b2be5f7416efdfd1f1554beb0750d4dae4c64e860da3::reserve::LP":          "Aries reserve receipt",
	"0x6b3720cd988adeaf721ed9d4730da4324d52364871a68eac62b46d21e4d2fa99::farming::StakedLP":    "Thala farm staked LP receipt",
	"0x111ae3e5bc816a5e63c2da97d0aa3886519e0cd5e4b046659fa35796bd11542a::stapt_token::StakedApt": "Amnis staked APT receipt",
}

// IsPhantomAsset reports whether the asset type is a locked/wrapped receipt
// token that should not be independently valued.
func IsPhantomAsset(assetType string) bool {
	_, ok := phantomAssets[assetType]
	return ok
}

// IsStablecoinLike reports whether an asset looks like a stablecoin by symbol
// or by a segment of its type string.
func IsStablecoinLike(assetType, symbol string) bool {
	segments := strings.Split(strings.ToLower(assetType), "::")
	loweredSymbol := strings.ToLower(symbol)
	return lo.SomeBy(stablecoinHints, func(hint string) bool {
		return strings.Contains(loweredSymbol, hint) || lo.Contains(segments, hint)
	})
}

// IsAllowedStablecoin reports whether a stablecoin-looking asset is on the
// legitimate allowlist.
func IsAllowedStablecoin(assetType string) bool {
	return stablecoinAllowlist[assetType]
}

// IsBlacklisted reports whether the asset type is a known scam token.
func IsBlacklisted(assetType string) bool {
	return scamBlacklist[assetType]
}

// MatchesScamPattern reports whether the asset type contains a suspicious
// substring from the scam heuristic list.
func MatchesScamPattern(assetType string) bool {
	lowered := strings.ToLower(assetType)
	return lo.SomeBy(scamPatterns, func(p string) bool {
		return strings.Contains(lowered, p)
	})
}

// underlyingAssets maps wrapped or derivative token addresses to the canonical
// asset whose price they track. Enumerated explicitly rather than guessed from
// symbol substrings so unrelated tokens cannot false-positive.
var underlyingAssets = map[string]string{
	"0x111ae3e5bc816a5e63c2da97d0aa3886519e0cd5e4b046659fa35796bd11542a::amapt_token::AmnisApt":   APTAddress,
	"0x111ae3e5bc816a5e63c2da97d0aa3886519e0cd5e4b046659fa35796bd11542a::stapt_token::StakedApt":  APTAddress,
	"0x952c1b1fc8eb75ee80f432c9d0a84fcda1d5c7481501a7eca9199f1596a60b53::staked_aptos_coin::StakedAptosCoin": APTAddress,
	"0xd11107bdf0d6d7040c6c0bfbdecb6545191fdf13e8d8d259952f53e1713f61b5::staked_coin::StakedAptos": APTAddress,
	"0x5e156f1207d0ebfa19a9eeff00d62a282278fb8719f4fab3a586a0a2c0fffbea::coin::T":                  "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC",
}

// UnderlyingAsset returns the canonical asset address a wrapped token tracks,
// or false when no mapping exists.
func UnderlyingAsset(assetType string) (string, bool) {
	underlying, ok := underlyingAssets[assetType]
	return underlying, ok
}

// knownDecimals maps asset addresses with non-default decimals. Everything
// else falls back to DefaultDecimals.
var knownDecimals = map[string]int{
	"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC": 6,
	"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDT": 6,
	"0x5e156f1207d0ebfa19a9eeff00d62a282278fb8719f4fab3a586a0a2c0fffbea::coin::T":     6,
	"0xbae207659db88bea0cbead6da0ed00aac12edcdda169e591cd41c94180b46f3b":              6,
	"0x357b0b74bc833e95a115ad22604854d6b0fca151cecd94111770e5d6ffc9dc2b":              6,
}

// DecimalsFor returns the decimals for an asset address, defaulting to 8.
func DecimalsFor(assetType string) int {
	if d, ok := knownDecimals[assetType]; ok {
		return d
	}
	return DefaultDecimals
}
