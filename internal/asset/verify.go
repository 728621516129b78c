package asset

import (
	"strings"

	"github.com/aptfolio/defitrack/internal/domain"
)

// isVerified computes the advisory scam/fake-token flag. It is not a filter:
// callers decide whether to hide unverified assets.
//
// An asset is unverified when it is blacklisted, matches a scam substring,
// looks like a stablecoin without being allowlisted, or calls itself APT at a
// non-canonical address.
func isVerified(assetType, symbol string) bool {
	if domain.IsBlacklisted(assetType) {
		return false
	}
	if domain.MatchesScamPattern(assetType) {
		return false
	}
	if domain.IsStablecoinLike(assetType, symbol) && !domain.IsAllowedStablecoin(assetType) {
		return false
	}
	if looksLikeAPT(symbol) && assetType != domain.APTAddress {
		return false
	}
	return true
}

func looksLikeAPT(symbol string) bool {
	return strings.EqualFold(symbol, "APT") || strings.EqualFold(symbol, "aptos")
}
