package discovery

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
)

// mergePositions combines the two discovery paths, deduplicating on
// (protocol, protocol address). The resource path sees richer state, so its
// positions win; asset-path positions only fill protocols the resource path
// missed entirely.
func mergePositions(fromResources, fromAssets []domain.DetailedPosition) []domain.DetailedPosition {
	type mergeKey struct {
		protocol string
		address  string
	}
	key := func(p domain.DetailedPosition) mergeKey {
		return mergeKey{protocol: p.Protocol, address: domain.NormalizeAddress(p.ProtocolAddress)}
	}

	seen := make(map[mergeKey]struct{}, len(fromResources))
	merged := make([]domain.DetailedPosition, 0, len(fromResources)+len(fromAssets))
	for _, p := range fromResources {
		seen[key(p)] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range fromAssets {
		if _, dup := seen[key(p)]; dup {
			continue
		}
		seen[key(p)] = struct{}{}
		merged = append(merged, p)
	}
	return merged
}

// minPositionValue is the dust threshold for whole positions.
var minPositionValue = decimal.New(1, -1) // $0.10

var lpCarveOutSymbols = []string{"lp", "pool", "thala-lp", "mklp"}

var lpCarveOutProtocolHints = []string{"farm", "liquidity", "pool"}

// filterDust drops valued positions worth less than ten cents. LP-shaped
// positions are always kept: pool shares are routinely underpriced by the
// price sources and hiding them would make liquidity silently vanish.
func filterDust(positions []domain.DeFiPosition) []domain.DeFiPosition {
	return lo.Filter(positions, func(p domain.DeFiPosition, _ int) bool {
		return p.TotalValue.GreaterThanOrEqual(minPositionValue) || isLPShaped(p)
	})
}

// isLPShaped reports whether a position looks like a liquidity holding: a
// populated Liquidity bucket (which only ever holds pool shares), an LP-looking
// entry symbol, or an LP-associated protocol name.
func isLPShaped(p domain.DeFiPosition) bool {
	if len(p.Position.Liquidity) > 0 {
		return true
	}
	for _, entries := range [][]domain.PositionEntry{
		p.Position.Supplied, p.Position.Staked, p.Position.Derivatives,
	} {
		for _, e := range entries {
			lowered := strings.ToLower(e.Symbol)
			if lo.SomeBy(lpCarveOutSymbols, func(hint string) bool {
				return strings.Contains(lowered, hint)
			}) {
				return true
			}
		}
	}
	loweredProtocol := strings.ToLower(p.Protocol)
	return lo.SomeBy(lpCarveOutProtocolHints, func(hint string) bool {
		return strings.Contains(loweredProtocol, hint)
	})
}
