package discovery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aptfolio/defitrack/internal/domain"
)

// lpSymbolHints marks wallet assets that look like pool shares even when the
// asset type carries no recognizable pool fragment.
var lpSymbolHints = []string{"lp", "pool"}

func looksLikeLPSymbol(symbol string) bool {
	lowered := strings.ToLower(symbol)
	for _, hint := range lpSymbolHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// DiscoverViaAssets cross-checks the wallet's fungible-asset balances against
// the protocol registry. It catches protocol tokens held directly in the
// wallet, such as LP coins and receipt tokens, that never show up as protocol
// resources. This path is best-effort: a failure is logged and yields an empty
// result so the resource path still stands on its own.
func (s *Service) DiscoverViaAssets(ctx context.Context, address string) []domain.DetailedPosition {
	assets, err := s.assets.GetWalletAssets(ctx, address)
	if err != nil {
		slog.Warn("asset discovery path failed", "wallet", address, "error", err)
		return nil
	}
	return positionsFromAssets(assets)
}

// positionsFromAssets turns protocol-associated wallet balances into
// positions, one per (protocol, position type) pair. Unverified assets are
// deliberately included: scam heuristics must not hide real positions.
func positionsFromAssets(assets []domain.EnrichedAsset) []domain.DetailedPosition {
	type groupKey struct {
		protocol     string
		positionType domain.PositionType
	}

	groups := make(map[groupKey]*domain.DetailedPosition)
	var order []groupKey

	for _, a := range assets {
		if a.Protocol == nil {
			continue
		}
		if a.Balance.IsZero() {
			continue
		}

		key := groupKey{protocol: a.Protocol.Name, positionType: domain.PositionTypeFor(a.Protocol.Type)}
		pos, exists := groups[key]
		if !exists {
			pos = &domain.DetailedPosition{
				Protocol:        a.Protocol.Name,
				ProtocolAddress: a.Protocol.Addresses[0],
				Type:            key.positionType,
				Description:     a.Protocol.Label + " " + string(key.positionType) + " position",
				IsActive:        true,
			}
			groups[key] = pos
			order = append(order, key)
		}

		if sig, isLP := matchLPSignature(a.AssetType); isLP {
			pos.LPTokens = append(pos.LPTokens, domain.LPHolding{
				PoolType:   sig.PoolType,
				PoolTokens: lpPoolTokens(a),
				Balance:    a.RawAmount,
			})
		} else if looksLikeLPSymbol(a.Symbol) {
			pos.LPTokens = append(pos.LPTokens, domain.LPHolding{
				PoolType:   a.Protocol.Name,
				PoolTokens: lpPoolTokens(a),
				Balance:    a.RawAmount,
			})
		} else {
			pos.Tokens = append(pos.Tokens, domain.TokenHolding{
				Symbol:  a.Symbol,
				Address: a.AssetType,
				Balance: a.RawAmount,
			})
		}
	}

	positions := make([]domain.DetailedPosition, 0, len(order))
	for _, key := range order {
		positions = append(positions, *groups[key])
	}
	return positions
}

// lpPoolTokens resolves the underlying pair for a pool share held in the
// wallet. Full type parameters are preferred because they carry priceable
// addresses; the symbol decoders only fill in when the type is opaque.
func lpPoolTokens(a domain.EnrichedAsset) []string {
	if params := typeParams(a.AssetType); len(params) > 0 {
		return params
	}
	if pair := DecodeLPPair(a.Protocol.Name, a.AssetType, a.Symbol); pair.Resolved {
		return pair.PoolTokens
	}
	return nil
}
