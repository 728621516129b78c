package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aptfolio/defitrack/internal/domain"
)

// lpSignature maps an LP token type fragment to the pool family it belongs to.
// Matching runs against the full resource type, so LP coins held inside a
// CoinStore are recognized the same way as bare pool resources.
type lpSignature struct {
	Fragment string
	PoolType string
}

var lpSignatures = []lpSignature{
	{Fragment: "::stable_pool::StablePoolToken<", PoolType: "thala-stable"},
	{Fragment: "::weighted_pool::WeightedPoolToken<", PoolType: "thala-weighted"},
	{Fragment: "::stable_pool::StablePool<", PoolType: "thala-stable"},
	{Fragment: "::weighted_pool::WeightedPool<", PoolType: "thala-weighted"},
	{Fragment: "::lp_coin::LP<", PoolType: "liquidswap"},
	{Fragment: "::swap::LPToken<", PoolType: "pancakeswap"},
	{Fragment: "::liquidity_pool::LiquidityPool<", PoolType: "amm"},
	{Fragment: "::house_lp::MKLP<", PoolType: "merkle-house"},
}

func matchLPSignature(resourceType string) (lpSignature, bool) {
	for _, sig := range lpSignatures {
		if strings.Contains(resourceType, sig.Fragment) {
			return sig, true
		}
	}
	return lpSignature{}, false
}

const coinStorePrefix = "0x1::coin::CoinStore<"

// coinStoreInner returns the stored coin type of a CoinStore resource type.
func coinStoreInner(resourceType string) (string, bool) {
	if !strings.HasPrefix(resourceType, coinStorePrefix) || !strings.HasSuffix(resourceType, ">") {
		return "", false
	}
	return resourceType[len(coinStorePrefix) : len(resourceType)-1], true
}

// coinValue reads the balance out of a CoinStore-shaped resource payload.
func coinValue(data json.RawMessage) string {
	var payload struct {
		Coin struct {
			Value string `json:"value"`
		} `json:"coin"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return payload.Coin.Value
}

// topLevelKeys counts the top-level fields of a resource payload. Protocol
// state resources without a parseable balance still count as activity when
// they carry more than a bare marker field.
func topLevelKeys(data json.RawMessage) int {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0
	}
	return len(payload)
}

// directionFor infers whether a lending resource represents supplied or
// borrowed funds from the resource type's vocabulary. Non-lending positions
// do not carry a direction.
func directionFor(resourceType string, protocolType domain.ProtocolType) domain.PositionDirection {
	if protocolType != domain.ProtocolTypeLending {
		return ""
	}
	lowered := strings.ToLower(resourceType)
	switch {
	case strings.Contains(lowered, "borrow") || strings.Contains(lowered, "debt") || strings.Contains(lowered, "loan"):
		return domain.DirectionBorrowed
	case strings.Contains(lowered, "deposit") || strings.Contains(lowered, "supply") ||
		strings.Contains(lowered, "collateral") || strings.Contains(lowered, "coinstore"):
		return domain.DirectionSupplied
	default:
		return domain.DirectionUnknown
	}
}

// symbolFromType derives a display symbol from a fully-qualified coin type,
// using the trailing struct name.
func symbolFromType(coinType string) string {
	segments := strings.Split(coinType, "::")
	name := segments[len(segments)-1]
	if i := strings.Index(name, "<"); i != -1 {
		name = name[:i]
	}
	return name
}

// DiscoverViaResources walks the account's on-chain resources and groups the
// ones owned by known protocols into positions. A resource fetch failure is
// fatal for this path: there is no partial view to fall back on.
func (s *Service) DiscoverViaResources(ctx context.Context, address string) ([]domain.DetailedPosition, error) {
	resources, err := s.indexer.FetchResources(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("resource discovery for %s: %w", address, err)
	}
	positions := classifyResources(resources)
	slog.Debug("resource discovery complete",
		"wallet", address, "resources", len(resources), "positions", len(positions))
	return positions, nil
}

// classifyResources groups protocol-owned resources into one position per
// (protocol, position type) pair, parsing balances where the resource shape is
// understood. Positions come back active-first, then by protocol name.
func classifyResources(resources []domain.RawAccountResource) []domain.DetailedPosition {
	type groupKey struct {
		protocol     string
		positionType domain.PositionType
	}

	groups := make(map[groupKey]*domain.DetailedPosition)
	var order []groupKey

	for _, r := range resources {
		protocol, ok := domain.MatchProtocol(r.Type)
		if !ok {
			continue
		}

		key := groupKey{protocol: protocol.Name, positionType: domain.PositionTypeFor(protocol.Type)}
		pos, exists := groups[key]
		if !exists {
			pos = &domain.DetailedPosition{
				Protocol:        protocol.Name,
				ProtocolAddress: protocol.Addresses[0],
				Type:            key.positionType,
				Description:     protocol.Label + " " + string(key.positionType) + " position",
			}
			groups[key] = pos
			order = append(order, key)
		}
		pos.Resources = append(pos.Resources, r)

		balance := coinValue(r.Data)
		inner, isStore := coinStoreInner(r.Type)
		if sig, isLP := matchLPSignature(r.Type); isLP {
			lpType := r.Type
			if isStore {
				lpType = inner
			}
			pos.LPTokens = append(pos.LPTokens, domain.LPHolding{
				PoolType:   sig.PoolType,
				PoolTokens: typeParams(lpType),
				Balance:    balance,
			})
		} else if isStore {
			pos.Tokens = append(pos.Tokens, domain.TokenHolding{
				Symbol:    symbolFromType(inner),
				Address:   inner,
				Balance:   balance,
				Direction: directionFor(r.Type, protocol.Type),
			})
		}

		if !pos.IsActive {
			pos.IsActive = hasActivity(balance, r.Data)
		}
	}

	positions := make([]domain.DetailedPosition, 0, len(order))
	for _, key := range order {
		positions = append(positions, *groups[key])
	}
	sort.SliceStable(positions, func(i, j int) bool {
		if positions[i].IsActive != positions[j].IsActive {
			return positions[i].IsActive
		}
		return positions[i].Protocol < positions[j].Protocol
	})
	return positions
}

// hasActivity reports whether a resource shows signs of an actual position:
// either a non-zero parsed balance or protocol state beyond a single marker
// field.
func hasActivity(balance string, data json.RawMessage) bool {
	if balance != "" && balance != "0" {
		return true
	}
	return topLevelKeys(data) > 1
}
