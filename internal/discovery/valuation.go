package discovery

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
)

// collectPriceAddresses gathers every asset address valuation will need, so
// pricing happens in a single batched call: plain token addresses, LP pool
// token types, and the canonical underlyings of receipt tokens.
func collectPriceAddresses(positions []domain.DetailedPosition) []string {
	var addresses []string
	add := func(addr string) {
		if !strings.HasPrefix(addr, "0x") {
			return
		}
		addresses = append(addresses, addr)
		if underlying, ok := domain.UnderlyingAsset(addr); ok {
			addresses = append(addresses, underlying)
		}
	}

	for _, p := range positions {
		for _, t := range p.Tokens {
			add(t.Address)
		}
		for _, l := range p.LPTokens {
			for _, poolToken := range l.PoolTokens {
				add(poolToken)
			}
		}
	}
	return lo.Uniq(addresses)
}

// resolvePrice finds a usable price for an asset: directly, or through its
// canonical underlying for receipt tokens the price sources do not list.
// Returns nil when neither resolves; zero is never substituted.
func resolvePrice(address string, prices map[string]domain.AssetPrice) *decimal.Decimal {
	if p, ok := prices[address]; ok && p.Price != nil {
		return p.Price
	}
	if underlying, ok := domain.UnderlyingAsset(address); ok {
		if p, ok := prices[underlying]; ok && p.Price != nil {
			return p.Price
		}
	}
	return nil
}

// valuePositions converts discovered positions into valued output records.
// Entries with unresolved prices are kept with a nil value and contribute
// zero to totals. Inactive positions are dropped here.
func valuePositions(positions []domain.DetailedPosition, prices map[string]domain.AssetPrice) []domain.DeFiPosition {
	valued := make([]domain.DeFiPosition, 0, len(positions))
	for _, p := range positions {
		if !p.IsActive {
			continue
		}
		valued = append(valued, valuePosition(p, prices))
	}
	return valued
}

func valuePosition(p domain.DetailedPosition, prices map[string]domain.AssetPrice) domain.DeFiPosition {
	out := domain.DeFiPosition{
		Protocol: p.Protocol,
		Address:  p.ProtocolAddress,
	}
	if protocol, ok := domain.ProtocolByName(p.Protocol); ok {
		out.ProtocolLabel = protocol.Label
		out.ProtocolType = protocol.Type
	}

	total := decimal.Zero
	addEntry := func(bucket *[]domain.PositionEntry, e domain.PositionEntry, borrowed bool) {
		*bucket = append(*bucket, e)
		if e.Value == nil {
			return
		}
		if borrowed {
			total = total.Sub(*e.Value)
		} else {
			total = total.Add(*e.Value)
		}
	}

	for _, t := range p.Tokens {
		entry := tokenEntry(t, prices)
		bucket, borrowed := bucketFor(p.Type, t.Direction, &out.Position)
		addEntry(bucket, entry, borrowed)
	}
	for _, l := range p.LPTokens {
		entry := lpEntry(l, prices)
		if p.Type == domain.PositionTypeDerivatives {
			addEntry(&out.Position.Derivatives, entry, false)
		} else {
			addEntry(&out.Position.Liquidity, entry, false)
		}
	}

	if positionIsEmpty(out.Position) {
		// Active protocol state with no parseable holdings still surfaces as
		// a marker entry so the position is not silently dropped.
		out.Position.Supplied = append(out.Position.Supplied, domain.PositionEntry{
			Asset:     p.ProtocolAddress,
			Symbol:    p.Protocol,
			Amount:    "0.001",
			Direction: domain.DirectionUnknown,
		})
	}

	out.TotalValue = total
	return out
}

func tokenEntry(t domain.TokenHolding, prices map[string]domain.AssetPrice) domain.PositionEntry {
	amount := domain.ConvertToDecimal(t.Balance, domain.DecimalsFor(t.Address))
	entry := domain.PositionEntry{
		Asset:     t.Address,
		Symbol:    t.Symbol,
		Amount:    amount.String(),
		Direction: t.Direction,
	}
	if price := resolvePrice(t.Address, prices); price != nil {
		value := domain.CalculateValue(amount, *price)
		entry.Value = &value
	}
	return entry
}

// lpEntry values a pool share by its first priceable pool token. Exact
// underlying amounts are not derivable from the share balance alone, so this
// stays an approximation; unresolvable pools keep a nil value.
func lpEntry(l domain.LPHolding, prices map[string]domain.AssetPrice) domain.PositionEntry {
	amount := domain.ConvertToDecimal(l.Balance, domain.DefaultDecimals)
	entry := domain.PositionEntry{
		Asset:  l.PoolType,
		Symbol: lpSymbol(l),
		Amount: amount.String(),
	}
	for _, poolToken := range l.PoolTokens {
		if price := resolvePrice(poolToken, prices); price != nil {
			value := domain.CalculateValue(amount, *price)
			entry.Value = &value
			break
		}
	}
	return entry
}

func lpSymbol(l domain.LPHolding) string {
	names := lo.FilterMap(l.PoolTokens, func(poolToken string, _ int) (string, bool) {
		name := lastTypeSegment(poolToken)
		return name, name != ""
	})
	if len(names) == 0 {
		return strings.ToUpper(l.PoolType) + " LP"
	}
	return strings.Join(names, "/") + " LP"
}

// bucketFor picks the detail bucket for a plain token entry from the position
// type, splitting lending entries by direction. Everything else defaults to
// Supplied: the Liquidity bucket is reserved for actual pool shares, so plain
// tokens held at a DEX or farm never masquerade as LP data.
func bucketFor(pt domain.PositionType, dir domain.PositionDirection, detail *domain.PositionDetail) (*[]domain.PositionEntry, bool) {
	switch pt {
	case domain.PositionTypeLending:
		if dir == domain.DirectionBorrowed {
			return &detail.Borrowed, true
		}
		return &detail.Supplied, false
	case domain.PositionTypeStaking:
		return &detail.Staked, false
	case domain.PositionTypeDerivatives:
		return &detail.Derivatives, false
	default:
		return &detail.Supplied, false
	}
}

func positionIsEmpty(d domain.PositionDetail) bool {
	return len(d.Supplied) == 0 && len(d.Borrowed) == 0 &&
		len(d.Liquidity) == 0 && len(d.Staked) == 0 && len(d.Derivatives) == 0
}
