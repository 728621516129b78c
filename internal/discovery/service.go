package discovery

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
)

// IndexerClient defines the fullnode access used by resource discovery.
type IndexerClient interface {
	FetchResources(ctx context.Context, address string) ([]domain.RawAccountResource, error)
}

// AssetService defines the wallet-asset access used by the asset discovery path.
type AssetService interface {
	GetWalletAssets(ctx context.Context, address string) ([]domain.EnrichedAsset, error)
}

// PriceService defines the batch price resolution used by valuation.
type PriceService interface {
	GetBatchPrices(ctx context.Context, addresses []string) map[string]domain.AssetPrice
}

// Service discovers, merges, and values a wallet's DeFi positions.
type Service struct {
	indexer IndexerClient
	assets  AssetService
	prices  PriceService
}

// NewService creates a new discovery Service.
func NewService(indexerClient IndexerClient, assets AssetService, prices PriceService) *Service {
	if indexerClient == nil {
		panic("discovery.NewService: indexer is nil")
	}
	if assets == nil {
		panic("discovery.NewService: assets is nil")
	}
	if prices == nil {
		panic("discovery.NewService: prices is nil")
	}
	return &Service{indexer: indexerClient, assets: assets, prices: prices}
}

// GetDeFiPositions runs both discovery paths concurrently, merges their
// output, values it in one batched price call, and drops dust. Resource
// discovery failing is fatal; the asset path already degrades to empty on its
// own errors.
func (s *Service) GetDeFiPositions(ctx context.Context, address string) ([]domain.DeFiPosition, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return nil, err
	}

	var (
		fromResources []domain.DetailedPosition
		fromAssets    []domain.DetailedPosition
		resourceErr   error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fromAssets = s.DiscoverViaAssets(ctx, address)
	}()
	fromResources, resourceErr = s.DiscoverViaResources(ctx, address)
	<-done
	if resourceErr != nil {
		return nil, resourceErr
	}

	merged := mergePositions(fromResources, fromAssets)
	prices := s.prices.GetBatchPrices(ctx, collectPriceAddresses(merged))
	positions := filterDust(valuePositions(merged, prices))

	slog.Info("defi positions resolved",
		"wallet", address,
		"discovered", len(merged),
		"returned", len(positions))
	return positions, nil
}

// GetDeFiStats aggregates a wallet's positions into portfolio totals with a
// per-protocol breakdown, largest first.
func (s *Service) GetDeFiStats(ctx context.Context, address string) (domain.DeFiStats, error) {
	positions, err := s.GetDeFiPositions(ctx, address)
	if err != nil {
		return domain.DeFiStats{}, err
	}

	byProtocol := lo.GroupBy(positions, func(p domain.DeFiPosition) string {
		return p.Protocol
	})
	breakdown := make([]domain.ProtocolValue, 0, len(byProtocol))
	for protocol, group := range byProtocol {
		value := lo.Reduce(group, func(acc decimal.Decimal, p domain.DeFiPosition, _ int) decimal.Decimal {
			return acc.Add(p.TotalValue)
		}, decimal.Zero)
		breakdown = append(breakdown, domain.ProtocolValue{
			Protocol: protocol,
			Label:    group[0].ProtocolLabel,
			Value:    value,
		})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		if !breakdown[i].Value.Equal(breakdown[j].Value) {
			return breakdown[i].Value.GreaterThan(breakdown[j].Value)
		}
		return breakdown[i].Protocol < breakdown[j].Protocol
	})

	total := lo.Reduce(breakdown, func(acc decimal.Decimal, pv domain.ProtocolValue, _ int) decimal.Decimal {
		return acc.Add(pv.Value)
	}, decimal.Zero)

	top := lo.Map(breakdown, func(pv domain.ProtocolValue, _ int) string {
		return pv.Protocol
	})
	if len(top) > 5 {
		top = top[:5]
	}

	return domain.DeFiStats{
		Wallet:            address,
		TotalPositions:    len(positions),
		TotalValueLocked:  total,
		ProtocolBreakdown: breakdown,
		TopProtocols:      top,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}
