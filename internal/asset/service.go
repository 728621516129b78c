package asset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/aptfolio/defitrack/internal/domain"
	"github.com/aptfolio/defitrack/internal/indexer"
)

// IndexerClient defines the subset of the indexer API used by the asset service.
type IndexerClient interface {
	FetchBalances(ctx context.Context, address string) ([]indexer.FungibleAssetBalance, error)
}

// PriceService defines the batch price resolution interface.
type PriceService interface {
	GetBatchPrices(ctx context.Context, addresses []string) map[string]domain.AssetPrice
}

// Service fetches wallet fungible-asset balances and enriches them with
// decimals, prices, values, protocol identity, and a verification flag.
type Service struct {
	indexer IndexerClient
	prices  PriceService
}

// NewService creates a new asset Service.
func NewService(indexerClient IndexerClient, prices PriceService) *Service {
	if indexerClient == nil {
		panic("asset.NewService: indexer is nil")
	}
	if prices == nil {
		panic("asset.NewService: prices is nil")
	}
	return &Service{indexer: indexerClient, prices: prices}
}

// GetWalletAssets retrieves and enriches all fungible-asset balances for a
// wallet. An indexer failure is logged with context and returned wrapped; a
// completely failed asset list has no useful partial fallback, so the caller
// must see the error rather than an empty success.
func (s *Service) GetWalletAssets(ctx context.Context, address string) ([]domain.EnrichedAsset, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return nil, err
	}

	balances, err := s.indexer.FetchBalances(ctx, address)
	if err != nil {
		slog.Error("wallet asset fetch failed", "wallet", address, "error", err)
		return nil, fmt.Errorf("fetching wallet assets for %s: %w", address, err)
	}

	addresses := lo.Map(balances, func(b indexer.FungibleAssetBalance, _ int) string {
		return b.AssetType
	})
	priceMap := s.prices.GetBatchPrices(ctx, addresses)

	assets := make([]domain.EnrichedAsset, 0, len(balances))
	for _, b := range balances {
		assets = append(assets, s.enrich(b, priceMap[b.AssetType]))
	}
	return assets, nil
}

// GetAssetPrices resolves prices for the given addresses, always returning
// one entry per input in input order. Never fails: unresolved addresses carry
// the nil-price sentinel.
func (s *Service) GetAssetPrices(ctx context.Context, addresses []string) []domain.AssetPrice {
	priceMap := s.prices.GetBatchPrices(ctx, addresses)
	return lo.Map(addresses, func(addr string, _ int) domain.AssetPrice {
		if p, ok := priceMap[addr]; ok {
			return p
		}
		return domain.AssetPrice{AssetType: addr}
	})
}

func (s *Service) enrich(b indexer.FungibleAssetBalance, price domain.AssetPrice) domain.EnrichedAsset {
	var symbol, name string
	decimals := domain.DefaultDecimals
	if b.Metadata != nil {
		symbol = b.Metadata.Symbol
		name = b.Metadata.Name
		if d := b.Metadata.Decimals; d != nil && *d >= 0 {
			decimals = *d
		}
	}

	balance := domain.FormatBalance(b.Amount, decimals)

	enriched := domain.EnrichedAsset{
		AssetType:  b.AssetType,
		Symbol:     symbol,
		Name:       name,
		Decimals:   decimals,
		RawAmount:  b.Amount,
		Balance:    balance,
		Price:      price.Price,
		IsVerified: isVerified(b.AssetType, symbol),
	}

	// Receipt tokens are already represented by their DeFi position; valuing
	// them here would double count.
	if price.Price != nil && !domain.IsPhantomAsset(b.AssetType) {
		value := domain.CalculateValue(balance, *price.Price)
		enriched.Value = &value
	}

	if protocol, ok := domain.MatchProtocol(b.AssetType); ok {
		enriched.Protocol = &protocol
	}

	return enriched
}
