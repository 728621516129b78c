package price

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/aptfolio/defitrack/internal/domain"
)

const (
	// cacheTTL bounds how long a resolved price is served without refetching.
	cacheTTL        = 5 * time.Minute
	cleanupInterval = 10 * time.Minute

	// fallbackBatchSize bounds concurrent secondary-source lookups so one
	// batch call does not overwhelm the source.
	fallbackBatchSize = 10
)

// Source tags recorded on resolved prices.
const (
	SourceCached    = "cached"
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
	SourceOverride  = "override"
)

// PrimarySource is the batched primary price aggregator.
type PrimarySource interface {
	FetchPrices(ctx context.Context, addresses []string) ([]PriceRow, error)
}

// SecondarySource resolves a single address. Used only as a per-address
// fallback after a batch call; the full primary→secondary→CMC fallback chain
// for single lookups is a deferred extension point.
type SecondarySource interface {
	FetchPrice(ctx context.Context, address string) (*decimal.Decimal, error)
}

// Service resolves USD asset prices with a TTL cache, a pinned-price override
// table, a batched primary source, and a bounded secondary fallback. Each
// Service owns its cache; tests create independent instances.
type Service struct {
	primary   PrimarySource
	secondary SecondarySource
	cache     *cache.Cache
}

// NewService creates a new price aggregator. secondary may be nil, which
// disables the per-address batch fallback.
func NewService(primary PrimarySource, secondary SecondarySource) *Service {
	return &Service{
		primary:   primary,
		secondary: secondary,
		cache:     cache.New(cacheTTL, cleanupInterval),
	}
}

// GetAssetPrice resolves the USD price for a single asset address. The
// returned Price is nil when no source could resolve it; that is the whole
// contract on failure, the caller sees "unavailable" rather than an error.
// The cache key is the raw address string as emitted by the chain.
func (s *Service) GetAssetPrice(ctx context.Context, assetType, symbol string) domain.AssetPrice {
	if pinned, ok := overridePrice(assetType); ok {
		return domain.AssetPrice{AssetType: assetType, Symbol: symbol, Price: &pinned, Source: SourceOverride}
	}

	if cached, ok := s.cache.Get(assetType); ok {
		p := cached.(domain.AssetPrice)
		p.Source = SourceCached
		return p
	}

	rows, err := s.primary.FetchPrices(ctx, []string{assetType})
	if err != nil {
		slog.Warn("primary price lookup failed", "asset", assetType, "error", err)
		return domain.AssetPrice{AssetType: assetType, Symbol: symbol}
	}

	for _, row := range rows {
		if row.Address() == assetType {
			p := s.fromRow(row)
			if p.Price != nil {
				s.cache.Set(assetType, p, cache.DefaultExpiration)
			}
			return p
		}
	}

	return domain.AssetPrice{AssetType: assetType, Symbol: symbol}
}

// GetBatchPrices resolves prices for many addresses with one primary request.
// Already-cached and overridden addresses skip the fetch; addresses the
// primary batch does not cover go through secondary per-address lookups in
// sequential batches of fallbackBatchSize, all-settled within each batch.
// The result always has one entry per input address (nil Price if unresolved).
func (s *Service) GetBatchPrices(ctx context.Context, addresses []string) map[string]domain.AssetPrice {
	result := make(map[string]domain.AssetPrice, len(addresses))

	var needFetch []string
	for _, addr := range lo.Uniq(addresses) {
		if pinned, ok := overridePrice(addr); ok {
			result[addr] = domain.AssetPrice{AssetType: addr, Price: &pinned, Source: SourceOverride}
			continue
		}
		if cached, ok := s.cache.Get(addr); ok {
			p := cached.(domain.AssetPrice)
			p.Source = SourceCached
			result[addr] = p
			continue
		}
		needFetch = append(needFetch, addr)
	}

	if len(needFetch) > 0 {
		rows, err := s.primary.FetchPrices(ctx, needFetch)
		if err != nil {
			slog.Warn("batched primary price lookup failed", "addresses", len(needFetch), "error", err)
		}
		for _, row := range rows {
			addr := row.Address()
			if !lo.Contains(needFetch, addr) {
				continue
			}
			p := s.fromRow(row)
			if p.Price == nil {
				// A row with an unparseable price is not a resolution; leave
				// the address for the secondary fallback.
				continue
			}
			s.cache.Set(addr, p, cache.DefaultExpiration)
			result[addr] = p
		}
	}

	unresolved := lo.Filter(needFetch, func(addr string, _ int) bool {
		_, ok := result[addr]
		return !ok
	})
	s.fallbackFetch(ctx, unresolved, result)

	// Unresolved addresses still get an entry, with the nil-price sentinel.
	for _, addr := range addresses {
		if _, ok := result[addr]; !ok {
			result[addr] = domain.AssetPrice{AssetType: addr}
		}
	}

	return result
}

// fallbackFetch resolves leftover addresses via the secondary source, batches
// sequential, requests within a batch concurrent. One bad address never
// poisons its batch: failures are logged and the address stays unresolved.
func (s *Service) fallbackFetch(ctx context.Context, addresses []string, result map[string]domain.AssetPrice) {
	if s.secondary == nil || len(addresses) == 0 {
		return
	}

	var mu sync.Mutex
	for _, batch := range lo.Chunk(addresses, fallbackBatchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, addr := range batch {
			g.Go(func() error {
				p, err := s.secondary.FetchPrice(gctx, addr)
				if err != nil {
					slog.Warn("secondary price lookup failed", "asset", addr, "error", err)
					return nil
				}
				if p == nil {
					return nil
				}
				resolved := domain.AssetPrice{AssetType: addr, Price: p, Source: SourceSecondary}
				s.cache.Set(addr, resolved, cache.DefaultExpiration)
				mu.Lock()
				result[addr] = resolved
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}
}

// fromRow converts a primary source row, dropping unparseable prices.
func (s *Service) fromRow(row PriceRow) domain.AssetPrice {
	p := domain.AssetPrice{
		AssetType: row.Address(),
		Symbol:    row.Symbol,
		Source:    SourcePrimary,
	}
	if parsed, err := decimal.NewFromString(row.USDPrice); err == nil {
		p.Price = &parsed
	}
	if row.Change24h != "" {
		change := domain.SafeParse(row.Change24h)
		p.Change24h = &change
	}
	if row.MarketCap != "" {
		mc := domain.SafeParse(row.MarketCap)
		p.MarketCap = &mc
	}
	return p
}
