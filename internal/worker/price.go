package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aptfolio/defitrack/internal/domain"
)

// PriceWarmer defines the batch price interface used to pre-populate the
// price cache.
type PriceWarmer interface {
	GetBatchPrices(ctx context.Context, addresses []string) map[string]domain.AssetPrice
}

// PriceWorker periodically refreshes prices for a fixed set of core assets so
// interactive requests mostly hit a warm cache.
type PriceWorker struct {
	prices    PriceWarmer
	addresses []string
	interval  time.Duration
}

// NewPriceWorker creates a new PriceWorker.
func NewPriceWorker(prices PriceWarmer, addresses []string, interval time.Duration) *PriceWorker {
	return &PriceWorker{
		prices:    prices,
		addresses: addresses,
		interval:  interval,
	}
}

func (w *PriceWorker) warm(ctx context.Context) {
	resolved := 0
	for _, p := range w.prices.GetBatchPrices(ctx, w.addresses) {
		if p.Price != nil {
			resolved++
		}
	}
	slog.Info("PriceWorker: refresh completed", "assets", len(w.addresses), "resolved", resolved)
}

// Run starts the price worker loop. It blocks until the context is cancelled.
func (w *PriceWorker) Run(ctx context.Context) {
	slog.Info("PriceWorker: starting")

	// Warm immediately on startup
	w.warm(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("PriceWorker: shutting down")
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}
