package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aptfolio/defitrack/internal/snapshot"
)

// SnapshotGenerator defines the interface for generating wallet snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context, address string, date time.Time) (snapshot.Data, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, data snapshot.Data) error
}

// SnapshotWorker periodically snapshots a fixed set of tracked wallets.
type SnapshotWorker struct {
	generator SnapshotGenerator
	wallets   []string
	interval  time.Duration
	hook      AfterSnapshotHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional
// post-generation hook.
func NewSnapshotWorker(generator SnapshotGenerator, wallets []string, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		wallets:   wallets,
		interval:  interval,
		hook:      hook,
	}
}

// snapshotAll generates one snapshot per tracked wallet. A failing wallet is
// logged and skipped so one bad address cannot stall the rest.
func (w *SnapshotWorker) snapshotAll(ctx context.Context) {
	date := utcDate()
	for _, wallet := range w.wallets {
		data, err := w.generator.Generate(ctx, wallet, date)
		if err != nil {
			slog.Error("SnapshotWorker: generation failed", "wallet", wallet, "error", err)
			continue
		}
		slog.Info("SnapshotWorker: generation completed",
			"wallet", wallet, "positions", len(data.Positions))
		w.runHook(ctx, data)
	}
}

// runHook calls the post-generation hook if one is configured.
func (w *SnapshotWorker) runHook(ctx context.Context, data snapshot.Data) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, data); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: export hook completed")
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Run starts the snapshot worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "wallets", len(w.wallets))

	// Snapshot immediately on startup
	w.snapshotAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.snapshotAll(ctx)
		}
	}
}
