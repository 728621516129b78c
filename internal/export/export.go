package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
	"github.com/aptfolio/defitrack/internal/snapshot"
)

// Row is one flattened position entry in an export.
type Row struct {
	Wallet   string
	Protocol string
	Label    string
	Type     domain.PositionType
	Bucket   string
	Symbol   string
	Amount   string
	Value    *decimal.Decimal
}

// Summary is the portfolio-level header of an export. TVLChange is the
// fractional change against the previous stored snapshot, nil when no history
// exists yet.
type Summary struct {
	Wallet         string
	TotalPositions int
	TotalValue     decimal.Decimal
	TopProtocols   []string
	TVLChange      *decimal.Decimal
}

// Report is a complete export payload.
type Report struct {
	Summary Summary
	Rows    []Row
}

// ReportWriter writes an export report to a destination.
type ReportWriter interface {
	Write(ctx context.Context, report Report) error
}

// Service builds portfolio reports and delegates writing to a ReportWriter.
type Service struct {
	snapshots snapshot.Repository
	writer    ReportWriter
}

// NewService creates a new export Service.
func NewService(snapshots snapshot.Repository, writer ReportWriter) *Service {
	return &Service{
		snapshots: snapshots,
		writer:    writer,
	}
}

// Export builds a report from freshly captured snapshot data and writes it.
// Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context, data snapshot.Data) error {
	report := Report{
		Summary: Summary{
			Wallet:         data.Stats.Wallet,
			TotalPositions: data.Stats.TotalPositions,
			TotalValue:     data.Stats.TotalValueLocked,
			TopProtocols:   data.Stats.TopProtocols,
			TVLChange:      s.tvlChange(ctx, data),
		},
		Rows: BuildRows(data.Stats.Wallet, data.Positions),
	}
	return s.writer.Write(ctx, report)
}

// tvlChange compares the captured TVL to the previous stored snapshot. The
// freshest stored snapshot is the one just captured, so the comparison baseline
// is the entry before it.
func (s *Service) tvlChange(ctx context.Context, data snapshot.Data) *decimal.Decimal {
	snaps, err := s.snapshots.List(ctx, data.Stats.Wallet, 2)
	if err != nil {
		slog.Warn("export: snapshot history unavailable", "wallet", data.Stats.Wallet, "error", err)
		return nil
	}
	if len(snaps) < 2 {
		return nil
	}

	var previous snapshot.Data
	if err := json.Unmarshal(snaps[1].Data, &previous); err != nil {
		slog.Warn("export: failed to unmarshal previous snapshot", "wallet", data.Stats.Wallet, "error", err)
		return nil
	}
	if previous.Stats.TotalValueLocked.IsZero() {
		return nil
	}

	change := data.Stats.TotalValueLocked.
		Sub(previous.Stats.TotalValueLocked).
		Div(previous.Stats.TotalValueLocked)
	return &change
}

// BuildRows flattens positions into one row per valued entry.
func BuildRows(wallet string, positions []domain.DeFiPosition) []Row {
	var rows []Row
	add := func(p domain.DeFiPosition, bucket string, entries []domain.PositionEntry) {
		for _, e := range entries {
			rows = append(rows, Row{
				Wallet:   wallet,
				Protocol: p.Protocol,
				Label:    p.ProtocolLabel,
				Type:     domain.PositionTypeFor(p.ProtocolType),
				Bucket:   bucket,
				Symbol:   e.Symbol,
				Amount:   e.Amount,
				Value:    e.Value,
			})
		}
	}

	for _, p := range positions {
		add(p, "supplied", p.Position.Supplied)
		add(p, "borrowed", p.Position.Borrowed)
		add(p, "liquidity", p.Position.Liquidity)
		add(p, "staked", p.Position.Staked)
		add(p, "derivatives", p.Position.Derivatives)
	}
	return rows
}

func formatChange(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%s%%", d.Mul(decimal.NewFromInt(100)).Round(2))
}
