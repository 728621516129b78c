package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aptfolio/defitrack/internal/domain"
	"github.com/aptfolio/defitrack/internal/snapshot"
)

type mockWriter struct {
	report Report
	err    error
	called bool
}

func (m *mockWriter) Write(_ context.Context, report Report) error {
	m.called = true
	m.report = report
	return m.err
}

type mockSnapshots struct {
	list    []snapshot.Snapshot
	listErr error
}

func (m *mockSnapshots) Save(_ context.Context, _ int, _ time.Time, _ json.RawMessage) error {
	return nil
}
func (m *mockSnapshots) GetLatest(_ context.Context, _ string) (*snapshot.Snapshot, error) {
	return nil, snapshot.ErrNotFound
}
func (m *mockSnapshots) GetByDate(_ context.Context, _ string, _ time.Time) (*snapshot.Snapshot, error) {
	return nil, snapshot.ErrNotFound
}
func (m *mockSnapshots) List(_ context.Context, _ string, _ int) ([]snapshot.Snapshot, error) {
	return m.list, m.listErr
}
func (m *mockSnapshots) EnsureWallet(_ context.Context, _, _ string) (int, error) { return 1, nil }
func (m *mockSnapshots) ListWallets(_ context.Context) ([]snapshot.TrackedWallet, error) {
	return nil, nil
}

func valueOf(f float64) *decimal.Decimal {
	d := decimal.NewFromFloat(f)
	return &d
}

func sampleData(tvl float64) snapshot.Data {
	pos := domain.DeFiPosition{
		Protocol:      "amnis",
		ProtocolLabel: "Amnis Finance",
		ProtocolType:  domain.ProtocolTypeLiquidStaking,
		TotalValue:    decimal.NewFromFloat(tvl),
	}
	pos.Position.Staked = []domain.PositionEntry{
		{Asset: domain.APTAddress, Symbol: "stAPT", Amount: "5", Value: valueOf(tvl)},
	}
	return snapshot.Data{
		Stats: domain.DeFiStats{
			Wallet:           "0xabc",
			TotalPositions:   1,
			TotalValueLocked: decimal.NewFromFloat(tvl),
			TopProtocols:     []string{"amnis"},
		},
		Positions: []domain.DeFiPosition{pos},
	}
}

func storedSnapshot(t *testing.T, tvl float64) snapshot.Snapshot {
	t.Helper()
	payload, err := json.Marshal(sampleData(tvl))
	if err != nil {
		t.Fatalf("marshaling snapshot payload: %v", err)
	}
	return snapshot.Snapshot{Data: payload}
}

func TestExportBuildsReport(t *testing.T) {
	writer := &mockWriter{}
	svc := NewService(&mockSnapshots{}, writer)

	if err := svc.Export(context.Background(), sampleData(25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !writer.called {
		t.Fatal("writer should be invoked")
	}

	summary := writer.report.Summary
	if summary.Wallet != "0xabc" || summary.TotalPositions != 1 {
		t.Errorf("summary = %+v, want wallet and position count carried over", summary)
	}
	if summary.TVLChange != nil {
		t.Error("first snapshot has no baseline, change should be nil")
	}
	if len(writer.report.Rows) != 1 {
		t.Fatalf("rows = %d, want one per entry", len(writer.report.Rows))
	}
	row := writer.report.Rows[0]
	if row.Bucket != "staked" || row.Symbol != "stAPT" {
		t.Errorf("row = %+v, want the staked stAPT entry", row)
	}
}

func TestExportComputesTVLChange(t *testing.T) {
	writer := &mockWriter{}
	snaps := &mockSnapshots{list: []snapshot.Snapshot{
		storedSnapshot(t, 25), // just captured
		storedSnapshot(t, 20), // baseline
	}}
	svc := NewService(snaps, writer)

	if err := svc.Export(context.Background(), sampleData(25)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	change := writer.report.Summary.TVLChange
	if change == nil || !change.Equal(decimal.NewFromFloat(0.25)) {
		t.Errorf("change = %v, want 0.25 (25 vs 20)", change)
	}
}

func TestExportHistoryUnavailable(t *testing.T) {
	writer := &mockWriter{}
	svc := NewService(&mockSnapshots{listErr: errors.New("db down")}, writer)

	if err := svc.Export(context.Background(), sampleData(25)); err != nil {
		t.Fatalf("history failures must not block the export: %v", err)
	}
	if writer.report.Summary.TVLChange != nil {
		t.Error("change should be nil when history is unavailable")
	}
}

func TestExportWriterError(t *testing.T) {
	writer := &mockWriter{err: errors.New("sheets down")}
	svc := NewService(&mockSnapshots{}, writer)

	if err := svc.Export(context.Background(), sampleData(25)); err == nil {
		t.Fatal("writer errors should propagate")
	}
}

func TestBuildRowsAllBuckets(t *testing.T) {
	pos := domain.DeFiPosition{Protocol: "aries", ProtocolType: domain.ProtocolTypeLending}
	pos.Position.Supplied = []domain.PositionEntry{{Symbol: "USDC", Amount: "100"}}
	pos.Position.Borrowed = []domain.PositionEntry{{Symbol: "APT", Amount: "4"}}

	rows := BuildRows("0xabc", []domain.DeFiPosition{pos})
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Bucket != "supplied" || rows[1].Bucket != "borrowed" {
		t.Errorf("buckets = %s/%s, want supplied/borrowed", rows[0].Bucket, rows[1].Bucket)
	}
}

func TestBuildHistoryRow(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	row := buildHistoryRow(Summary{
		Wallet:         "0xabc",
		TotalPositions: 3,
		TotalValue:     decimal.NewFromFloat(123.45),
		TVLChange:      valueOf(0.25),
	}, at)

	if len(row) != len(historyHeader) {
		t.Fatalf("row width = %d, want %d", len(row), len(historyHeader))
	}
	if row[0] != "29.08.2026" {
		t.Errorf("date = %v, want 29.08.2026", row[0])
	}
	if row[3] != 123.45 {
		t.Errorf("tvl = %v, want 123.45", row[3])
	}
	if row[4] != "25%" {
		t.Errorf("change = %v, want 25%%", row[4])
	}
}

func TestFormatChangeNil(t *testing.T) {
	if got := formatChange(nil); got != "" {
		t.Errorf("formatChange(nil) = %q, want empty", got)
	}
}
