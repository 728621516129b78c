package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aptfolio/defitrack/internal/domain"
)

// PortfolioService defines the live portfolio access used when generating
// snapshots.
type PortfolioService interface {
	GetDeFiPositions(ctx context.Context, address string) ([]domain.DeFiPosition, error)
	GetDeFiStats(ctx context.Context, address string) (domain.DeFiStats, error)
}

// Data is the JSON payload stored per snapshot. Positions are included so
// historical snapshots can be inspected without replaying live chain queries.
type Data struct {
	Stats     domain.DeFiStats      `json:"stats"`
	Positions []domain.DeFiPosition `json:"positions"`
}

// Service manages snapshot generation and retrieval.
type Service struct {
	portfolio PortfolioService
	repo      Repository
}

// NewService creates a new snapshot Service.
func NewService(portfolio PortfolioService, repo Repository) *Service {
	if portfolio == nil {
		panic("snapshot.NewService: portfolio is nil")
	}
	if repo == nil {
		panic("snapshot.NewService: repo is nil")
	}
	return &Service{portfolio: portfolio, repo: repo}
}

// Generate captures the wallet's current portfolio and stores it under the
// given date, registering the wallet if it is not tracked yet.
func (s *Service) Generate(ctx context.Context, address string, date time.Time) (Data, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return Data{}, err
	}

	walletID, err := s.repo.EnsureWallet(ctx, address, "")
	if err != nil {
		return Data{}, fmt.Errorf("registering wallet: %w", err)
	}

	stats, err := s.portfolio.GetDeFiStats(ctx, address)
	if err != nil {
		return Data{}, fmt.Errorf("capturing portfolio stats: %w", err)
	}
	positions, err := s.portfolio.GetDeFiPositions(ctx, address)
	if err != nil {
		return Data{}, fmt.Errorf("capturing positions: %w", err)
	}

	snapshotData := Data{Stats: stats, Positions: positions}
	payload, err := json.Marshal(snapshotData)
	if err != nil {
		return Data{}, fmt.Errorf("marshaling snapshot data: %w", err)
	}

	if err := s.repo.Save(ctx, walletID, date, payload); err != nil {
		return Data{}, fmt.Errorf("saving snapshot: %w", err)
	}

	return snapshotData, nil
}

// GetLatest retrieves the most recent snapshot for the wallet.
func (s *Service) GetLatest(ctx context.Context, address string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, address)
}

// GetByDate retrieves a snapshot for a specific date.
func (s *Service) GetByDate(ctx context.Context, address string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, address, date)
}

// List retrieves recent snapshots.
func (s *Service) List(ctx context.Context, address string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, address, limit)
}
