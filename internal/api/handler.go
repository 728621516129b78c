package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aptfolio/defitrack/internal/domain"
	"github.com/aptfolio/defitrack/internal/snapshot"
)

// PortfolioService defines the live portfolio access exposed over HTTP.
type PortfolioService interface {
	GetDeFiPositions(ctx context.Context, address string) ([]domain.DeFiPosition, error)
	GetDeFiStats(ctx context.Context, address string) (domain.DeFiStats, error)
}

// AssetService defines the wallet asset access exposed over HTTP.
type AssetService interface {
	GetWalletAssets(ctx context.Context, address string) ([]domain.EnrichedAsset, error)
}

// SnapshotService defines the snapshot operations exposed over HTTP.
type SnapshotService interface {
	Generate(ctx context.Context, address string, date time.Time) (snapshot.Data, error)
	GetLatest(ctx context.Context, address string) (*snapshot.Snapshot, error)
	GetByDate(ctx context.Context, address string, date time.Time) (*snapshot.Snapshot, error)
	List(ctx context.Context, address string, limit int) ([]snapshot.Snapshot, error)
}

// Handler provides HTTP endpoints for the portfolio API.
type Handler struct {
	portfolio PortfolioService
	assets    AssetService
	snapshots SnapshotService // nil when no database is configured
}

// NewHandler creates a new API handler.
func NewHandler(portfolio PortfolioService, assets AssetService, snapshots SnapshotService) *Handler {
	return &Handler{portfolio: portfolio, assets: assets, snapshots: snapshots}
}

// GetPositions handles GET /api/v1/wallets/{address}/positions.
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	positions, err := h.portfolio.GetDeFiPositions(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid wallet address")
			return
		}
		slog.Error("failed to get positions", "wallet", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// GetStats handles GET /api/v1/wallets/{address}/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	stats, err := h.portfolio.GetDeFiStats(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid wallet address")
			return
		}
		slog.Error("failed to get stats", "wallet", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetAssets handles GET /api/v1/wallets/{address}/assets.
func (h *Handler) GetAssets(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	assets, err := h.assets.GetWalletAssets(r.Context(), address)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid wallet address")
			return
		}
		slog.Error("failed to get wallet assets", "wallet", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, assets)
}

// GetLatestSnapshot handles GET /api/v1/wallets/{address}/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	s, err := h.snapshots.GetLatest(r.Context(), address)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "wallet", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/wallets/{address}/snapshots/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	dateStr := r.PathValue("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), address, date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "wallet", address, "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/wallets/{address}/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	address := r.PathValue("address")
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.List(r.Context(), address, limit)
	if err != nil {
		slog.Error("failed to list snapshots", "wallet", address, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GenerateSnapshot handles POST /api/v1/wallets/{address}/snapshots/generate.
func (h *Handler) GenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	data, err := h.snapshots.Generate(r.Context(), address, time.Now().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			writeError(w, http.StatusBadRequest, "invalid wallet address")
			return
		}
		slog.Error("failed to generate snapshot", "wallet", address, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate snapshot")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
