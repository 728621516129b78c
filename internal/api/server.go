package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"
)

// NewServer creates an HTTP server with all routes configured. Snapshot
// routes are only mounted when a snapshot service is available.
func NewServer(port string, portfolio PortfolioService, assets AssetService, snapshots SnapshotService, apiToken string) *http.Server {
	handler := NewHandler(portfolio, assets, snapshots)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/wallets/{address}/positions", handler.GetPositions)
	mux.HandleFunc("GET /api/v1/wallets/{address}/stats", handler.GetStats)
	mux.HandleFunc("GET /api/v1/wallets/{address}/assets", handler.GetAssets)

	if snapshots != nil {
		mux.HandleFunc("GET /api/v1/wallets/{address}/snapshots/latest", handler.GetLatestSnapshot)
		mux.HandleFunc("GET /api/v1/wallets/{address}/snapshots/{date}", handler.GetSnapshotByDate)
		mux.HandleFunc("GET /api/v1/wallets/{address}/snapshots", handler.ListSnapshots)

		generateHandler := http.HandlerFunc(handler.GenerateSnapshot)
		if apiToken != "" {
			mux.Handle("POST /api/v1/wallets/{address}/snapshots/generate", requireAuth(apiToken, generateHandler))
		} else {
			mux.Handle("POST /api/v1/wallets/{address}/snapshots/generate", generateHandler)
		}
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiToken string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
