package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	FullnodeURL          string
	IndexerURL           string
	DatabaseURL          string
	PriceAPIURL          string
	PriceAPIKey          string
	SecondaryPriceURL    string
	FullnodeRetryMax     int
	FullnodeRetryDelay   time.Duration
	SecondaryPriceDelay  time.Duration
	SecondaryRetryMax    int
	TrackedWallets       []string
	SnapshotInterval     time.Duration
	HTTPPort             string
	APIToken             string
	SheetsCredentialsEnv string
	SpreadsheetID        string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		FullnodeURL:          envOrDefault("APTOS_FULLNODE_URL", "https://fullnode.mainnet.aptoslabs.com/v1"),
		IndexerURL:           envOrDefault("APTOS_INDEXER_URL", "https://api.mainnet.aptoslabs.com/v1/graphql"),
		DatabaseURL:          envOrDefaultWarn("DATABASE_URL", ""),
		PriceAPIURL:          envOrDefault("PRICE_API_URL", "https://api.panora.exchange"),
		PriceAPIKey:          envOrDefault("PRICE_API_KEY", ""),
		SecondaryPriceURL:    envOrDefault("SECONDARY_PRICE_URL", "https://api.coingecko.com/api/v3"),
		FullnodeRetryMax:     envOrDefaultInt("FULLNODE_RETRY_MAX", 5),
		FullnodeRetryDelay:   envOrDefaultDuration("FULLNODE_RETRY_BASE_DELAY", 2*time.Second),
		SecondaryPriceDelay:  envOrDefaultDuration("SECONDARY_PRICE_DELAY", 6*time.Second),
		SecondaryRetryMax:    envOrDefaultInt("SECONDARY_PRICE_RETRY_MAX", 5),
		TrackedWallets:       envList("TRACKED_WALLETS"),
		SnapshotInterval:     envOrDefaultDuration("SNAPSHOT_INTERVAL", 24*time.Hour),
		HTTPPort:             envOrDefault("HTTP_PORT", "8080"),
		APIToken:             envOrDefault("API_TOKEN", ""),
		SheetsCredentialsEnv: envOrDefault("SHEETS_CREDENTIALS_JSON", ""),
		SpreadsheetID:        envOrDefault("SPREADSHEET_ID", ""),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
