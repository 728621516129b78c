package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// RawAccountResource is one on-chain resource owned by an account, as returned
// by the fullnode. Fetched fresh per request and never persisted.
type RawAccountResource struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// TokenHolding is a plain token balance inside a discovered position.
// Balance is the unconverted integer string; decimals are looked up separately.
type TokenHolding struct {
	Symbol    string            `json:"symbol"`
	Address   string            `json:"address"`
	Balance   string            `json:"balance"`
	Value     *decimal.Decimal  `json:"value,omitempty"`
	Direction PositionDirection `json:"direction,omitempty"`
}

// LPHolding is a liquidity-pool share inside a discovered position. Underlying
// amounts are generally not derivable exactly and stay approximated.
type LPHolding struct {
	PoolType   string           `json:"poolType"`
	PoolTokens []string         `json:"poolTokens"`
	Balance    string           `json:"balance"`
	Value      *decimal.Decimal `json:"value,omitempty"`
}

// DetailedPosition is the raw output of position discovery, before valuation.
// Constructed fresh per discovery call and only read afterwards.
type DetailedPosition struct {
	Protocol        string               `json:"protocol"`
	ProtocolAddress string               `json:"protocolAddress"`
	Type            PositionType         `json:"type"`
	Description     string               `json:"description"`
	Tokens          []TokenHolding       `json:"tokens"`
	LPTokens        []LPHolding          `json:"lpTokens"`
	Resources       []RawAccountResource `json:"resources,omitempty"`
	IsActive        bool                 `json:"isActive"`
}

// PositionDirection distinguishes supplied from borrowed lending entries.
type PositionDirection string

const (
	DirectionSupplied PositionDirection = "supplied"
	DirectionBorrowed PositionDirection = "borrowed"
	DirectionUnknown  PositionDirection = "unknown"
)

// PositionEntry is one valued line item inside a DeFi position. Amount is
// decimal-adjusted. A nil Value means the price could not be resolved; the
// entry still appears in the detail list but contributes zero to totals.
type PositionEntry struct {
	Asset     string            `json:"asset"`
	Symbol    string            `json:"symbol"`
	Amount    string            `json:"amount"`
	Value     *decimal.Decimal  `json:"value,omitempty"`
	Direction PositionDirection `json:"direction,omitempty"`
}

// PositionDetail buckets valued entries by their role in the protocol.
type PositionDetail struct {
	Supplied    []PositionEntry `json:"supplied,omitempty"`
	Borrowed    []PositionEntry `json:"borrowed,omitempty"`
	Liquidity   []PositionEntry `json:"liquidity,omitempty"`
	Staked      []PositionEntry `json:"staked,omitempty"`
	Derivatives []PositionEntry `json:"derivatives,omitempty"`
}

// DeFiPosition is the valued output record consumed by callers.
type DeFiPosition struct {
	Protocol      string          `json:"protocol"`
	ProtocolLabel string          `json:"protocolLabel"`
	ProtocolType  ProtocolType    `json:"protocolType"`
	Address       string          `json:"address"`
	Position      PositionDetail  `json:"position"`
	TotalValue    decimal.Decimal `json:"totalValue"`
}

// ProtocolValue is one entry in a stats protocol breakdown.
type ProtocolValue struct {
	Protocol string          `json:"protocol"`
	Label    string          `json:"label"`
	Value    decimal.Decimal `json:"value"`
}

// DeFiStats aggregates a wallet's positions.
type DeFiStats struct {
	Wallet            string          `json:"wallet"`
	TotalPositions    int             `json:"totalPositions"`
	TotalValueLocked  decimal.Decimal `json:"totalValueLocked"`
	ProtocolBreakdown []ProtocolValue `json:"protocolBreakdown"`
	TopProtocols      []string        `json:"topProtocols"`
	GeneratedAt       time.Time       `json:"generatedAt"`
}

// AssetPrice is a resolved USD price for an asset. A nil Price means
// "unavailable", which is distinct from zero: valuation excludes nil prices
// from totals instead of treating them as worthless.
type AssetPrice struct {
	AssetType string           `json:"assetType"`
	Symbol    string           `json:"symbol"`
	Price     *decimal.Decimal `json:"price"`
	Change24h *decimal.Decimal `json:"change24h,omitempty"`
	MarketCap *decimal.Decimal `json:"marketCap,omitempty"`
	Source    string           `json:"source,omitempty"` // "cached", "primary", "secondary", "override"
}

// EnrichedAsset is a wallet fungible-asset balance enriched with decimals,
// price, value, protocol association, and a verification flag.
type EnrichedAsset struct {
	AssetType  string           `json:"assetType"`
	Symbol     string           `json:"symbol"`
	Name       string           `json:"name"`
	Decimals   int              `json:"decimals"`
	RawAmount  string           `json:"rawAmount"`
	Balance    decimal.Decimal  `json:"balance"`
	Price      *decimal.Decimal `json:"price"`
	Value      *decimal.Decimal `json:"value"`
	Protocol   *Protocol        `json:"protocol,omitempty"`
	IsVerified bool             `json:"isVerified"`
}
