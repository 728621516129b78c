package indexer

import (
	"context"
	"fmt"
)

// FungibleAssetBalance is one fungible-asset balance row from the indexer.
type FungibleAssetBalance struct {
	AssetType string         `json:"asset_type"`
	Amount    string         `json:"amount"`
	Metadata  *AssetMetadata `json:"metadata"`
}

// AssetMetadata carries token metadata attached to a balance row. Decimals is
// a pointer because the indexer omits it for some assets.
type AssetMetadata struct {
	Decimals *int   `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}

const balancesQuery = `
query WalletBalances($owner: String!) {
  current_fungible_asset_balances(
    where: {owner_address: {_eq: $owner}, amount: {_gt: "0"}}
  ) {
    asset_type
    amount
    metadata {
      decimals
      symbol
      name
    }
  }
}`

// FetchBalances retrieves a wallet's fungible-asset balances from the indexer.
func (c *Client) FetchBalances(ctx context.Context, address string) ([]FungibleAssetBalance, error) {
	var data struct {
		Balances []FungibleAssetBalance `json:"current_fungible_asset_balances"`
	}
	if err := c.query(ctx, balancesQuery, map[string]any{"owner": address}, &data); err != nil {
		return nil, fmt.Errorf("fetching balances for %s: %w", address, err)
	}
	return data.Balances, nil
}
