package indexer

import (
	"context"
	"fmt"

	"github.com/aptfolio/defitrack/internal/domain"
)

// FetchResources retrieves all on-chain resources owned by an account.
func (c *Client) FetchResources(ctx context.Context, address string) ([]domain.RawAccountResource, error) {
	var resources []domain.RawAccountResource
	if err := c.getJSON(ctx, fmt.Sprintf("/accounts/%s/resources", address), &resources); err != nil {
		return nil, fmt.Errorf("fetching resources for %s: %w", address, err)
	}
	return resources, nil
}
