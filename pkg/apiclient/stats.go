package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) GetStats(ctx context.Context) (*transit.DashboardStats, error) {
	var stats transit.DashboardStats
	if err := c.get(ctx, "/stats", &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}
