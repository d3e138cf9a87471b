package client

import (
	"context"
	"net/http"

	"devfolio/internal/model"
)

// DashboardStats GET /dashboard/stats。
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var env dataEnvelope[model.DashboardStats]
	if err := c.do(ctx, http.MethodGet, "/dashboard/stats", "/dashboard/stats", nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}
