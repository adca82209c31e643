package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) ListPasses(ctx context.Context) ([]transit.Pass, error) {
	passes := []transit.Pass{}
	err := c.get(ctx, "/passes", &passes)

	return passes, err
}

func (c *Client) GetPass(ctx context.Context, id string) (*transit.Pass, error) {
	var pass transit.Pass
	if err := c.get(ctx, resourcePath("/passes", id), &pass); err != nil {
		return nil, err
	}

	return &pass, nil
}

func (c *Client) UpdatePassStatus(ctx context.Context, id string, status transit.PassStatus) (*transit.Pass, error) {
	var pass transit.Pass
	if err := c.patch(ctx, resourcePath("/passes", id, "status"), map[string]transit.PassStatus{"status": status}, &pass); err != nil {
		return nil, err
	}

	return &pass, nil
}

func (c *Client) DeletePass(ctx context.Context, id string) error {
	return c.delete(ctx, resourcePath("/passes", id))
}
