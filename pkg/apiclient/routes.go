package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) ListRoutes(ctx context.Context) ([]transit.Route, error) {
	routes := []transit.Route{}
	err := c.get(ctx, "/routes", &routes)

	return routes, err
}

func (c *Client) GetRoute(ctx context.Context, id string) (*transit.Route, error) {
	var route transit.Route
	if err := c.get(ctx, resourcePath("/routes", id), &route); err != nil {
		return nil, err
	}

	return &route, nil
}

func (c *Client) CreateRoute(ctx context.Context, input RouteInput) (*transit.Route, error) {
	var route transit.Route
	if err := c.post(ctx, "/routes", input, &route); err != nil {
		return nil, err
	}

	return &route, nil
}

func (c *Client) UpdateRoute(ctx context.Context, id string, input RouteInput) (*transit.Route, error) {
	var route transit.Route
	if err := c.put(ctx, resourcePath("/routes", id), input, &route); err != nil {
		return nil, err
	}

	return &route, nil
}

func (c *Client) DeleteRoute(ctx context.Context, id string) error {
	return c.delete(ctx, resourcePath("/routes", id))
}
