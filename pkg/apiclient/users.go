package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) ListUsers(ctx context.Context) ([]transit.User, error) {
	users := []transit.User{}
	err := c.get(ctx, "/users", &users)

	return users, err
}

func (c *Client) GetUser(ctx context.Context, id string) (*transit.User, error) {
	var user transit.User
	if err := c.get(ctx, resourcePath("/users", id), &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) CreateUser(ctx context.Context, input UserInput) (*transit.User, error) {
	var user transit.User
	if err := c.post(ctx, "/users", input, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, input UserInput) (*transit.User, error) {
	var user transit.User
	if err := c.put(ctx, resourcePath("/users", id), input, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.delete(ctx, resourcePath("/users", id))
}

func (c *Client) UpdateUserRole(ctx context.Context, id string, role transit.UserRole) (*transit.User, error) {
	var user transit.User
	if err := c.patch(ctx, resourcePath("/users", id, "role"), map[string]transit.UserRole{"role": role}, &user); err != nil {
		return nil, err
	}

	return &user, nil
}
