package apiclient

import (
	"context"

	"github.com/gopass/dashboard/pkg/transit"
)

func (c *Client) Login(ctx context.Context, credentials transit.LoginCredentials) (*transit.AuthResponse, error) {
	var response transit.AuthResponse
	if err := c.post(ctx, "/auth/login", credentials, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

func (c *Client) GetProfile(ctx context.Context) (*transit.User, error) {
	var user transit.User
	if err := c.get(ctx, "/auth/profile", &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update transit.ProfileUpdate) (*transit.User, error) {
	var user transit.User
	if err := c.patch(ctx, "/auth/profile", update, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/auth/logout", nil, nil)
}
