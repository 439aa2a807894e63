package cliclient

import "context"

// Login authenticates with the server and returns a token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	req := LoginRequest{
		Username: username,
		Password: password,
	}

	var resp LoginResponse
	_, err := c.Post(ctx, "/auth/login", req, &resp)
	if err != nil {
		return nil, err
	}

	return &resp, nil
}

// Me returns the operator the token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.Get(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Info returns server identity and version.
func (c *Client) Info(ctx context.Context) (*ServerInfo, error) {
	var info ServerInfo
	if _, err := c.Get(ctx, "/info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}
