package cliclient

import (
	"context"
	"net/url"
)

func workspacePath(name string, suffix string) string {
	return "/workspaces/" + url.PathEscape(name) + suffix
}

// GetWorkspace opens a workspace, creating it on the server if absent.
func (c *Client) GetWorkspace(ctx context.Context, name string) (*Workspace, error) {
	var ws Workspace
	if _, err := c.Get(ctx, workspacePath(name, ""), &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// SaveWorkspace replaces the text of a workspace.
func (c *Client) SaveWorkspace(ctx context.Context, name, content string) error {
	_, err := c.Post(ctx, workspacePath(name, ""), SaveRequest{Content: content}, nil)
	return err
}

// LockWorkspace protects a workspace with a password.
func (c *Client) LockWorkspace(ctx context.Context, name, password string) error {
	_, err := c.Post(ctx, workspacePath(name, "/lock"), PasswordRequest{Password: password}, nil)
	return err
}

// UnlockWorkspace removes the lock and returns the workspace text.
// Admin tokens may pass an empty password.
func (c *Client) UnlockWorkspace(ctx context.Context, name, password string) (string, error) {
	var resp StatusResponse
	if _, err := c.Post(ctx, workspacePath(name, "/unlock"), PasswordRequest{Password: password}, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

// RandomName asks the server for a fresh workspace name.
func (c *Client) RandomName(ctx context.Context) (string, error) {
	var resp struct {
		Name string `json:"name"`
	}
	if _, err := c.Get(ctx, "/random-name", &resp); err != nil {
		return "", err
	}
	return resp.Name, nil
}
