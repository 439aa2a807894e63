package cliclient

import (
	"context"
	"net/url"
	"strconv"
)

// ListWorkspaces returns every workspace (admin only).
func (c *Client) ListWorkspaces(ctx context.Context) ([]WorkspaceSummary, error) {
	var workspaces []WorkspaceSummary
	if _, err := c.Get(ctx, "/admin/workspaces", &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// ListAuditLogs returns audit logs with optional filters (admin only).
func (c *Client) ListAuditLogs(ctx context.Context, workspace, action string, limit int) ([]AuditLog, error) {
	params := url.Values{}
	if workspace != "" {
		params.Set("workspace", workspace)
	}
	if action != "" {
		params.Set("action", action)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	path := "/admin/audit-logs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var logs []AuditLog
	if _, err := c.Get(ctx, path, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
