package handlers

import "time"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// WorkspaceResponse is the public view of a workspace
type WorkspaceResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Locked  bool   `json:"locked"`
}

// SaveRequest carries the full replacement text
type SaveRequest struct {
	Content *string `json:"content" binding:"required"`
}

// PasswordRequest is the body of lock and unlock calls
type PasswordRequest struct {
	Password string `json:"password"`
}

// StatusResponse acknowledges a write
type StatusResponse struct {
	Status string `json:"status"`
}

// UnlockResponse returns the workspace text after a successful unlock
type UnlockResponse struct {
	Status  string `json:"status"`
	Content string `json:"content"`
}

// RandomNameResponse carries a fresh workspace name
type RandomNameResponse struct {
	Name string `json:"name"`
}

// WorkspaceSummary is one row of the admin workspace listing
type WorkspaceSummary struct {
	Name      string    `json:"name"`
	Locked    bool      `json:"locked"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeResponse describes the logged-in operator
type MeResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}
