package cliclient

import "time"

// ErrorResponse is the error body returned by the server.
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a login response.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User represents an operator account.
type User struct {
	ID        string    `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Email     string    `json:"email" yaml:"email"`
	IsAdmin   bool      `json:"is_admin" yaml:"is_admin"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Workspace is the public view of a workspace.
type Workspace struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
	Locked  bool   `json:"locked" yaml:"locked"`
}

// WorkspaceSummary is one row of the admin listing.
type WorkspaceSummary struct {
	Name      string    `json:"name" yaml:"name"`
	Locked    bool      `json:"locked" yaml:"locked"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// SaveRequest replaces the text of a workspace.
type SaveRequest struct {
	Content string `json:"content"`
}

// PasswordRequest is sent to lock and unlock.
type PasswordRequest struct {
	Password string `json:"password"`
}

// StatusResponse acknowledges a write.
type StatusResponse struct {
	Status  string `json:"status" yaml:"status"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// AuditLog is one audit entry.
type AuditLog struct {
	ID          uint      `json:"id" yaml:"id"`
	UserID      string    `json:"user_id" yaml:"user_id"`
	Action      string    `json:"action" yaml:"action"`
	Resource    string    `json:"resource" yaml:"resource"`
	DetailsJSON string    `json:"details_json" yaml:"details_json"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// ServerInfo is returned by /info.
type ServerInfo struct {
	ServerID  string `json:"server_id" yaml:"server_id"`
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	OS        string `json:"os" yaml:"os"`
	Arch      string `json:"arch" yaml:"arch"`
}
