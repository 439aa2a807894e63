package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/codepad/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
)

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Authenticator is an interface for operator authentication providers.
// Workspace endpoints never require a login; a valid token only
// elevates the caller to admin.
type Authenticator interface {
	// Login authenticates a user and returns a JWT token
	Login(username, password string) (*LoginResponse, error)

	// Middleware rejects requests without a valid token
	Middleware() gin.HandlerFunc

	// OptionalMiddleware attaches the user when a valid token is present
	// and lets anonymous requests through
	OptionalMiddleware() gin.HandlerFunc

	// GetUserFromContext extracts the authenticated user from the Gin context
	GetUserFromContext(c *gin.Context) (*models.User, error)
}
