package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nebari-dev/codepad/internal/audit"
	"github.com/nebari-dev/codepad/internal/auth"
	"github.com/nebari-dev/codepad/internal/rbac"
	"gorm.io/gorm"
)

// Login godoc
// @Summary Operator login
// @Description Authenticate an operator and return a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body auth.LoginRequest true "Login credentials"
// @Success 200 {object} auth.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func Login(authenticator auth.Authenticator, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}

		resource := "user:" + req.Username
		resp, err := authenticator.Login(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				logAudit(db, uuid.Nil, audit.ActionLoginFailed, resource, gin.H{"ip": c.ClientIP()})
				c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
				return
			}
			slog.Error("login failed", "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}

		logAudit(db, resp.User.ID, audit.ActionLogin, resource, gin.H{"ip": c.ClientIP()})
		c.JSON(http.StatusOK, resp)
	}
}

// Me godoc
// @Summary Current operator
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/me [get]
func Me(c *gin.Context) {
	user, err := auth.UserFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	isAdmin, err := rbac.IsAdmin(user.ID)
	if err != nil {
		slog.Warn("Admin check failed", "user_id", user.ID, "error", err)
	}

	c.JSON(http.StatusOK, MeResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		IsAdmin:  isAdmin,
	})
}

func logAudit(db *gorm.DB, userID uuid.UUID, action, resource string, details any) {
	if db == nil {
		return
	}
	if err := audit.LogAction(db, userID, action, resource, details); err != nil {
		slog.Warn("Failed to write audit log", "action", action, "error", err)
	}
}
