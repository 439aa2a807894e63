package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nebari-dev/codepad/internal/audit"
	"github.com/nebari-dev/codepad/internal/auth"
	"github.com/nebari-dev/codepad/internal/content"
	"github.com/nebari-dev/codepad/internal/models"
	"github.com/nebari-dev/codepad/internal/store"
	"gorm.io/gorm"
)

// WorkspaceStore is the subset of store.WorkspaceStore the handlers use.
type WorkspaceStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Workspace, error)
	Save(ctx context.Context, name, text string, isAdmin bool) (bool, error)
	Lock(ctx context.Context, name, password string) error
	Unlock(ctx context.Context, name, password string, isAdmin bool) (string, error)
	List(ctx context.Context) ([]store.Summary, error)
}

type WorkspaceHandler struct {
	store             WorkspaceStore
	db                *gorm.DB
	hideLockedContent bool
}

// NewWorkspaceHandler wires the store. db receives audit entries and may
// be nil to disable auditing.
func NewWorkspaceHandler(s WorkspaceStore, db *gorm.DB, hideLockedContent bool) *WorkspaceHandler {
	return &WorkspaceHandler{store: s, db: db, hideLockedContent: hideLockedContent}
}

// handleStoreError maps store errors to HTTP status codes.
func handleStoreError(c *gin.Context, err error) {
	var validationErr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Workspace not found"})
	case errors.Is(err, store.ErrInvalidCredential):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid password"})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: validationErr.Message})
	case errors.Is(err, store.ErrLocked):
		c.JSON(http.StatusLocked, ErrorResponse{Error: "Workspace is locked"})
	case errors.Is(err, store.ErrStorageUnavailable):
		slog.Error("storage unavailable", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Storage unavailable"})
	case errors.Is(err, context.Canceled):
		// client went away; nobody reads the body
		c.Status(499)
	default:
		slog.Error("unhandled store error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// GetWorkspace godoc
// @Summary Open a workspace, creating it if absent
// @Tags workspaces
// @Produce json
// @Param name path string true "Workspace name"
// @Success 200 {object} WorkspaceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /workspaces/{name} [get]
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	ws, err := h.store.GetOrCreate(c.Request.Context(), c.Param("name"))
	if err != nil {
		handleStoreError(c, err)
		return
	}

	resp := WorkspaceResponse{Name: ws.Name, Content: ws.Content, Locked: ws.Locked}
	if ws.Locked && h.hideLockedContent && !auth.IsAdmin(c) {
		resp.Content = ""
	}
	c.JSON(http.StatusOK, resp)
}

// SaveWorkspace godoc
// @Summary Replace the text of a workspace
// @Tags workspaces
// @Accept json
// @Produce json
// @Param name path string true "Workspace name"
// @Param body body SaveRequest true "New content"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 423 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /workspaces/{name} [post]
func (h *WorkspaceHandler) SaveWorkspace(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content is required"})
		return
	}

	ctx := c.Request.Context()
	name := c.Param("name")
	isAdmin := auth.IsAdmin(c)

	wasLocked, err := h.store.Save(ctx, name, *req.Content, isAdmin)
	if err != nil {
		handleStoreError(c, err)
		return
	}

	// admins writing over a lock leave a trail
	if wasLocked && isAdmin {
		h.audit(c, audit.ActionAdminSaveLocked, name)
	}
	c.JSON(http.StatusOK, StatusResponse{Status: "saved"})
}

// LockWorkspace godoc
// @Summary Lock a workspace with a password
// @Tags workspaces
// @Accept json
// @Produce json
// @Param name path string true "Workspace name"
// @Param body body PasswordRequest true "Password"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /workspaces/{name}/lock [post]
func (h *WorkspaceHandler) LockWorkspace(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	name := c.Param("name")
	if err := h.store.Lock(c.Request.Context(), name, req.Password); err != nil {
		handleStoreError(c, err)
		return
	}

	h.audit(c, audit.ActionLockWorkspace, name)
	c.JSON(http.StatusOK, StatusResponse{Status: "locked"})
}

// UnlockWorkspace godoc
// @Summary Unlock a workspace
// @Description Admins may unlock without the password.
// @Tags workspaces
// @Accept json
// @Produce json
// @Param name path string true "Workspace name"
// @Param body body PasswordRequest false "Password"
// @Success 200 {object} UnlockResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /workspaces/{name}/unlock [post]
func (h *WorkspaceHandler) UnlockWorkspace(c *gin.Context) {
	var req PasswordRequest
	// an admin override may come without a body
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	name := c.Param("name")
	isAdmin := auth.IsAdmin(c)

	text, err := h.store.Unlock(c.Request.Context(), name, req.Password, isAdmin)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredential) {
			h.audit(c, audit.ActionUnlockWorkspaceFailed, name)
		}
		handleStoreError(c, err)
		return
	}

	action := audit.ActionUnlockWorkspace
	if isAdmin {
		action = audit.ActionAdminUnlockWorkspace
	}
	h.audit(c, action, name)
	c.JSON(http.StatusOK, UnlockResponse{Status: "unlocked", Content: text})
}

// RandomName godoc
// @Summary Suggest a fresh workspace name
// @Tags workspaces
// @Produce json
// @Success 200 {object} RandomNameResponse
// @Router /random-name [get]
func RandomName(c *gin.Context) {
	c.JSON(http.StatusOK, RandomNameResponse{Name: content.NewName()})
}

// ListWorkspaces godoc
// @Summary List all workspaces (admin only)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {array} WorkspaceSummary
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/workspaces [get]
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	summaries, err := h.store.List(c.Request.Context())
	if err != nil {
		handleStoreError(c, err)
		return
	}

	out := make([]WorkspaceSummary, len(summaries))
	for i, s := range summaries {
		out[i] = WorkspaceSummary{Name: s.Name, Locked: s.Locked, UpdatedAt: s.UpdatedAt}
	}
	c.JSON(http.StatusOK, out)
}

func (h *WorkspaceHandler) audit(c *gin.Context, action, name string) {
	if h.db == nil {
		return
	}
	userID := uuid.Nil
	if user, err := auth.UserFromContext(c); err == nil {
		userID = user.ID
	}
	if normalized, err := store.NormalizeName(name); err == nil {
		name = normalized
	}
	if err := audit.LogAction(h.db, userID, action, audit.WorkspaceResource(name), gin.H{"ip": c.ClientIP()}); err != nil {
		slog.Warn("Failed to write audit log", "action", action, "error", err)
	}
}
