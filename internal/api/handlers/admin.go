package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/codepad/internal/audit"
	"gorm.io/gorm"
)

type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// ListAuditLogs godoc
// @Summary List audit logs
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param action query string false "Filter by action"
// @Param workspace query string false "Filter by workspace name"
// @Param limit query int false "Maximum entries (default 100, max 500)"
// @Success 200 {array} models.AuditLog
// @Failure 400 {object} ErrorResponse
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	filter := audit.Filter{Action: c.Query("action")}
	if ws := c.Query("workspace"); ws != "" {
		filter.Resource = audit.WorkspaceResource(ws)
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	logs, err := audit.List(h.db, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch audit logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}
