package handlers

import (
	"context"
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/codepad/internal/db"
	"gorm.io/gorm"
)

// Version is set via ldflags at build time
var Version = "dev"

// InfoHandler handles server info requests
type InfoHandler struct {
	db *gorm.DB
}

// NewInfoHandler creates a new InfoHandler
func NewInfoHandler(database *gorm.DB) *InfoHandler {
	return &InfoHandler{db: database}
}

// InfoResponse represents the server info response
type InfoResponse struct {
	ServerID  string `json:"server_id"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo godoc
// @Summary Get server information
// @Description Returns server information including the unique server ID and version
// @Tags system
// @Produce json
// @Success 200 {object} InfoResponse
// @Failure 500 {object} ErrorResponse
// @Router /info [get]
func (h *InfoHandler) GetInfo(c *gin.Context) {
	serverID, err := db.GetServerID(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Failed to retrieve server ID",
		})
		return
	}

	c.JSON(http.StatusOK, InfoResponse{
		ServerID:  serverID,
		Version:   Version,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck godoc
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} ErrorResponse
// @Router /health [get]
func HealthCheck(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := p.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Storage unavailable"})
			return
		}
		c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
	}
}
