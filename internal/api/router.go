package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nebari-dev/codepad/internal/api/handlers"
	"github.com/nebari-dev/codepad/internal/api/middleware"
	"github.com/nebari-dev/codepad/internal/auth"
	"github.com/nebari-dev/codepad/internal/config"
	"github.com/nebari-dev/codepad/internal/store"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *gorm.DB, ws *store.WorkspaceStore, authenticator auth.Authenticator, logger *slog.Logger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	workspaceHandler := handlers.NewWorkspaceHandler(ws, db, cfg.Workspace.HideLockedContent)
	adminHandler := handlers.NewAdminHandler(db)
	infoHandler := handlers.NewInfoHandler(db)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck(ws))
		public.GET("/info", infoHandler.GetInfo)
		public.GET("/random-name", handlers.RandomName)
		public.POST("/auth/login", handlers.Login(authenticator, db))
	}

	// Workspace routes are anonymous; a valid token elevates to admin
	workspaces := router.Group("/api/v1/workspaces")
	workspaces.Use(authenticator.OptionalMiddleware())
	{
		workspaces.GET("/:name", workspaceHandler.GetWorkspace)
		workspaces.POST("/:name", workspaceHandler.SaveWorkspace)
		workspaces.POST("/:name/lock", workspaceHandler.LockWorkspace)
		workspaces.POST("/:name/unlock", workspaceHandler.UnlockWorkspace)
	}

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(authenticator.Middleware())
	{
		protected.GET("/auth/me", handlers.Me)

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/workspaces", workspaceHandler.ListWorkspaces)
			admin.GET("/audit-logs", adminHandler.ListAuditLogs)
		}
	}

	// Swagger documentation
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	logger.Info("API router initialized", "mode", cfg.Server.Mode)
	return router
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
