package main

import (
	"github.com/nebari-dev/codepad/internal/server"
	"github.com/spf13/cobra"
)

var servePort int

// @title codepad API
// @version 1.0
// @description Anonymous named text workspaces with optional password locks
// @host localhost:5000
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a codepad server",
	Long: `Start the codepad HTTP server.

Examples:
  codepad serve                 # Listen on the configured port (default 5000)
  codepad serve --port 8080     # Override port

Environment variables:
  CODEPAD_SERVER_PORT              Server port (default: 5000)
  CODEPAD_DATABASE_DRIVER          Database driver: sqlite, postgres
  CODEPAD_DATABASE_DSN             Database connection string
  CODEPAD_CACHE_TYPE               Read cache: none, memory, valkey
  CODEPAD_AUTH_JWT_SECRET          JWT signing secret
  CODEPAD_WORKSPACE_ENFORCE_LOCK_ON_SAVE  Reject saves to locked workspaces
  ADMIN_USERNAME                   Bootstrap admin username
  ADMIN_PASSWORD                   Bootstrap admin password`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to run server on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	return server.RunWithSignalHandling(server.Config{
		Port:    servePort,
		Version: Version,
	})
}
