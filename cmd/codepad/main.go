package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/nebari-dev/codepad/docs" // Load swagger docs
)

// Version is set via ldflags at build time
var Version = "dev"

var (
	outputFormat string
	serverFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "codepad",
	Short: "codepad - shareable named text workspaces",
	Long:  `codepad serves anonymous text workspaces addressed by name, optionally locked with a password.`,
	Example: `  # Run a server
  codepad serve --port 5000

  # Work with a workspace
  codepad get notes
  echo "hello" | codepad save notes
  codepad lock notes
  codepad unlock notes

  # Operators
  codepad login http://localhost:5000
  codepad list`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateOutputFormat(outputFormat)
	},
}

func init() {
	// main prints the error once
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Server URL (overrides config and CODEPAD_SERVER_URL)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "workspace", Title: "Workspace Commands:"},
		&cobra.Group{ID: "server", Title: "Server Commands:"},
		&cobra.Group{ID: "admin", Title: "Admin Commands:"},
	)

	getCmd.GroupID = "workspace"
	saveCmd.GroupID = "workspace"
	lockCmd.GroupID = "workspace"
	unlockCmd.GroupID = "workspace"
	newCmd.GroupID = "workspace"

	loginCmd.GroupID = "server"
	logoutCmd.GroupID = "server"

	serveCmd.GroupID = "admin"
	listCmd.GroupID = "admin"
	auditCmd.GroupID = "admin"
	createAdminCmd.GroupID = "admin"

	rootCmd.AddCommand(getCmd, saveCmd, lockCmd, unlockCmd, newCmd)
	rootCmd.AddCommand(loginCmd, logoutCmd)
	rootCmd.AddCommand(serveCmd, listCmd, auditCmd, createAdminCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
