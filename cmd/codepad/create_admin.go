package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nebari-dev/codepad/internal/config"
	"github.com/nebari-dev/codepad/internal/db"
	"github.com/nebari-dev/codepad/internal/logger"
	"github.com/nebari-dev/codepad/internal/rbac"
	"github.com/spf13/cobra"
)

var createAdminEmail string

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <username>",
	Short: "Create an admin account directly in the server database",
	Long: `Create an operator account with the admin role. Runs against the
database named by the server configuration, so use it on the server host.

Examples:
  codepad create-admin alice --email alice@example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().StringVar(&createAdminEmail, "email", "", "Email (defaults to <username>@codepad.local)")
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	password, err := promptPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Log.Format, "warn")

	database, err := db.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := rbac.InitEnforcer(database, slog.Default()); err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	user, err := db.CreateAdmin(database, db.AdminSeed{
		Username: args[0],
		Password: password,
		Email:    createAdminEmail,
	})
	if err != nil {
		return err
	}

	return writeOutput(cmd.OutOrStdout(), outputFormat, map[string]string{
		"id":       user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
	}, func(w io.Writer) error {
		fmt.Fprintf(w, "Admin user created\nID: %s\nUsername: %s\nEmail: %s\n", user.ID, user.Username, user.Email)
		return nil
	})
}
