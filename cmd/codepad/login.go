package main

import (
	"fmt"
	"strings"

	"github.com/nebari-dev/codepad/internal/cliclient"
	"github.com/spf13/cobra"
)

var (
	loginToken    string
	loginUsername string
)

var loginCmd = &cobra.Command{
	Use:   "login <server-url>",
	Short: "Log in to a codepad server as an operator",
	Long: `Sets the server URL and authenticates an operator account.
The token is kept in the OS keyring when available.

Examples:
  codepad login http://localhost:5000
  codepad login https://pad.example.com --token <jwt>`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token for the current server",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "API token (skip interactive login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Username (prompted when omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(args[0], "/")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("server URL must start with http:// or https://")
	}

	ctx := withContext(cmd.Context())
	token := loginToken
	username := "(token)"

	if token == "" {
		username = loginUsername
		if username == "" {
			fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
			line, err := readLine(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading username: %w", err)
			}
			username = strings.TrimSpace(line)
		}

		password, err := promptPassword(cmd, "Password: ")
		if err != nil {
			return err
		}

		resp, err := cliclient.NewWithoutAuth(url).Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		token = resp.Token
	} else if me, err := cliclient.New(url, token).Me(ctx); err == nil {
		username = me.Username
	} else {
		return fmt.Errorf("token rejected: %w", err)
	}

	store, err := tokenStore()
	if err != nil {
		return err
	}
	if err := store.Set(url, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ServerURL = url
	cfg.Username = username
	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Logged in to %s as %s\n", url, username)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	url := serverURL(cfg)

	store, err := tokenStore()
	if err != nil {
		return err
	}
	if err := store.Delete(url); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	cfg.Username = ""
	if err := saveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Logged out of %s\n", url)
	return nil
}
