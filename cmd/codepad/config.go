package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nebari-dev/codepad/internal/cliclient"
	"github.com/nebari-dev/codepad/internal/keychain"
	"gopkg.in/yaml.v3"
)

const defaultServerURL = "http://localhost:5000"

// CLIConfig holds the CLI configuration. Tokens live in the keychain.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	Username  string `yaml:"username,omitempty"`
}

// getConfigDir returns the platform-specific config directory.
func getConfigDir() (string, error) {
	if envDir := os.Getenv("CODEPAD_CONFIG_DIR"); envDir != "" {
		return envDir, nil
	}

	baseDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(baseDir, "codepad"), nil
}

// loadConfig loads the CLI config from disk. A missing file is an empty config.
func loadConfig() (*CLIConfig, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, err
	}

	cfg := &CLIConfig{}
	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables if set.
func applyEnvOverrides(cfg *CLIConfig) {
	if v := os.Getenv("CODEPAD_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}
}

// saveConfig saves the CLI config to disk.
func saveConfig(cfg *CLIConfig) error {
	dir, err := getConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// tokenStore returns the keychain used for operator tokens.
func tokenStore() (keychain.Store, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, err
	}
	return keychain.Default(dir), nil
}

// serverURL returns the configured server or the local default.
func serverURL(cfg *CLIConfig) string {
	if cfg.ServerURL == "" {
		return defaultServerURL
	}
	return strings.TrimRight(cfg.ServerURL, "/")
}

// getAPIClient returns a client for the configured server. Requests carry
// the stored operator token when there is one and are anonymous otherwise.
func getAPIClient() (*cliclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	url := serverURL(cfg)

	if token := os.Getenv("CODEPAD_TOKEN"); token != "" {
		return cliclient.New(url, token), nil
	}

	store, err := tokenStore()
	if err != nil {
		return nil, err
	}
	token, err := store.Get(url)
	if err != nil && !errors.Is(err, keychain.ErrNotFound) {
		return nil, fmt.Errorf("failed to read stored token: %w", err)
	}
	return cliclient.New(url, token), nil
}
