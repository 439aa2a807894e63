package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Type)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "placeholder", cfg.Workspace.DefaultContent)
	assert.False(t, cfg.Workspace.EnforceLockOnSave)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CODEPAD_SERVER_PORT", "8080")
	t.Setenv("CODEPAD_CACHE_TYPE", "none")
	t.Setenv("CODEPAD_WORKSPACE_ENFORCE_LOCK_ON_SAVE", "true")
	t.Setenv("CODEPAD_WORKSPACE_DEFAULT_CONTENT", "empty")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.True(t, cfg.Workspace.EnforceLockOnSave)
	assert.Equal(t, "empty", cfg.Workspace.DefaultContent)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Mode: "development"},
			Database:  DatabaseConfig{Driver: "sqlite"},
			Auth:      AuthConfig{JWTSecret: "change-me-in-production"},
			Cache:     CacheConfig{Type: "memory"},
			Workspace: WorkspaceConfig{DefaultContent: "empty"},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"unknown driver":         func(c *Config) { c.Database.Driver = "mysql" },
		"unknown cache":          func(c *Config) { c.Cache.Type = "redis" },
		"valkey without addr":    func(c *Config) { c.Cache.Type = "valkey"; c.Cache.ValkeyAddr = "" },
		"unknown content":        func(c *Config) { c.Workspace.DefaultContent = "lorem" },
		"default secret in prod": func(c *Config) { c.Server.Mode = "production" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
