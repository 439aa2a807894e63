package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Log       LogConfig       `mapstructure:"log"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`            // "development" or "production"
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Per-request deadline applied by the router
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`            // "sqlite" or "postgres"
	DSN             string `mapstructure:"dsn"`               // Connection string
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Maximum idle connections (Postgres)
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Maximum open connections (Postgres)
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // Connection max lifetime in minutes (Postgres)
	LogLevel        string `mapstructure:"log_level"`         // GORM log level, falls back to log.level
}

// AuthConfig holds admin authentication configuration
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"` // Secret for JWT signing
}

// CacheConfig holds workspace read cache configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"`        // "none", "memory" (single process) or "valkey" (shared by replicas)
	ValkeyAddr string        `mapstructure:"valkey_addr"` // Valkey address (if type=valkey), e.g., "localhost:6379"
	TTL        time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// WorkspaceConfig holds workspace behavior knobs
type WorkspaceConfig struct {
	DefaultContent    string `mapstructure:"default_content"`      // "empty" or "placeholder"
	EnforceLockOnSave bool   `mapstructure:"enforce_lock_on_save"` // Reject saves to locked workspaces unless admin
	HideLockedContent bool   `mapstructure:"hide_locked_content"`  // Hide content of locked workspaces from non-admins
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read from config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/codepad/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override
	v.SetEnvPrefix("CODEPAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./codepad.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60) // 60 minutes
	v.SetDefault("database.log_level", "")
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.valkey_addr", "localhost:6379")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("workspace.default_content", "placeholder")
	v.SetDefault("workspace.enforce_lock_on_save", false)
	v.SetDefault("workspace.hide_locked_content", false)
}

// Validate rejects configuration values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres", "postgresql":
	default:
		return fmt.Errorf("unsupported database driver: %s (supported: sqlite, postgres)", c.Database.Driver)
	}

	switch c.Cache.Type {
	case "none", "memory":
	case "valkey":
		if c.Cache.ValkeyAddr == "" {
			return fmt.Errorf("valkey address is required when cache type is valkey")
		}
	default:
		return fmt.Errorf("unsupported cache type: %s (supported: none, memory, valkey)", c.Cache.Type)
	}

	switch c.Workspace.DefaultContent {
	case "empty", "placeholder":
	default:
		return fmt.Errorf("unsupported workspace.default_content: %s (supported: empty, placeholder)", c.Workspace.DefaultContent)
	}

	if c.Server.Mode == "production" && c.Auth.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("auth.jwt_secret must be set in production mode")
	}

	return nil
}
