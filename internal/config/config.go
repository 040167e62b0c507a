// Package config loads service and audit configuration from TOML files and
// PARITY_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/JaimeStill/parity/pkg/database"
	"github.com/JaimeStill/parity/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvParityEnv             = "PARITY_ENV"
	EnvParityShutdownTimeout = "PARITY_SHUTDOWN_TIMEOUT"
	EnvParityVersion         = "PARITY_VERSION"
	EnvParityLogLevel        = "PARITY_LOG_LEVEL"
	EnvParityLogFormat       = "PARITY_LOG_FORMAT"
)

// Log formats accepted by log_format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

var databaseEnv = &database.Env{
	Host:            "PARITY_DB_HOST",
	Port:            "PARITY_DB_PORT",
	Name:            "PARITY_DB_NAME",
	User:            "PARITY_DB_USER",
	Password:        "PARITY_DB_PASSWORD",
	SSLMode:         "PARITY_DB_SSL_MODE",
	AppName:         "PARITY_DB_APP_NAME",
	MaxOpenConns:    "PARITY_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "PARITY_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "PARITY_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "PARITY_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "PARITY_STORAGE_CONTAINER_NAME",
	ConnectionString: "PARITY_STORAGE_CONNECTION_STRING",
	ServiceURL:       "PARITY_STORAGE_SERVICE_URL",
	MaxListSize:      "PARITY_STORAGE_MAX_LIST_SIZE",
}

// Config is the root configuration for the parity service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	API             APIConfig       `toml:"api"`
	Audit           AuditConfig     `toml:"audit"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
	LogLevel        string          `toml:"log_level"`
	LogFormat       string          `toml:"log_format"`
}

// Env returns the PARITY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvParityEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level. Validation guarantees it parses.
func (c *Config) Level() slog.Level {
	var level slog.Level
	level.UnmarshalText([]byte(c.LogLevel))
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg, err := read(BaseConfigFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// LoadAudit reads only the [audit] section from path (or config.toml when path
// is empty) plus its overlay and PARITY_AUDIT_* variables. Database and storage
// settings are neither required nor validated.
func LoadAudit(path string) (*AuditConfig, error) {
	if path == "" {
		path = BaseConfigFile
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Audit.Finalize(); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	return &cfg.Audit, nil
}

// LoadDatabase reads only the [database] section from config.toml plus its
// overlay and PARITY_DB_* variables.
func LoadDatabase() (*database.Config, error) {
	cfg, err := read(BaseConfigFile)
	if err != nil {
		return nil, err
	}

	if err := cfg.Database.Finalize(databaseEnv); err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	return &cfg.Database, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Audit.Merge(&overlay.Audit)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Audit.Finalize(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvParityShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvParityVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvParityLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvParityLogFormat); v != "" {
		c.LogFormat = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log_format %q: want text or json", c.LogFormat)
	}
	return nil
}

func read(base string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(base); err == nil {
		loaded, err := load(base)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	return cfg, nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvParityEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
