// Package config loads server settings from defaults, a TOML or YAML file,
// the environment and finally command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Environment overrides, applied after the config file.
const (
	EnvDBPath    = "SQLITEMCP_DB_PATH"
	EnvTransport = "SQLITEMCP_TRANSPORT"
	EnvAddr      = "SQLITEMCP_ADDR"
	EnvJWTSecret = "SQLITEMCP_JWT_SECRET"
)

// Config is the full server configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database" yaml:"database"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Auth      AuthConfig      `toml:"auth" yaml:"auth"`
	Telemetry TelemetryConfig `toml:"telemetry" yaml:"telemetry"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path" validate:"required"`
}

type ServerConfig struct {
	Transport string `toml:"transport" yaml:"transport" validate:"oneof=stdio http"`
	Addr      string `toml:"addr" yaml:"addr" validate:"required,hostname_port"`
	RateLimit int    `toml:"rate_limit" yaml:"rate_limit" validate:"gte=0"` // requests per minute per IP, 0 disables
}

type AuthConfig struct {
	JWTSecret      string `toml:"jwt_secret" yaml:"jwt_secret" validate:"omitempty,min=16"`
	TokenExpiryMin int    `toml:"token_expiry_min" yaml:"token_expiry_min" validate:"gt=0"`
	PasswordHash   string `toml:"password_hash" yaml:"password_hash"`
}

// Enabled reports whether HTTP requests must carry a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

type TelemetryConfig struct {
	Path        string `toml:"path" yaml:"path"` // empty disables audit and SQL traces
	SlowQueryMs int    `toml:"slow_query_ms" yaml:"slow_query_ms" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `toml:"format" yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns the settings used when no file or env var overrides them.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "./sqlite_mcp_server.db",
		},
		Server: ServerConfig{
			Transport: TransportStdio,
			Addr:      "127.0.0.1:8483",
			RateLimit: 600,
		},
		Auth: AuthConfig{
			TokenExpiryMin: 1440, // 24h
		},
		Telemetry: TelemetryConfig{
			SlowQueryMs: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the file at path (a missing file is
// not an error) and the environment. Callers apply flags and then Validate.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = toml.Unmarshal(data, c)
	}
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv(EnvTransport); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Auth.PasswordHash != "" && !c.Auth.Enabled() {
		return fmt.Errorf("invalid config: auth.password_hash requires auth.jwt_secret")
	}
	return nil
}
