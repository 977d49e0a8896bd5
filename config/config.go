// Package config loads plex-mcp settings from defaults, an optional config
// file, a .env file and the process environment, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config is the complete runtime configuration.
type Config struct {
	Plex   PlexConfig   `yaml:"plex" toml:"plex" json:"plex"`
	Server ServerConfig `yaml:"server" toml:"server" json:"server"`
	Log    LogConfig    `yaml:"log" toml:"log" json:"log"`
	Tools  ToolsConfig  `yaml:"tools" toml:"tools" json:"tools"`
	Sentry SentryConfig `yaml:"sentry" toml:"sentry" json:"sentry"`
}

// PlexConfig describes how to reach the media server.
type PlexConfig struct {
	URL        string `yaml:"url" toml:"url" json:"url"`
	Token      string `yaml:"token" toml:"token" json:"token"`
	Username   string `yaml:"username" toml:"username" json:"username"`
	Password   string `yaml:"password" toml:"password" json:"password"`
	ServerName string `yaml:"server_name" toml:"server_name" json:"server_name"`
	// AccountURL is the plex.tv base used for sign-in and account lookups.
	AccountURL     string   `yaml:"account_url" toml:"account_url" json:"account_url"`
	Timeout        Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
	SessionTimeout Duration `yaml:"session_timeout" toml:"session_timeout" json:"session_timeout"`
}

// ServerConfig holds the MCP transport settings.
type ServerConfig struct {
	Transport       string   `yaml:"transport" toml:"transport" json:"transport"`
	Host            string   `yaml:"host" toml:"host" json:"host"`
	Port            int      `yaml:"port" toml:"port" json:"port"`
	Debug           bool     `yaml:"debug" toml:"debug" json:"debug"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout"`
	KeepAlive       Duration `yaml:"keepalive" toml:"keepalive" json:"keepalive"`
	ToolTimeout     Duration `yaml:"tool_timeout" toml:"tool_timeout" json:"tool_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

// ToolsConfig restricts which tools get registered. An empty Tags list
// registers everything.
type ToolsConfig struct {
	Tags []string `yaml:"tags" toml:"tags" json:"tags"`
}

type SentryConfig struct {
	DSN         string `yaml:"dsn" toml:"dsn" json:"dsn"`
	Environment string `yaml:"environment" toml:"environment" json:"environment"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Plex: PlexConfig{
			AccountURL:     "https://plex.tv",
			Timeout:        Duration(30 * time.Second),
			SessionTimeout: Duration(30 * time.Minute),
		},
		Server: ServerConfig{
			Transport:       TransportSSE,
			Host:            "0.0.0.0",
			Port:            3001,
			ShutdownTimeout: Duration(5 * time.Second),
			KeepAlive:       Duration(15 * time.Second),
			ToolTimeout:     Duration(120 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config. path may be empty, in which case PLEX_MCP_CONFIG and
// then DefaultPath are tried. A missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = stringOr("PLEX_MCP_CONFIG", "")
	}
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns ~/.plex-mcp/config.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".plex-mcp", "config.yaml")
}

func applyEnv(cfg *Config) {
	cfg.Plex.URL = stringOr("PLEX_URL", cfg.Plex.URL)
	cfg.Plex.Token = stringOr("PLEX_TOKEN", cfg.Plex.Token)
	cfg.Plex.Username = stringOr("PLEX_USERNAME", cfg.Plex.Username)
	cfg.Plex.Password = stringOr("PLEX_PASSWORD", cfg.Plex.Password)
	cfg.Plex.ServerName = stringOr("PLEX_SERVER_NAME", cfg.Plex.ServerName)

	cfg.Server.Transport = stringOr("PLEX_MCP_TRANSPORT", cfg.Server.Transport)
	cfg.Server.Host = stringOr("FASTMCP_HOST", cfg.Server.Host)
	cfg.Server.Port = intOr("FASTMCP_PORT", cfg.Server.Port)
	cfg.Server.Debug = boolOr("FASTMCP_DEBUG", cfg.Server.Debug)

	cfg.Log.Level = stringOr("PLEX_MCP_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = stringOr("PLEX_MCP_LOG_FORMAT", cfg.Log.Format)

	cfg.Tools.Tags = stringSliceOr("PLEX_MCP_TOOL_TAGS", cfg.Tools.Tags)
	cfg.Sentry.DSN = stringOr("PLEX_MCP_SENTRY_DSN", cfg.Sentry.DSN)
}

var validTags = []string{"read", "write", "delete"}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case TransportStdio, TransportSSE:
	default:
		return fmt.Errorf("invalid transport %q (must be %s or %s)", c.Server.Transport, TransportStdio, TransportSSE)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	for _, tag := range c.Tools.Tags {
		if !slices.Contains(validTags, tag) {
			return fmt.Errorf("invalid tool tag %q (must be one of %s)", tag, strings.Join(validTags, ", "))
		}
	}
	return nil
}

// Addr is the listen address for the SSE transport.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
