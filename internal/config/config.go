package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// BrowserConfig holds browsing session configuration.
type BrowserConfig struct {
	// Root is the initial working root of the navigation tree.
	// Empty means the process working directory.
	Root string `envconfig:"BROWSE_ROOT" default:""`
	// Backend selects the canvas backend used for new canvases:
	// "legacy" or "modern". Fixed for the life of the session.
	Backend string `envconfig:"CANVAS_BACKEND" default:"legacy"`
	// Interpreter runs scripts submitted by the client.
	Interpreter string `envconfig:"SCRIPT_INTERPRETER" default:"/bin/sh"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Browser.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.Browser.Root = wd
		} else {
			cfg.Browser.Root = "/"
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = "/"
	}
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Browser: BrowserConfig{
			Root:        wd,
			Backend:     "legacy",
			Interpreter: "/bin/sh",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
