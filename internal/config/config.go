// Package config loads todo-bridge settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/todo-bridge/internal/logging"
)

// Environment variables consulted after the config file.
const (
	EnvConfig   = "TODO_BRIDGE_CONFIG"
	EnvDB       = "TODO_BRIDGE_DB"
	EnvAddr     = "TODO_BRIDGE_ADDR"
	EnvSecret   = "BETTER_AUTH_SECRET"
	EnvToken    = "TODO_BRIDGE_TOKEN"
	EnvAPIURL   = "TODO_BRIDGE_API_URL"
	EnvLogLevel = "TODO_BRIDGE_LOG_LEVEL"
)

// ErrNoSecret is returned when a command needs to verify or mint tokens
// but no signing secret is configured.
var ErrNoSecret = errors.New("auth.secret is not set (config file or " + EnvSecret + ")")

type Config struct {
	Server          ServerConfig  `yaml:"server"`
	Store           StoreConfig   `yaml:"store"`
	Auth            AuthConfig    `yaml:"auth"`
	Client          ClientConfig  `yaml:"client"`
	Chat            ChatConfig    `yaml:"chat"`
	Log             LogConfig     `yaml:"log"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type StoreConfig struct {
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	Secret          string        `yaml:"secret"`
	Issuer          string        `yaml:"issuer"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	SessionCookie   string        `yaml:"session_cookie"`
	SessionIDCookie string        `yaml:"session_id_cookie"`
}

// ClientConfig is used by the CLI when talking to a remote server.
type ClientConfig struct {
	APIURL  string        `yaml:"api_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

type ChatConfig struct {
	// HistoryBudget caps, in characters, how much of a thread is handed
	// to the interpreter.
	HistoryBudget int `yaml:"history_budget"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultDBPath returns ~/.todo-bridge/todo.db.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".todo-bridge", "todo.db")
	}
	return filepath.Join(home, ".todo-bridge", "todo.db")
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8000",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Store: StoreConfig{
			Path:    DefaultDBPath(),
			Timeout: 5 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL:        24 * time.Hour,
			SessionCookie:   "session_token",
			SessionIDCookie: "session_id",
		},
		Client: ClientConfig{
			Timeout: 10 * time.Second,
		},
		Chat: ChatConfig{
			HistoryBudget: 4000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load returns Default overlaid with the YAML file at path (if path is
// non-empty, or TODO_BRIDGE_CONFIG is set) and then the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.Store.Path = expandHome(cfg.Store.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvDB, &c.Store.Path)
	set(EnvAddr, &c.Server.Addr)
	set(EnvSecret, &c.Auth.Secret)
	set(EnvToken, &c.Client.Token)
	set(EnvAPIURL, &c.Client.APIURL)
	set(EnvLogLevel, &c.Log.Level)
}

// Validate checks values that would otherwise fail later and far from the
// config file.
func (c *Config) Validate() error {
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}
	if c.Chat.HistoryBudget <= 0 {
		return fmt.Errorf("chat.history_budget must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json")
	}
	return nil
}

// RequireSecret fails with ErrNoSecret when no signing secret is configured.
func (c *Config) RequireSecret() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return ErrNoSecret
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
