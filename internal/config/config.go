// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v10"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/parley-tui/internal/util"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "PARLEY_"

// HomeEnv overrides the config directory.
const HomeEnv = "PARLEY_HOME"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete parley configuration.
type Config struct {
	Server ServerConfig `toml:"server" envPrefix:"SERVER_"`
	Auth   AuthConfig   `toml:"auth" envPrefix:"AUTH_"`
	UI     UIConfig     `toml:"ui" envPrefix:"UI_"`
	Log    LogConfig    `toml:"log" envPrefix:"LOG_"`
	Dev    DevConfig    `toml:"dev" envPrefix:"DEV_"`
}

// ServerConfig locates the chat backend.
type ServerConfig struct {
	// URL is the server root; "/api" is appended by the client.
	URL string `toml:"url" env:"URL"`
	// TimeoutSecs bounds request/response calls. Streams are not bounded.
	TimeoutSecs int `toml:"timeout_secs" env:"TIMEOUT_SECS"`
	// RateLimit is requests per second; 0 disables the limiter.
	RateLimit float64 `toml:"rate_limit" env:"RATE_LIMIT"`
	RateBurst int     `toml:"rate_burst" env:"RATE_BURST"`
}

// Timeout returns TimeoutSecs as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// AuthConfig controls token storage.
type AuthConfig struct {
	// TokenFile overrides ~/.parley/token.
	TokenFile string `toml:"token_file" env:"TOKEN_FILE"`
	// WatchToken follows logins and logouts made by other parley processes.
	WatchToken bool `toml:"watch_token" env:"WATCH_TOKEN"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme          string `toml:"theme" env:"THEME"`
	RenderMarkdown bool   `toml:"render_markdown" env:"RENDER_MARKDOWN"`
	ShowSidebar    bool   `toml:"show_sidebar" env:"SHOW_SIDEBAR"`
	Compact        bool   `toml:"compact" env:"COMPACT"`
}

// LogConfig controls the file logger. The TUI owns stdout, so logs always
// go to a file.
type LogConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Level   string `toml:"level" env:"LEVEL"`
	// File overrides ~/.parley/parley.log.
	File string `toml:"file" env:"FILE"`
}

// DevConfig configures the built-in development backend.
type DevConfig struct {
	Listen string `toml:"listen" env:"LISTEN"`
	// Secret signs dev server tokens. Empty generates one per run.
	Secret string `toml:"secret" env:"SECRET"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://127.0.0.1:8000",
			TimeoutSecs: 30,
			RateLimit:   10,
			RateBurst:   20,
		},
		Auth: AuthConfig{
			WatchToken: true,
		},
		UI: UIConfig{
			Theme:          "auto",
			RenderMarkdown: true,
			ShowSidebar:    true,
		},
		Log: LogConfig{
			Enabled: true,
			Level:   "info",
		},
		Dev: DevConfig{
			Listen: "127.0.0.1:8000",
		},
	}
}

// SetDefaults fills fields a partial config file left empty.
func (c *Config) SetDefaults() {
	d := Default()
	if c.Server.URL == "" {
		c.Server.URL = d.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Dev.Listen == "" {
		c.Dev.Listen = d.Dev.Listen
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns $PARLEY_HOME, or ~/.parley.
func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPathTOML returns the config file location.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// EnsureConfigDir creates the config directory with owner-only access.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// TokenPath returns where the bearer token is kept.
func (c *Config) TokenPath() (string, error) {
	if c.Auth.TokenFile != "" {
		return c.Auth.TokenFile, nil
	}
	return inConfigDir("token")
}

// LogPath returns the log file location.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	return inConfigDir("parley.log")
}

// ChatHistoryPath returns the line-editor history file of `parley chat`.
func ChatHistoryPath() (string, error) {
	return inConfigDir("chat_history")
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads defaults, then the TOML file if present, then the environment,
// and validates the result.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path, nil)
}

// LoadFrom is Load with an explicit file and environment. A nil environ
// reads the process environment. A missing file is not an error.
func LoadFrom(path string, environ map[string]string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, err
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config: %w", err)
		}
	}

	if err := ApplyEnvOverrides(cfg, environ); err != nil {
		return nil, err
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys the file does not mention keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return nil
}

// ApplyEnvOverrides applies PARLEY_* variables to cfg.
func ApplyEnvOverrides(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// SaveTOML writes cfg to path with owner-only permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# parley configuration file\n")
	buf.WriteString("# Environment variables (PARLEY_SERVER_URL, ...) override these values.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// String renders cfg as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError is one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every field and reports all problems at once as a
// *multierror.Error of ValidationError.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(field, format string, args ...any) {
		result = multierror.Append(result, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.Server.URL); err != nil || u.Host == "" {
		add("server.url", "must be an absolute URL, got %q", c.Server.URL)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		add("server.url", "scheme must be http or https, got %q", u.Scheme)
	}
	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 600 {
		add("server.timeout_secs", "must be between 1 and 600, got %d", c.Server.TimeoutSecs)
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit", "must not be negative")
	}
	if c.Server.RateBurst < 0 {
		add("server.rate_burst", "must not be negative")
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "must be auto, dark or light, got %q", c.UI.Theme)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "unknown level %q", c.Log.Level)
	}

	if _, _, err := net.SplitHostPort(c.Dev.Listen); err != nil {
		add("dev.listen", "must be host:port, got %q", c.Dev.Listen)
	}

	return result.ErrorOrNil()
}

// =============================================================================
// GLOBAL CONFIG
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide config, loading it on first use. Load
// errors fall back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal re-reads the config from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal replaces the process-wide config.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting forgets the process-wide config.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
