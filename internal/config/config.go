// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ragchat configuration.
type Config struct {
	// Service configuration (the answering backend)
	Service ServiceConfig `toml:"service"`

	// Storage configuration (local session persistence)
	Storage StorageConfig `toml:"storage"`

	// Log configuration
	Log LogConfig `toml:"log"`
}

// ServiceConfig describes the answering service endpoint.
type ServiceConfig struct {
	// URL is the base URL of the answering service
	URL string `toml:"url"`
	// StreamPath is the streaming endpoint path
	StreamPath string `toml:"stream_path"`
	// TimeoutSecs bounds connection establishment
	TimeoutSecs int `toml:"timeout_secs"`
	// StreamTimeoutSecs bounds one whole streamed exchange
	StreamTimeoutSecs int `toml:"stream_timeout_secs"`
}

// StorageConfig describes local session persistence.
type StorageConfig struct {
	// Enabled toggles persistence; when false sessions are memory-only
	Enabled bool `toml:"enabled"`
	// Path is the SQLite database path (empty = ~/.ragchat/sessions.db)
	Path string `toml:"path"`
}

// LogConfig describes the file logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// Path is the log file path (empty = ~/.ragchat/ragchat.log)
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:               "http://127.0.0.1:8000",
			StreamPath:        "/chat/stream",
			TimeoutSecs:       30,
			StreamTimeoutSecs: 300,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    "",
		},
		Log: LogConfig{
			Level: "info",
			Path:  "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ragchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ragchat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DatabasePath resolves the session database path, falling back to the
// default location inside the config directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// LogPath resolves the log file path, falling back to the default
// location inside the config directory.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ragchat.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.ragchat/config.toml, falling back to
// defaults when the file is absent. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path. A missing
// file is not an error; defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults replaces zero values left by a sparse config file.
func (c *Config) fillDefaults() {
	def := Default()
	if c.Service.URL == "" {
		c.Service.URL = def.Service.URL
	}
	if c.Service.StreamPath == "" {
		c.Service.StreamPath = def.Service.StreamPath
	}
	if c.Service.TimeoutSecs <= 0 {
		c.Service.TimeoutSecs = def.Service.TimeoutSecs
	}
	if c.Service.StreamTimeoutSecs <= 0 {
		c.Service.StreamTimeoutSecs = def.Service.StreamTimeoutSecs
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - RAGCHAT_SERVICE_URL: overrides service.url
//   - RAGCHAT_STREAM_PATH: overrides service.stream_path
//   - RAGCHAT_TIMEOUT_SECS: overrides service.timeout_secs
//   - RAGCHAT_LOG_LEVEL: overrides log.level
//   - RAGCHAT_NO_STORAGE: set to "1" or "true" to disable persistence
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("RAGCHAT_SERVICE_URL"); u != "" {
		c.Service.URL = u
	}

	if p := os.Getenv("RAGCHAT_STREAM_PATH"); p != "" {
		c.Service.StreamPath = p
	}

	if t := os.Getenv("RAGCHAT_TIMEOUT_SECS"); t != "" {
		if secs, err := strconv.Atoi(t); err == nil && secs > 0 {
			c.Service.TimeoutSecs = secs
		}
	}

	if level := os.Getenv("RAGCHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	if no := os.Getenv("RAGCHAT_NO_STORAGE"); no != "" {
		if no == "1" || strings.ToLower(no) == "true" {
			c.Storage.Enabled = false
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Service.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "service.url",
			Message: fmt.Sprintf("invalid URL '%s', must include scheme and host", c.Service.URL),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "service.url",
			Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
		})
	}

	if !strings.HasPrefix(c.Service.StreamPath, "/") {
		errs = append(errs, ValidationError{
			Field:   "service.stream_path",
			Message: fmt.Sprintf("must start with '/', got '%s'", c.Service.StreamPath),
		})
	}

	if c.Service.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{
			Field:   "service.timeout_secs",
			Message: fmt.Sprintf("must be positive, got %d", c.Service.TimeoutSecs),
		})
	}

	if c.Service.StreamTimeoutSecs < c.Service.TimeoutSecs {
		errs = append(errs, ValidationError{
			Field:   "service.stream_timeout_secs",
			Message: "must be at least timeout_secs",
		})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be debug, info, warn, or error, got '%s'", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
