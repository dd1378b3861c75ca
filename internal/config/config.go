// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ollama-chat configuration.
type Config struct {
	Version string `toml:"version"`

	// Ollama contains server connection settings.
	Ollama OllamaConfig `toml:"ollama"`

	// Generation contains settings for the background worker.
	Generation GenerationConfig `toml:"generation"`

	// UI contains renderer preferences.
	UI UIConfig `toml:"ui"`

	// Export contains transcript export settings.
	Export ExportConfig `toml:"export"`

	// Log contains the rotating log file settings.
	Log LogConfig `toml:"log"`
}

// OllamaConfig contains Ollama server settings.
type OllamaConfig struct {
	// BaseURL is the Ollama server address (default: http://localhost:11434).
	BaseURL string `toml:"base_url" validate:"required,url"`
	// DefaultModel is preferred when the server lists it.
	DefaultModel string `toml:"default_model"`
	// Timeout bounds a single chat request. Zero means no limit.
	Timeout Duration `toml:"timeout"`
	// ListTimeout bounds the /api/tags request.
	ListTimeout Duration `toml:"list_timeout"`
	// ModelCacheTTL is how long a model listing is reused.
	ModelCacheTTL Duration `toml:"model_cache_ttl"`
}

// GenerationConfig contains worker settings.
type GenerationConfig struct {
	// Timeout bounds a whole step, including graph overhead. Zero means no limit.
	Timeout Duration `toml:"timeout"`
	// PollInterval is the cadence at which renderers poll for results.
	PollInterval Duration `toml:"poll_interval"`
	// ThreadTTL ages out abandoned threads. Zero keeps them forever.
	ThreadTTL Duration `toml:"thread_ttl"`
	// Stream reads replies chunk by chunk from /api/chat.
	Stream bool `toml:"stream"`
}

// UIConfig contains renderer settings.
type UIConfig struct {
	SidebarWidth   int    `toml:"sidebar_width" validate:"gte=16,lte=60"`
	ShowTimestamps bool   `toml:"show_timestamps"`
	CodeStyle      string `toml:"code_style" validate:"required"`
}

// ExportConfig contains transcript export settings.
type ExportConfig struct {
	// Dir is where exports land when the user gives a bare file name.
	Dir string `toml:"dir"`
	// DefaultFormat is the extension used when none is given.
	DefaultFormat string `toml:"default_format" validate:"oneof=md txt json html"`
}

// LogConfig contains log file settings.
type LogConfig struct {
	Level      string `toml:"level" validate:"oneof=debug info warn error"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `toml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" validate:"gte=0"`
	Compress   bool   `toml:"compress"`
}

// Duration is a time.Duration that reads and writes as "30s" in TOML.
type Duration struct {
	time.Duration
}

// D wraps d.
func D(d time.Duration) Duration { return Duration{d} }

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultBaseURL is where a stock Ollama install listens.
	DefaultBaseURL = "http://localhost:11434"
	// DefaultPollInterval is the result poll cadence.
	DefaultPollInterval = 100 * time.Millisecond
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Ollama: OllamaConfig{
			BaseURL:       DefaultBaseURL,
			ListTimeout:   D(5 * time.Second),
			ModelCacheTTL: D(30 * time.Second),
		},
		Generation: GenerationConfig{
			PollInterval: D(DefaultPollInterval),
			Stream:       true,
		},
		UI: UIConfig{
			SidebarWidth:   28,
			ShowTimestamps: true,
			CodeStyle:      "monokai",
		},
		Export: ExportConfig{
			DefaultFormat: "md",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the ollama-chat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ollama-chat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load builds the configuration from defaults, ~/.ollama-chat/config.toml
// when present, a .env file in the working directory and the environment.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		path = ""
	}
	return load(path, ".env")
}

// LoadFromPath loads configuration from a specific TOML file.
func LoadFromPath(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return load(path, ".env")
}

func load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set.
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills zero values that have no meaningful zero.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	c.Ollama.BaseURL = strings.TrimRight(strings.TrimSpace(c.Ollama.BaseURL), "/")
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = defaults.Ollama.BaseURL
	}
	if c.Ollama.ListTimeout.Duration == 0 {
		c.Ollama.ListTimeout = defaults.Ollama.ListTimeout
	}
	if c.Generation.PollInterval.Duration == 0 {
		c.Generation.PollInterval = defaults.Generation.PollInterval
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
	if c.UI.CodeStyle == "" {
		c.UI.CodeStyle = defaults.UI.CodeStyle
	}
	c.Export.DefaultFormat = strings.TrimPrefix(strings.ToLower(c.Export.DefaultFormat), ".")
	if c.Export.DefaultFormat == "" {
		c.Export.DefaultFormat = defaults.Export.DefaultFormat
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to path as TOML, creating the directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# ollama-chat configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validate = newValidator()

// newValidator reports fields by their TOML key so messages match the file.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, ValidationError{
				Field:   fieldPath(fe.Namespace()),
				Message: describe(fe),
			})
		}
	}

	if c.Ollama.BaseURL != "" {
		if u, err := url.Parse(c.Ollama.BaseURL); err == nil && u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{
				Field:   "ollama.base_url",
				Message: fmt.Sprintf("unsupported scheme '%s', must be http or https", u.Scheme),
			})
		}
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"ollama.timeout", c.Ollama.Timeout.Duration},
		{"ollama.list_timeout", c.Ollama.ListTimeout.Duration},
		{"ollama.model_cache_ttl", c.Ollama.ModelCacheTTL.Duration},
		{"generation.timeout", c.Generation.Timeout.Duration},
		{"generation.poll_interval", c.Generation.PollInterval.Duration},
		{"generation.thread_ttl", c.Generation.ThreadTTL.Duration},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs = append(errs, ValidationError{Field: d.field, Message: "must not be negative"})
		}
	}
	if c.Generation.PollInterval.Duration > 0 && c.Generation.PollInterval.Duration < 10*time.Millisecond {
		errs = append(errs, ValidationError{
			Field:   "generation.poll_interval",
			Message: "must be at least 10ms",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// fieldPath turns "Config.ollama.base_url" into "ollama.base_url".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return fmt.Sprintf("invalid URL '%v'", fe.Value())
	case "oneof":
		return fmt.Sprintf("invalid value '%v', must be one of: %s", fe.Value(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed '%s' check", fe.Tag())
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - OLLAMA_HOST: overrides ollama.base_url (the Ollama CLI convention)
//   - OLLAMA_CHAT_URL: overrides ollama.base_url, wins over OLLAMA_HOST
//   - OLLAMA_CHAT_MODEL: overrides ollama.default_model
//   - OLLAMA_CHAT_LOG_LEVEL: overrides log.level
//   - OLLAMA_CHAT_EXPORT_DIR: overrides export.dir
func (c *Config) ApplyEnvOverrides() {
	// OLLAMA_HOST may be a bare host:port
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		if !strings.Contains(host, "://") {
			host = "http://" + host
		}
		c.Ollama.BaseURL = host
	}

	if u := os.Getenv("OLLAMA_CHAT_URL"); u != "" {
		c.Ollama.BaseURL = u
	}

	if model := os.Getenv("OLLAMA_CHAT_MODEL"); model != "" {
		c.Ollama.DefaultModel = model
	}

	if level := os.Getenv("OLLAMA_CHAT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}

	if dir := os.Getenv("OLLAMA_CHAT_EXPORT_DIR"); dir != "" {
		c.Export.Dir = dir
	}
}

// LogPath returns the log file path, defaulting into the config directory.
func (c LogConfig) LogPath() (string, error) {
	if c.File != "" {
		return c.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "logs", "ollama-chat.log"), nil
}
