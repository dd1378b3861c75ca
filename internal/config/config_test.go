// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable ApplyEnvOverrides reads for the duration
// of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OLLAMA_HOST", "OLLAMA_CHAT_URL", "OLLAMA_CHAT_MODEL",
		"OLLAMA_CHAT_LOG_LEVEL", "OLLAMA_CHAT_EXPORT_DIR",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Generation.PollInterval.Duration != 100*time.Millisecond {
		t.Errorf("PollInterval = %v, want 100ms", cfg.Generation.PollInterval)
	}
	if cfg.Ollama.ListTimeout.Duration != 5*time.Second {
		t.Errorf("ListTimeout = %v, want 5s", cfg.Ollama.ListTimeout)
	}
	if cfg.UI.CodeStyle != "monokai" {
		t.Errorf("CodeStyle = %q, want monokai", cfg.UI.CodeStyle)
	}
	if !cfg.Generation.Stream {
		t.Error("Stream should default to true")
	}
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[ollama]
base_url = "http://gpu-box:11434/"
default_model = "llama3.2"
timeout = "2m"

[generation]
poll_interval = "250ms"
stream = false

[log]
level = "DEBUG"
`)

	cfg, err := load(path, "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Ollama.BaseURL != "http://gpu-box:11434" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.DefaultModel != "llama3.2" {
		t.Errorf("DefaultModel = %q, want llama3.2", cfg.Ollama.DefaultModel)
	}
	if cfg.Ollama.Timeout.Duration != 2*time.Minute {
		t.Errorf("Timeout = %v, want 2m", cfg.Ollama.Timeout)
	}
	if cfg.Generation.PollInterval.Duration != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.Generation.PollInterval)
	}
	if cfg.Generation.Stream {
		t.Error("Stream = true, want false from file")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Ollama.ListTimeout.Duration != 5*time.Second {
		t.Errorf("ListTimeout = %v, want default 5s", cfg.Ollama.ListTimeout)
	}
	if cfg.UI.SidebarWidth != 28 {
		t.Errorf("SidebarWidth = %d, want default 28", cfg.UI.SidebarWidth)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[ollama]
base_url = "http://file:11434"
default_model = "from-file"
`)
	t.Setenv("OLLAMA_CHAT_MODEL", "from-env")
	t.Setenv("OLLAMA_HOST", "127.0.0.1:9999")

	cfg, err := load(path, "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Ollama.DefaultModel != "from-env" {
		t.Errorf("DefaultModel = %q, want from-env", cfg.Ollama.DefaultModel)
	}
	if cfg.Ollama.BaseURL != "http://127.0.0.1:9999" {
		t.Errorf("BaseURL = %q, want OLLAMA_HOST with scheme added", cfg.Ollama.BaseURL)
	}

	t.Setenv("OLLAMA_CHAT_URL", "https://chat.example:443")
	cfg, err = load(path, "")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Ollama.BaseURL != "https://chat.example:443" {
		t.Errorf("BaseURL = %q, want OLLAMA_CHAT_URL to win", cfg.Ollama.BaseURL)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "OLLAMA_CHAT_EXPORT_DIR=/tmp/exports\nOLLAMA_CHAT_LOG_LEVEL=warn\n")

	// Already-set variables are not overridden by the .env file.
	t.Setenv("OLLAMA_CHAT_LOG_LEVEL", "error")

	cfg, err := load("", envFile)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Export.Dir != "/tmp/exports" {
		t.Errorf("Export.Dir = %q, want value from .env", cfg.Export.Dir)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want the process env to win", cfg.Log.Level)
	}
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	clearEnv(t)
	if _, err := load("", filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Errorf("load() error = %v, want nil for missing .env", err)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadFromPath() should fail for a missing file")
	}
}

func TestLoad_BadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "[ollama\nbase_url = ")
	if _, err := load(path, ""); err == nil {
		t.Error("load() should fail on malformed TOML")
	}
}

func TestLoad_BadDuration(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.toml", "[generation]\npoll_interval = \"soon\"\n")
	if _, err := load(path, ""); err == nil {
		t.Error("load() should fail on an unparsable duration")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"invalid url", func(c *Config) { c.Ollama.BaseURL = "not a url" }, "ollama.base_url"},
		{"bad scheme", func(c *Config) { c.Ollama.BaseURL = "ftp://host" }, "ollama.base_url"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad export format", func(c *Config) { c.Export.DefaultFormat = "pdf" }, "export.default_format"},
		{"sidebar too narrow", func(c *Config) { c.UI.SidebarWidth = 4 }, "ui.sidebar_width"},
		{"negative timeout", func(c *Config) { c.Generation.Timeout = D(-time.Second) }, "generation.timeout"},
		{"poll too fast", func(c *Config) { c.Generation.PollInterval = D(time.Millisecond) }, "generation.poll_interval"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() = %v, want ValidateErrors", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want an error on %s", err, tc.field)
			}
		})
	}
}

func TestValidateErrors_Error(t *testing.T) {
	errs := ValidateErrors{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}
	if got := errs.Error(); got != "a: bad; b: worse" {
		t.Errorf("Error() = %q", got)
	}
	if got := (ValidateErrors{}).Error(); got != "no validation errors" {
		t.Errorf("empty Error() = %q", got)
	}
}

// =============================================================================
// SAVE
// =============================================================================

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Ollama.DefaultModel = "qwen2.5"
	cfg.Generation.ThreadTTL = D(time.Hour)

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `thread_ttl = "1h0m0s"`) {
		t.Errorf("saved config should write durations as strings:\n%s", data)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.Ollama.DefaultModel != "qwen2.5" {
		t.Errorf("DefaultModel = %q, want qwen2.5", loaded.Ollama.DefaultModel)
	}
	if loaded.Generation.ThreadTTL.Duration != time.Hour {
		t.Errorf("ThreadTTL = %v, want 1h", loaded.Generation.ThreadTTL)
	}
}

func TestLogConfig_LogPath(t *testing.T) {
	if got, _ := (LogConfig{File: "/var/log/x.log"}).LogPath(); got != "/var/log/x.log" {
		t.Errorf("LogPath() = %q, want explicit file", got)
	}
	got, err := (LogConfig{}).LogPath()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	if !strings.HasSuffix(got, filepath.Join(".ollama-chat", "logs", "ollama-chat.log")) {
		t.Errorf("LogPath() = %q", got)
	}
}
