package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "TEST_TITLE":
			return "Shop"
		case "TEST_PORT":
			return "9000"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "title: ${TEST_TITLE}", "title: Shop"},
		{"with default (env set)", "title: ${TEST_TITLE:-App}", "title: Shop"},
		{"with default (env not set)", "title: ${UNSET_VAR:-App}", "title: App"},
		{"multiple substitutions", "addr: ${TEST_TITLE}:${TEST_PORT}", "addr: Shop:9000"},
		{"no substitution needed", "static: value", "static: value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := string(interpolateEnv([]byte(tt.input), getenv))
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "webc.yaml"), `
app:
  title: My Site
  lang: en-us
  mode: production

paths:
  dist: build
  theme: design/theme.yaml

scripts:
  preload: https://cdn.example.com/htmx.js

dev:
  port: 8080
  compression:
    level: best

logging:
  level: debug
  format: json
`)

	cfg, path, err := LoadWithPath(dir, "", noEnv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if path != filepath.Join(dir, "webc.yaml") {
		t.Errorf("expected resolved path, got %q", path)
	}
	if cfg.App.Title != "My Site" {
		t.Errorf("expected title 'My Site', got %q", cfg.App.Title)
	}
	if cfg.App.Lang != "en-US" {
		t.Errorf("expected canonical lang 'en-US', got %q", cfg.App.Lang)
	}
	if !cfg.App.Production() {
		t.Errorf("expected production mode, got %q", cfg.App.Mode)
	}
	if cfg.Paths.Dist != filepath.Join(dir, "build") {
		t.Errorf("expected dist resolved against config dir, got %q", cfg.Paths.Dist)
	}
	if cfg.Paths.Src != filepath.Join(dir, "src") {
		t.Errorf("expected default src resolved, got %q", cfg.Paths.Src)
	}
	if cfg.Paths.Theme != filepath.Join(dir, "design", "theme.yaml") {
		t.Errorf("unexpected theme path %q", cfg.Paths.Theme)
	}
	if len(cfg.Scripts.Preload) != 1 {
		t.Errorf("expected one preload script, got %v", cfg.Scripts.Preload)
	}
	if cfg.Dev.Port != 8080 || cfg.Dev.PortTries != 50 {
		t.Errorf("expected port 8080 keeping default tries, got %d/%d", cfg.Dev.Port, cfg.Dev.PortTries)
	}
	if cfg.Dev.Compression.Level != "best" || !cfg.Dev.Compression.Enabled {
		t.Errorf("unexpected compression config %+v", cfg.Dev.Compression)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "webc.toml"), `
[app]
title = "Legacy"
mode = "prod"

[css.targets]
safari = 13
`)

	cfg, err := Load(dir, "", noEnv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Title != "Legacy" || cfg.App.Lang != "fr" || !cfg.App.Production() {
		t.Errorf("unexpected app config %+v", cfg.App)
	}
	if cfg.CSS.Targets.Safari != 13 {
		t.Errorf("expected safari target 13, got %d", cfg.CSS.Targets.Safari)
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := LoadWithPath(dir, "", noEnv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected no config path, got %q", path)
	}
	abs, _ := filepath.Abs(dir)
	if cfg.BaseDir != abs || cfg.Paths.Src != filepath.Join(abs, "src") {
		t.Errorf("defaults should be rooted at the project dir, got %+v", cfg.Paths)
	}
}

func TestLoadWithEnvInterpolation(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "webc.yaml"), `
app:
  title: ${SITE_TITLE:-Fallback}
dev:
  port: ${PORT:-3000}
`)

	getenv := func(key string) string {
		if key == "PORT" {
			return "4000"
		}
		return ""
	}
	cfg, err := Load(dir, "", getenv)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.App.Title != "Fallback" || cfg.Dev.Port != 4000 {
		t.Errorf("expected Fallback/4000, got %q/%d", cfg.App.Title, cfg.Dev.Port)
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()

	if _, err := resolveConfigPath(dir, filepath.Join(dir, "missing.yaml"), noEnv); err == nil {
		t.Error("expected error for missing explicit config")
	}

	getenv := func(key string) string {
		if key == "WEBC_CONFIG" {
			return filepath.Join(dir, "nope.yaml")
		}
		return ""
	}
	if _, err := resolveConfigPath(dir, "", getenv); err == nil || !strings.Contains(err.Error(), "WEBC_CONFIG") {
		t.Errorf("expected WEBC_CONFIG error, got %v", err)
	}

	writeFile(t, filepath.Join(dir, "webc.toml"), "")
	if got, _ := resolveConfigPath(dir, "", noEnv); got != filepath.Join(dir, "webc.toml") {
		t.Errorf("expected webc.toml, got %q", got)
	}
	writeFile(t, filepath.Join(dir, "webc.yaml"), "")
	if got, _ := resolveConfigPath(dir, "", noEnv); got != filepath.Join(dir, "webc.yaml") {
		t.Errorf("expected webc.yaml to win, got %q", got)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.App.Mode = "staging" }, "invalid app.mode"},
		{"bad lang", func(c *Config) { c.App.Lang = "not a tag!" }, "invalid app.lang"},
		{"port too high", func(c *Config) { c.Dev.Port = 70000 }, "invalid port"},
		{"no port tries", func(c *Config) { c.Dev.PortTries = 0 }, "dev.port_tries"},
		{"dist is src", func(c *Config) { c.Paths.Dist = c.Paths.Src }, "paths.dist must not be"},
		{"dist is project", func(c *Config) { c.Paths.Dist = c.BaseDir }, "paths.dist must not be"},
		{"bad size", func(c *Config) { c.Dev.LogMaxSize = "lots" }, "dev.log_max_size"},
		{"bad compression", func(c *Config) { c.Dev.Compression.Level = "max" }, "compression level"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.BaseDir = "/project"
			resolvePaths(cfg)
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidationCollectsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.BaseDir = "/project"
	resolvePaths(cfg)
	cfg.Dev.Port = 0
	cfg.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid port") || !strings.Contains(err.Error(), "invalid log level") {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestWarnings(t *testing.T) {
	cfg := Defaults()
	if w := Warnings(cfg); len(w) != 0 {
		t.Errorf("expected no warnings, got %v", w)
	}

	cfg.CSS.Targets.Chrome = 80
	cfg.Dev.Open = true
	cfg.Dev.Host = "0.0.0.0"
	if w := Warnings(cfg); len(w) != 2 {
		t.Errorf("expected 2 warnings, got %v", w)
	}

	cfg.App.Mode = ModeProd
	if w := Warnings(cfg); len(w) != 1 {
		t.Errorf("expected 1 warning in prod, got %v", w)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"512", 512, false},
		{"10MB", 10 * 1024 * 1024, false},
		{"1gb", 1024 * 1024 * 1024, false},
		{"500 KB", 500 * 1024, false},
		{"lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
