package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sambeau/webcore/pkg/webc/cssproc"
)

// DefaultFiles are the config file names searched in the project directory, in order.
var DefaultFiles = []string{"webc.yaml", "webc.yml", "webc.toml"}

// Load reads the configuration for the project in dir with ENV interpolation.
// If configPath is empty, it searches default locations. A project without a
// config file gets Defaults() rooted at dir.
func Load(dir, configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(dir, configPath, getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the resolved path.
// The path is "" when no config file was found.
func LoadWithPath(dir, configPath string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(dir, configPath, getenv)
	if err != nil {
		return nil, "", err
	}

	cfg := Defaults()
	if path == "" {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve project dir: %w", err)
		}
		cfg.BaseDir = absDir
		resolvePaths(cfg)
		if err := validateBasic(cfg); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	// Get absolute path and directory for resolving relative paths
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	// Interpolate environment variables
	data = interpolateEnv(data, getenv)

	if err := decode(absPath, data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.BaseDir = filepath.Dir(absPath)
	resolvePaths(cfg)

	if err := validateBasic(cfg); err != nil {
		return nil, "", err
	}

	return cfg, absPath, nil
}

// decode picks YAML or TOML by file extension.
func decode(path string, data []byte, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(string(data), cfg)
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths makes relative paths absolute against BaseDir and
// normalises the language tag.
func resolvePaths(cfg *Config) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.BaseDir, p)
	}
	cfg.Paths.Src = abs(cfg.Paths.Src)
	cfg.Paths.Dist = abs(cfg.Paths.Dist)
	cfg.Paths.Public = abs(cfg.Paths.Public)
	cfg.Paths.Theme = abs(cfg.Paths.Theme)
	cfg.Dev.BuildLog = abs(cfg.Dev.BuildLog)

	switch strings.ToLower(cfg.App.Mode) {
	case "production":
		cfg.App.Mode = ModeProd
	case "development", "":
		cfg.App.Mode = ModeDev
	default:
		cfg.App.Mode = strings.ToLower(cfg.App.Mode)
	}

	if tag, err := language.Parse(cfg.App.Lang); err == nil {
		cfg.App.Lang = tag.String()
	}
}

// Validate performs full configuration validation.
// Call this after applying CLI overrides (like --port).
func Validate(cfg *Config) error {
	return validateBasic(cfg)
}

// Warnings returns non-fatal configuration issues that should be reported to the user.
func Warnings(cfg *Config) []string {
	var warnings []string

	if !cfg.App.Production() && cfg.CSS.Targets != (cssproc.Targets{}) {
		warnings = append(warnings, "css.targets only applies to production builds (app.mode: prod)")
	}
	if cfg.Dev.Open && isAllInterfaces(cfg.Dev.Host) {
		warnings = append(warnings, "dev.open with an all-interfaces host opens http://localhost instead")
	}

	return warnings
}

func isAllInterfaces(host string) bool {
	return host == "" || host == "0.0.0.0" || host == "::"
}

// resolveConfigPath finds the config file to use, or "" when there is none.
// Search order: explicit path > WEBC_CONFIG env > webc.yaml > webc.yml > webc.toml
func resolveConfigPath(dir, explicit string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	// Try WEBC_CONFIG environment variable
	if envPath := getenv("WEBC_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("WEBC_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	for _, name := range DefaultFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := string(parts[1])
		value := getenv(varName)

		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}

		return []byte(value)
	})
}

// validateBasic checks the configuration for errors.
func validateBasic(cfg *Config) error {
	var errs []string

	if cfg.App.Mode != ModeDev && cfg.App.Mode != ModeProd {
		errs = append(errs, fmt.Sprintf("invalid app.mode: %s (must be dev or prod)", cfg.App.Mode))
	}
	if _, err := language.Parse(cfg.App.Lang); err != nil {
		errs = append(errs, fmt.Sprintf("invalid app.lang: %q (%v)", cfg.App.Lang, err))
	}

	// Paths validation
	if cfg.Paths.Src == "" {
		errs = append(errs, "paths.src is required")
	}
	if cfg.Paths.Dist == "" {
		errs = append(errs, "paths.dist is required")
	} else {
		// dist is wiped on every build
		for _, other := range []string{cfg.BaseDir, cfg.Paths.Src, cfg.Paths.Public} {
			if other != "" && filepath.Clean(cfg.Paths.Dist) == filepath.Clean(other) {
				errs = append(errs, fmt.Sprintf("paths.dist must not be %s", other))
			}
		}
	}

	// Dev server validation
	if cfg.Dev.Port < 1 || cfg.Dev.Port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port: %d (must be 1-65535)", cfg.Dev.Port))
	}
	if cfg.Dev.PortTries < 1 {
		errs = append(errs, fmt.Sprintf("invalid dev.port_tries: %d (must be at least 1)", cfg.Dev.PortTries))
	}
	if _, err := ParseSize(cfg.Dev.LogMaxSize); err != nil {
		errs = append(errs, fmt.Sprintf("invalid dev.log_max_size: %v", err))
	}
	if cfg.Dev.LogTruncatePct < 1 || cfg.Dev.LogTruncatePct > 100 {
		errs = append(errs, fmt.Sprintf("invalid dev.log_truncate_pct: %d (must be 1-100)", cfg.Dev.LogTruncatePct))
	}
	validCompression := map[string]bool{"fastest": true, "default": true, "best": true, "none": true}
	if !validCompression[cfg.Dev.Compression.Level] {
		errs = append(errs, fmt.Sprintf("invalid compression level: %s (must be fastest, default, best, or none)", cfg.Dev.Compression.Level))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be json or text)", cfg.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// ParseSize parses a size string like "10MB", "1GB", "500KB" to bytes.
// Supports: B, KB, MB, GB (case insensitive).
// Returns 0 for empty string.
func ParseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	s = strings.TrimSpace(strings.ToUpper(s))

	// Check suffixes in order of length (longest first) to avoid "B" matching before "MB"
	suffixes := []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1024 * 1024 * 1024},
		{"MB", 1024 * 1024},
		{"KB", 1024},
		{"B", 1},
	}

	for _, sf := range suffixes {
		if strings.HasSuffix(s, sf.suffix) {
			numStr := strings.TrimSpace(strings.TrimSuffix(s, sf.suffix))
			var num int64
			if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
				return 0, fmt.Errorf("invalid size number: %s", numStr)
			}
			return num * sf.mult, nil
		}
	}

	var num int64
	if _, err := fmt.Sscanf(s, "%d", &num); err != nil {
		return 0, fmt.Errorf("invalid size format: %s (use B, KB, MB, or GB suffix)", s)
	}
	return num, nil
}
