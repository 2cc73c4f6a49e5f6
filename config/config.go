// Package config holds the webc project configuration (webc.yaml).
package config

import (
	"fmt"

	"github.com/sambeau/webcore/pkg/webc/cssproc"
)

// Config represents a complete webc project configuration
type Config struct {
	BaseDir string        `yaml:"-" toml:"-"` // Directory containing the config file (or the project dir), for resolving relative paths
	App     AppConfig     `yaml:"app" toml:"app"`
	Paths   PathsConfig   `yaml:"paths" toml:"paths"`
	CSS     CSSConfig     `yaml:"css" toml:"css"`
	Scripts ScriptsConfig `yaml:"scripts" toml:"scripts"`
	Dev     DevConfig     `yaml:"dev" toml:"dev"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// AppConfig holds settings that end up in every generated page
type AppConfig struct {
	Title string `yaml:"title" toml:"title"` // <title> of generated pages
	Lang  string `yaml:"lang" toml:"lang"`   // <html lang>, a BCP 47 tag (default: "fr")
	Mode  string `yaml:"mode" toml:"mode"`   // "dev" or "prod"; prod minifies CSS
}

// Production reports whether the app builds in production mode.
func (a AppConfig) Production() bool {
	return a.Mode == ModeProd
}

// Build modes
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// PathsConfig holds project directories
type PathsConfig struct {
	Src    string `yaml:"src" toml:"src"`       // .webc sources (default: "src")
	Dist   string `yaml:"dist" toml:"dist"`     // build output, cleaned on every build (default: "dist")
	Public string `yaml:"public" toml:"public"` // copied verbatim into dist (default: "public")
	Theme  string `yaml:"theme" toml:"theme"`   // explicit theme file (default: search theme.yaml, theme.yml, theme.toml)
}

// CSSConfig holds stylesheet post-processing settings
type CSSConfig struct {
	Targets cssproc.Targets `yaml:"targets" toml:"targets"` // oldest supported browser versions
}

// ScriptsConfig holds extra page scripts
type ScriptsConfig struct {
	Preload StringOrSlice `yaml:"preload" toml:"preload"` // script URLs added to <head> with defer
}

// DevConfig holds dev server settings (only used by `webc dev`)
type DevConfig struct {
	Host           string            `yaml:"host" toml:"host"`                         // bind host (default: "localhost")
	Port           int               `yaml:"port" toml:"port"`                         // first port tried (default: 3000)
	PortTries      int               `yaml:"port_tries" toml:"port_tries"`             // consecutive ports tried when busy (default: 50)
	Open           bool              `yaml:"open" toml:"open"`                         // open a browser once listening
	LiveReload     bool              `yaml:"livereload" toml:"livereload"`             // inject the live reload script (default: true)
	BuildLog       string            `yaml:"build_log" toml:"build_log"`               // SQLite build history (default: ".webc/builds.db", "" disables)
	LogMaxSize     string            `yaml:"log_max_size" toml:"log_max_size"`         // Maximum build log size (default: "10MB")
	LogTruncatePct int               `yaml:"log_truncate_pct" toml:"log_truncate_pct"` // Percentage to delete when truncating (default: 25)
	Compression    CompressionConfig `yaml:"compression" toml:"compression"`
}

// Addr returns host:port for the given port.
func (d DevConfig) Addr(port int) string {
	return fmt.Sprintf("%s:%d", d.Host, port)
}

// CompressionConfig holds HTTP response compression settings
type CompressionConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`   // Enable gzip compression (default: true)
	Level   string `yaml:"level" toml:"level"`       // "fastest", "default", "best", "none" (default: "default")
	MinSize int    `yaml:"min_size" toml:"min_size"` // Minimum response size to compress in bytes (default: 1024)
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json or text (request log)
	Quiet  bool   `yaml:"quiet" toml:"quiet"`   // suppress request logs
}

// StringOrSlice supports fields that can be either a string or a list of strings
type StringOrSlice []string

// UnmarshalYAML implements yaml.Unmarshaler to handle both string and []string
func (s *StringOrSlice) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var slice []string
	if err := unmarshal(&slice); err != nil {
		return err
	}
	*s = slice
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler with the same rules as UnmarshalYAML
func (s *StringOrSlice) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		*s = []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, str)
		}
		*s = out
	default:
		return fmt.Errorf("expected string or array of strings, got %T", v)
	}
	return nil
}

// Contains checks if the slice contains the given string
func (s StringOrSlice) Contains(str string) bool {
	for _, v := range s {
		if v == str {
			return true
		}
	}
	return false
}

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Title: "WebCore App",
			Lang:  "fr",
			Mode:  ModeDev,
		},
		Paths: PathsConfig{
			Src:    "src",
			Dist:   "dist",
			Public: "public",
		},
		Dev: DevConfig{
			Host:           "localhost",
			Port:           3000,
			PortTries:      50,
			LiveReload:     true,
			BuildLog:       ".webc/builds.db",
			LogMaxSize:     "10MB",
			LogTruncatePct: 25,
			Compression: CompressionConfig{
				Enabled: true,
				Level:   "default",
				MinSize: 1024,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
