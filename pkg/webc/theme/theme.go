// Package theme loads design-token files (colors, fonts, radius and
// breakpoints) used to generate theme.css.
//
// A theme file is YAML or TOML, chosen by extension:
//
//	theme:
//	  name: light
//	  colors:
//	    primary: "#3366ff"
//	  fonts:
//	    body: "Inter, sans-serif"
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// Theme is a named set of token maps.
type Theme struct {
	Name        string            `yaml:"name" toml:"name"`
	Colors      map[string]string `yaml:"colors" toml:"colors"`
	Fonts       map[string]string `yaml:"fonts" toml:"fonts"`
	Radius      map[string]string `yaml:"radius" toml:"radius"`
	Breakpoints map[string]string `yaml:"breakpoints" toml:"breakpoints"`
}

type themeFile struct {
	Theme Theme `yaml:"theme" toml:"theme"`
}

// DefaultFiles are the theme file names looked up in a project root.
var DefaultFiles = []string{"theme.yaml", "theme.yml", "theme.toml"}

// Empty returns a theme with no tokens.
func Empty() *Theme {
	return &Theme{
		Colors:      map[string]string{},
		Fonts:       map[string]string{},
		Radius:      map[string]string{},
		Breakpoints: map[string]string{},
	}
}

// Parse decodes theme data. format is "yaml" or "toml".
func Parse(data []byte, format string) (*Theme, error) {
	var f themeFile
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
	case "toml":
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported theme format %q", format)
	}

	t := f.Theme
	if t.Colors == nil {
		t.Colors = map[string]string{}
	}
	if t.Fonts == nil {
		t.Fonts = map[string]string{}
	}
	if t.Radius == nil {
		t.Radius = map[string]string{}
	}
	if t.Breakpoints == nil {
		t.Breakpoints = map[string]string{}
	}
	return &t, nil
}

// Load reads a theme file.
func Load(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, webcerrors.New(webcerrors.CodeReadFailed, map[string]any{"Path": path, "GoError": err.Error()})
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	t, err := Parse(data, format)
	if err != nil {
		return nil, webcerrors.New(webcerrors.CodeThemeInvalid, map[string]any{"Path": path, "GoError": err.Error()})
	}
	return t, nil
}

// Find returns the theme file to use for a project, or "" when there is
// none. A configured path wins; otherwise a named theme looks in
// themes/<name>.{yaml,yml,toml}, and finally DefaultFiles are tried.
func Find(baseDir, configured, name string) string {
	if configured != "" {
		p := configured
		if !filepath.IsAbs(p) {
			p = filepath.Join(baseDir, p)
		}
		if fileExists(p) {
			return p
		}
	}
	if name != "" {
		for _, ext := range []string{".yaml", ".yml", ".toml"} {
			p := filepath.Join(baseDir, "themes", name+ext)
			if fileExists(p) {
				return p
			}
		}
	}
	for _, f := range DefaultFiles {
		p := filepath.Join(baseDir, f)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
