// Package cssproc post-processes generated stylesheets: minified for
// production builds and re-indented for development builds.
package cssproc

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/parse/v2"
	pcss "github.com/tdewolff/parse/v2/css"

	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// Targets are the oldest browser major versions a stylesheet must work in.
// Zero means no constraint.
type Targets struct {
	Chrome  int `yaml:"chrome" toml:"chrome"`
	Firefox int `yaml:"firefox" toml:"firefox"`
	Safari  int `yaml:"safari" toml:"safari"`
}

// First versions with the CSS3 syntax the minifier may emit.
var css3Since = Targets{Chrome: 26, Firefox: 16, Safari: 7}

// NeedsCSS2 reports whether any target predates CSS3 support.
func (t Targets) NeedsCSS2() bool {
	older := func(v, since int) bool { return v > 0 && v < since }
	return older(t.Chrome, css3Since.Chrome) ||
		older(t.Firefox, css3Since.Firefox) ||
		older(t.Safari, css3Since.Safari)
}

// Minify returns src minified for the given targets.
func Minify(src string, targets Targets) (string, error) {
	m := minify.New()
	m.Add("text/css", &css.Minifier{KeepCSS2: targets.NeedsCSS2()})
	out, err := m.String("text/css", src)
	if err != nil {
		return "", webcerrors.New(webcerrors.CodeCSSFailed, map[string]any{"GoError": err.Error()})
	}
	return out, nil
}

// Format re-prints src with one declaration per line and two-space
// indentation. Comments are kept.
func Format(src string) (string, error) {
	p := pcss.NewParser(parse.NewInput(strings.NewReader(src)), false)
	var b bytes.Buffer
	depth := 0
	var selectors []string
	indent := func() {
		for i := 0; i < depth; i++ {
			b.WriteString("  ")
		}
	}

	for {
		gt, _, data := p.Next()
		switch gt {
		case pcss.ErrorGrammar:
			if p.Err() == io.EOF {
				return b.String(), nil
			}
			return "", webcerrors.New(webcerrors.CodeCSSFailed, map[string]any{"GoError": p.Err().Error()})
		case pcss.CommentGrammar:
			indent()
			b.Write(data)
			b.WriteByte('\n')
		case pcss.AtRuleGrammar:
			indent()
			b.Write(data)
			if v := values(p.Values()); v != "" {
				b.WriteString(" " + v)
			}
			b.WriteString(";\n")
		case pcss.BeginAtRuleGrammar:
			indent()
			b.Write(data)
			if v := values(p.Values()); v != "" {
				b.WriteString(" " + v)
			}
			b.WriteString(" {\n")
			depth++
		case pcss.BeginRulesetGrammar:
			indent()
			selectors = append(selectors, values(p.Values()))
			b.WriteString(strings.Join(selectors, ", "))
			b.WriteString(" {\n")
			selectors = selectors[:0]
			depth++
		case pcss.EndAtRuleGrammar, pcss.EndRulesetGrammar:
			if depth > 0 {
				depth--
			}
			indent()
			b.WriteString("}\n")
		case pcss.DeclarationGrammar, pcss.CustomPropertyGrammar:
			indent()
			b.Write(data)
			b.WriteString(": ")
			b.WriteString(values(p.Values()))
			b.WriteString(";\n")
		case pcss.QualifiedRuleGrammar:
			// all but the last selector of a list
			selectors = append(selectors, values(p.Values()))
		}
	}
}

// values joins tokens, collapsing whitespace runs to one space.
func values(toks []pcss.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range toks {
		if t.TokenType == pcss.WhitespaceToken {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.Write(t.Data)
	}
	return strings.TrimSpace(sb.String())
}
