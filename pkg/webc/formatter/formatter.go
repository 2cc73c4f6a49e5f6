// Package formatter re-indents generated HTML for reading.
package formatter

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// IndentString is one level of indentation.
const IndentString = "  "

type token struct {
	typ  html.TokenType
	name string
	tag  atom.Atom
	raw  string
}

var void = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

// FormatHTML puts every tag on its own line, indented by nesting depth.
// An element holding only text stays on one line. Text inside script,
// style and pre is left untouched.
func FormatHTML(src string) (string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	depth := 0
	line := func(s string) {
		sb.WriteString(strings.Repeat(IndentString, depth))
		sb.WriteString(s)
		sb.WriteByte('\n')
	}

	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.typ {
		case html.StartTagToken:
			// <p>text</p> and <b></b> stay on one line
			if i+2 < len(toks) && toks[i+1].typ == html.TextToken && isEnd(toks[i+2], t.name) {
				text := toks[i+1].raw
				if !preformatted(t.tag) {
					text = strings.TrimSpace(text)
				}
				line(t.raw + text + toks[i+2].raw)
				i += 2
				continue
			}
			if i+1 < len(toks) && isEnd(toks[i+1], t.name) {
				line(t.raw + toks[i+1].raw)
				i++
				continue
			}
			line(t.raw)
			if !void[t.tag] {
				depth++
			}
		case html.EndTagToken:
			if !void[t.tag] && depth > 0 {
				depth--
			}
			line(t.raw)
		case html.TextToken:
			if text := strings.TrimSpace(t.raw); text != "" {
				line(text)
			}
		default:
			line(t.raw)
		}
	}
	return sb.String(), nil
}

func tokenize(src string) ([]token, error) {
	z := html.NewTokenizer(strings.NewReader(src))
	var toks []token
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				return toks, nil
			}
			return nil, z.Err()
		}
		raw := string(z.Raw())
		name, _ := z.TagName()
		toks = append(toks, token{typ: tt, name: string(name), tag: atom.Lookup(name), raw: raw})
	}
}

func isEnd(t token, name string) bool {
	return t.typ == html.EndTagToken && t.name == name
}

func preformatted(tag atom.Atom) bool {
	return tag == atom.Script || tag == atom.Style || tag == atom.Pre || tag == atom.Textarea
}
