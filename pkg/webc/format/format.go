// Package format pretty-prints .webc source.
//
// Formatting works on the parsed Document, so the output is canonical: the
// app block first, then layouts, components and pages, each group in name
// order, indented with two spaces. Re-parsing the output yields the same
// Document.
package format

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sambeau/webcore/pkg/webc/ast"
	"github.com/sambeau/webcore/pkg/webc/parser"
)

// Source parses src and returns it formatted.
func Source(src string) (string, error) {
	doc, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	return Document(doc), nil
}

// Document prints doc as .webc source.
func Document(doc *ast.Document) string {
	p := NewPrinter()
	first := true
	sep := func() {
		if !first {
			p.blank()
		}
		first = false
	}

	if doc.App != nil {
		sep()
		p.app(doc.App)
	}
	for _, name := range doc.LayoutNames() {
		sep()
		l := doc.Layouts[name]
		p.open("layout " + l.Name)
		p.elements(l.Content)
		p.close()
	}
	for _, name := range doc.ComponentNames() {
		sep()
		p.component(doc.Components[name])
	}
	for _, name := range doc.PageNames() {
		sep()
		pg := doc.Pages[name]
		p.open("page " + quote(pg.Name))
		p.elements(pg.Content)
		p.close()
	}
	return p.String()
}

func (p *Printer) app(app *ast.App) {
	p.open("app " + app.Name)
	if app.Theme != "" {
		p.line("theme: " + quote(app.Theme))
	}
	if app.Layout != "" {
		p.line("layout: " + app.Layout)
	}
	if len(app.Routes) > 0 {
		paths := make([]string, 0, len(app.Routes))
		for path := range app.Routes {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		p.open("routes")
		for _, path := range paths {
			p.line(quote(path) + ": " + app.Routes[path])
		}
		p.close()
	}
	p.close()
}

func (p *Printer) component(c *ast.Component) {
	p.open("component " + c.Name)

	if len(c.Props) > 0 {
		p.open("props")
		for _, prop := range c.Props {
			if prop.Type != "" {
				p.line(prop.Name + ": " + prop.Type)
			} else {
				p.line(prop.Name)
			}
		}
		p.close()
	}

	if len(c.State) > 0 {
		p.open("state")
		for _, sv := range c.State {
			s := sv.Name + ": " + sv.Type
			if sv.Default != nil {
				s += " = " + literal(*sv.Default)
			}
			p.line(s)
		}
		p.close()
	}

	if len(c.View) > 0 {
		p.open("view")
		p.elements(c.View)
		p.close()
	}

	if len(c.Style) > 0 {
		p.open("style")
		for _, rule := range c.Style {
			p.open(rule.Selector)
			for _, prop := range rule.Properties {
				p.line(prop.Name + ": " + quote(prop.Value))
			}
			p.close()
		}
		p.close()
	}

	p.close()
}

func (p *Printer) elements(els []ast.Element) {
	for i, el := range els {
		p.element(el, i == len(els)-1)
	}
}

// element prints one element. last reports whether it ends its block: an
// element without content that is followed by a sibling needs an explicit
// empty block, or the sibling's name would be read as an attribute.
func (p *Printer) element(el ast.Element, last bool) {
	switch e := el.(type) {
	case *ast.Text:
		p.line(quote(e.Value))
	case *ast.Interpolation:
		p.line(quote("{" + e.Expr + "}"))
	case *ast.Slot:
		// always named, so a following element is not taken as the name
		p.line("slot " + e.Name)
	case *ast.Tag:
		p.named(e.Name, e.Attributes, e.Children, last)
	case *ast.ComponentRef:
		p.named(e.Name, e.Attributes, e.Children, last)
	}
}

func (p *Printer) named(name string, attrs []ast.Attribute, children []ast.Element, last bool) {
	if text, ok := inlineText(children); ok {
		p.line(head(name, attrs) + " " + quote(text))
		return
	}
	if len(children) == 0 && last {
		p.line(head(name, attrs))
		return
	}

	// `name {` right after a bare attribute would start a sibling
	attrs = orderAttributes(attrs)
	trailingBool := len(attrs) > 0 && attrs[len(attrs)-1].Value.Kind == ast.BooleanValue
	h := head(name, attrs)
	switch {
	case len(children) == 0 && trailingBool:
		p.line(h + ` ""`)
	case len(children) == 0:
		p.line(h + " {}")
	default:
		p.open(h)
		p.elements(children)
		p.close()
	}
}

func head(name string, attrs []ast.Attribute) string {
	if a := attributes(attrs); a != "" {
		return name + " " + a
	}
	return name
}

// orderAttributes moves boolean attributes ahead of valued ones when that
// keeps a valued attribute last.
func orderAttributes(attrs []ast.Attribute) []ast.Attribute {
	if len(attrs) == 0 || attrs[len(attrs)-1].Value.Kind != ast.BooleanValue {
		return attrs
	}
	out := make([]ast.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Value.Kind == ast.BooleanValue {
			out = append(out, a)
		}
	}
	for _, a := range attrs {
		if a.Value.Kind != ast.BooleanValue {
			out = append(out, a)
		}
	}
	return out
}

func attributes(attrs []ast.Attribute) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		switch a.Value.Kind {
		case ast.StringValue:
			parts = append(parts, a.Name+"="+quote(a.Value.Str))
		case ast.ExpressionValue:
			parts = append(parts, a.Name+"={"+a.Value.Str+"}")
		case ast.BooleanValue:
			if a.Value.Bool {
				parts = append(parts, a.Name)
			}
		}
	}
	return strings.Join(parts, " ")
}

// inlineText joins children made only of text and interpolations into one
// string literal, which the parser splits back into the same elements.
func inlineText(children []ast.Element) (string, bool) {
	if len(children) == 0 {
		return "", false
	}
	var sb strings.Builder
	for _, c := range children {
		switch e := c.(type) {
		case *ast.Text:
			if strings.ContainsAny(e.Value, "{}") {
				return "", false
			}
			sb.WriteString(e.Value)
		case *ast.Interpolation:
			sb.WriteString("{" + e.Expr + "}")
		default:
			return "", false
		}
	}
	return sb.String(), true
}

func quote(s string) string {
	return `"` + s + `"`
}

// literal prints a state default: numbers bare, anything else quoted.
func literal(s string) string {
	if _, err := strconv.ParseFloat(s, 64); err == nil && s != "" && s[0] >= '0' && s[0] <= '9' {
		return s
	}
	return quote(s)
}
