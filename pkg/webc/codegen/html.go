// Package codegen turns a parsed Document into HTML pages, the reactive
// JavaScript runtime and theme CSS.
package codegen

import (
	"fmt"
	"strings"

	"github.com/sambeau/webcore/pkg/webc/ast"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// Layout names tried, in order, when generating a page.
var layoutCandidates = []string{"MainLayout", "default"}

// Options controls the page shell.
type Options struct {
	Lang           string
	Title          string
	StylesheetHref string   // defaults to theme.css
	ScriptHref     string   // defaults to webcore.js
	HeadScripts    []string // extra deferred scripts in <head>

	// HandlerSeed is the last handler number already used. Generation
	// allocates btn(HandlerSeed+1) onwards, so a build can thread the
	// counter across pages.
	HandlerSeed int
}

// HandlerMapping binds a generated element id to an event and its raw
// expression.
type HandlerMapping struct {
	ID         string `msgpack:"id"`
	EventType  string `msgpack:"event"`
	Expression string `msgpack:"expr"`
}

// Result is the output of generating one page.
type Result struct {
	HTML     string
	Handlers []HandlerMapping

	// LastHandlerID is the counter value after generation; pass it as the
	// next page's HandlerSeed.
	LastHandlerID int
}

// Generate renders the named page inside the document's layout.
func Generate(doc *ast.Document, pageName string, opts Options) (*Result, error) {
	page, ok := doc.Pages[pageName]
	if !ok {
		return nil, webcerrors.NewPageNotFound(pageName, doc.PageNames())
	}
	return GeneratePage(doc, page, opts)
}

// GeneratePage renders page, which need not be part of doc, inside the
// document's layout. Components and layouts are still resolved from doc.
func GeneratePage(doc *ast.Document, page *ast.Page, opts Options) (*Result, error) {
	layout := FindLayout(doc)
	if layout == nil {
		return nil, webcerrors.New(webcerrors.CodeNoLayout, nil)
	}

	r := newResolver(doc, opts.HandlerSeed)
	var body strings.Builder
	if err := r.renderLayout(&body, layout.Content, page.Content); err != nil {
		return nil, err
	}

	var sb strings.Builder
	writeShellStart(&sb, opts)
	sb.WriteString(body.String())
	writeShellEnd(&sb, opts)

	return &Result{
		HTML:          sb.String(),
		Handlers:      r.handlers,
		LastHandlerID: r.counter,
	}, nil
}

// Fragment renders content on its own, without a layout or page shell.
// Only HandlerSeed is used from opts.
func Fragment(doc *ast.Document, content []ast.Element, opts Options) (*Result, error) {
	r := newResolver(doc, opts.HandlerSeed)
	var sb strings.Builder
	if err := r.renderAll(&sb, content, slotFill{}); err != nil {
		return nil, err
	}
	return &Result{HTML: sb.String(), Handlers: r.handlers, LastHandlerID: r.counter}, nil
}

// FindLayout returns the layout pages are rendered into, or nil.
func FindLayout(doc *ast.Document) *ast.Layout {
	for _, name := range layoutCandidates {
		if l, ok := doc.Layouts[name]; ok {
			return l
		}
	}
	return nil
}

func writeShellStart(sb *strings.Builder, opts Options) {
	stylesheet := opts.StylesheetHref
	if stylesheet == "" {
		stylesheet = "theme.css"
	}

	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(sb, "<html lang=\"%s\">\n<head>\n", Escape(opts.Lang))
	sb.WriteString("  <meta charset=\"UTF-8\">\n")
	sb.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(sb, "  <title>%s</title>\n", Escape(opts.Title))
	fmt.Fprintf(sb, "  <link rel=\"stylesheet\" href=\"%s\">\n", Escape(stylesheet))
	for _, src := range opts.HeadScripts {
		fmt.Fprintf(sb, "  <script src=\"%s\" defer></script>\n", Escape(src))
	}
	sb.WriteString("</head>\n<body>\n")
}

func writeShellEnd(sb *strings.Builder, opts Options) {
	script := opts.ScriptHref
	if script == "" {
		script = "webcore.js"
	}
	fmt.Fprintf(sb, "  <script src=\"%s\"></script>\n", Escape(script))
	sb.WriteString("</body>\n</html>")
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// Escape escapes the five HTML-significant characters & < > " '.
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// DefaultPage is generated when a project declares no pages at all.
func DefaultPage() *ast.Page {
	return &ast.Page{
		Name: "index",
		Content: []ast.Element{
			&ast.Tag{Name: "h1", Children: []ast.Element{&ast.Text{Value: "Welcome to WebCore"}}},
			&ast.Tag{Name: "p", Children: []ast.Element{&ast.Text{Value: "This is a default page."}}},
		},
	}
}

// DefaultLayout only hosts the page content.
func DefaultLayout() *ast.Layout {
	return &ast.Layout{Name: "default", Content: []ast.Element{&ast.Slot{Name: ContentSlot}}}
}
