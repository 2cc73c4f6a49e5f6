// Package build compiles a webc project directory into static files:
// one HTML file per page, theme.css, webcore.js and a page index.
package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sambeau/webcore/config"
	"github.com/sambeau/webcore/pkg/webc/ast"
	"github.com/sambeau/webcore/pkg/webc/codegen"
	"github.com/sambeau/webcore/pkg/webc/cssproc"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
	"github.com/sambeau/webcore/pkg/webc/formatter"
	"github.com/sambeau/webcore/pkg/webc/theme"
)

// Fixed artifact names in the output directory.
const (
	StylesheetFile = "theme.css"
	RuntimeFile    = "webcore.js"
	IndexFile      = "index.html"
	AltIndexFile   = "pages.html"
)

// Page is one generated HTML file.
type Page struct {
	Name     string // page or component name
	File     string // path relative to dist
	Handlers int
}

// Result describes a finished build.
type Result struct {
	Pages       []Page
	IndexFile   string
	Routes      map[string]string // URL path -> file relative to dist
	Handlers    int
	Files       []string // every artifact written, relative to dist
	Warnings    []string
	Fingerprint string
	Duration    time.Duration
}

// Builder runs builds for one project configuration.
type Builder struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer

	// Pretty re-indents generated pages.
	Pretty bool
}

// New creates a Builder. Progress goes to stdout, warnings and errors to stderr.
func New(cfg *config.Config, stdout, stderr io.Writer) *Builder {
	return &Builder{cfg: cfg, stdout: stdout, stderr: stderr}
}

// artifact is a file to write into dist.
type artifact struct {
	path string
	data []byte
}

// Build compiles the project. Everything is generated in memory first, so
// a failed build leaves the previous output untouched.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	doc, warnings, err := LoadDocument(b.cfg.Paths.Src)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		b.logWarn("%s", w)
	}

	res := &Result{Warnings: warnings, Routes: map[string]string{}}
	var artifacts []artifact

	opts := codegen.Options{
		Lang:        b.cfg.App.Lang,
		Title:       b.cfg.App.Title,
		HeadScripts: b.cfg.Scripts.Preload,
	}
	var handlers []codegen.HandlerMapping

	for _, p := range pagesToGenerate(doc) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !filepath.IsLocal(filepath.FromSlash(p.file)) {
			return nil, writeError(p.file, fmt.Errorf("page %q is outside the output directory", p.page.Name))
		}
		b.logDebug("generating %s", p.file)

		gdoc := doc
		if p.synthesized && codegen.FindLayout(doc) == nil {
			gdoc = withDefaultLayout(doc)
		}
		out, err := codegen.GeneratePage(gdoc, p.page, opts)
		if err != nil {
			return nil, err
		}
		opts.HandlerSeed = out.LastHandlerID
		handlers = append(handlers, out.Handlers...)

		html := out.HTML
		if b.Pretty {
			if html, err = formatter.FormatHTML(html); err != nil {
				return nil, fmt.Errorf("formatting %s: %w", p.file, err)
			}
		}
		artifacts = append(artifacts, artifact{p.file, []byte(html)})
		res.Pages = append(res.Pages, Page{Name: p.page.Name, File: p.file, Handlers: len(out.Handlers)})
	}
	res.Handlers = len(handlers)

	css, err := b.stylesheet(doc)
	if err != nil {
		return nil, err
	}
	artifacts = append(artifacts, artifact{StylesheetFile, []byte(css)})

	components := componentList(doc)
	js := codegen.RuntimeJS(handlers, codegen.NewExprCompiler(doc.StateNames()), components)
	artifacts = append(artifacts, artifact{RuntimeFile, []byte(js)})

	index, err := b.index(ctx, res.Pages)
	if err != nil {
		return nil, err
	}
	res.IndexFile = indexFileFor(res.Pages)
	artifacts = append(artifacts, artifact{res.IndexFile, []byte(index)})

	if doc.App != nil {
		res.Routes = b.routes(doc.App.Routes, res)
	}

	if err := b.write(artifacts); err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		res.Files = append(res.Files, a.path)
	}
	sort.Strings(res.Files)

	res.Fingerprint, err = fingerprint(artifacts)
	if err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)

	b.logInfo("built %d page(s), %d handler(s) into %s in %s",
		len(res.Pages), res.Handlers, b.cfg.Paths.Dist, res.Duration.Round(time.Millisecond))
	return res, nil
}

type pageJob struct {
	page        *ast.Page
	file        string
	synthesized bool
}

// pagesToGenerate lists pages in name order, then components named *Page
// in name order. A project with neither gets the default index page.
func pagesToGenerate(doc *ast.Document) []pageJob {
	var jobs []pageJob
	for _, name := range doc.PageNames() {
		jobs = append(jobs, pageJob{page: doc.Pages[name], file: PageFile(name)})
	}
	for _, name := range doc.ComponentNames() {
		c := doc.Components[name]
		if !c.IsPage() {
			continue
		}
		jobs = append(jobs, pageJob{page: &ast.Page{Name: c.Name, Content: c.View}, file: PageFile(c.Name)})
	}
	if len(jobs) == 0 {
		p := codegen.DefaultPage()
		jobs = append(jobs, pageJob{page: p, file: PageFile(p.Name), synthesized: true})
	}
	return jobs
}

// PageFile returns the output file for a page name: a leading slash is
// dropped and the root becomes index.html.
func PageFile(name string) string {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		name = "index"
	}
	return filepath.ToSlash(name) + ".html"
}

func withDefaultLayout(doc *ast.Document) *ast.Document {
	cp := *doc
	cp.Layouts = map[string]*ast.Layout{"default": codegen.DefaultLayout()}
	return &cp
}

func componentList(doc *ast.Document) []*ast.Component {
	out := make([]*ast.Component, 0, len(doc.Components))
	for _, name := range doc.ComponentNames() {
		out = append(out, doc.Components[name])
	}
	return out
}

// stylesheet renders theme variables plus component styles, minified in
// production and formatted otherwise.
func (b *Builder) stylesheet(doc *ast.Document) (string, error) {
	themeName := ""
	if doc.App != nil {
		themeName = doc.App.Theme
	}

	th := theme.Empty()
	if path := theme.Find(b.cfg.BaseDir, b.cfg.Paths.Theme, themeName); path != "" {
		loaded, err := theme.Load(path)
		if err != nil {
			return "", err
		}
		th = loaded
		b.logDebug("theme %s", relPath(b.cfg.BaseDir, path))
	} else if b.cfg.Paths.Theme != "" {
		b.logWarn("theme file %s not found, using an empty theme", b.cfg.Paths.Theme)
	}

	css := codegen.ThemeCSS(th) + codegen.ComponentCSS(componentList(doc))
	if b.cfg.App.Production() {
		return cssproc.Minify(css, b.cfg.CSS.Targets)
	}
	return cssproc.Format(css)
}

func indexFileFor(pages []Page) string {
	for _, p := range pages {
		if p.File == IndexFile {
			return AltIndexFile
		}
	}
	return IndexFile
}

func (b *Builder) index(ctx context.Context, pages []Page) (string, error) {
	links := make([]codegen.PageLink, 0, len(pages))
	for _, p := range pages {
		links = append(links, codegen.PageLink{Href: p.File, Label: p.Name})
	}
	return codegen.RenderIndex(ctx, b.cfg.App.Lang, links)
}

// routes maps app routes to generated files. Routes naming a component
// that produced no page are dropped with a warning.
func (b *Builder) routes(appRoutes map[string]string, res *Result) map[string]string {
	files := map[string]string{}
	for _, p := range res.Pages {
		files[p.Name] = p.File
	}

	out := map[string]string{}
	paths := make([]string, 0, len(appRoutes))
	for p := range appRoutes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, path := range paths {
		target := appRoutes[path]
		file, ok := files[target]
		if !ok {
			w := fmt.Sprintf("route %s: %s is not a generated page", path, target)
			res.Warnings = append(res.Warnings, w)
			b.logWarn("%s", w)
			continue
		}
		out[path] = file
	}
	return out
}

// write replaces dist with public/ plus the generated artifacts.
func (b *Builder) write(artifacts []artifact) error {
	dist := b.cfg.Paths.Dist
	if err := os.RemoveAll(dist); err != nil {
		return writeError(dist, err)
	}
	if err := os.MkdirAll(dist, 0755); err != nil {
		return writeError(dist, err)
	}

	if b.cfg.Paths.Public != "" {
		if err := CopyDir(b.cfg.Paths.Public, dist); err != nil {
			return err
		}
	}

	for _, a := range artifacts {
		path := filepath.Join(dist, filepath.FromSlash(a.path))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return writeError(path, err)
		}
		if err := os.WriteFile(path, a.data, 0644); err != nil {
			return writeError(path, err)
		}
	}
	return nil
}

func writeError(path string, err error) error {
	return webcerrors.New(webcerrors.CodeWriteFailed, map[string]any{"Path": path, "GoError": err.Error()})
}

func (b *Builder) logDebug(format string, args ...interface{}) {
	if b.cfg.Logging.Level == "debug" {
		fmt.Fprintf(b.stdout, "[DEBUG] "+format+"\n", args...)
	}
}

func (b *Builder) logInfo(format string, args ...interface{}) {
	if b.cfg.Logging.Level == "debug" || b.cfg.Logging.Level == "info" {
		fmt.Fprintf(b.stdout, "[INFO] "+format+"\n", args...)
	}
}

func (b *Builder) logWarn(format string, args ...interface{}) {
	if b.cfg.Logging.Level != "error" {
		fmt.Fprintf(b.stderr, "[WARN] "+format+"\n", args...)
	}
}
