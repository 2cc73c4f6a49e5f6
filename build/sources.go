package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sambeau/webcore/pkg/webc/ast"
	"github.com/sambeau/webcore/pkg/webc/parser"
)

// Project source layout under paths.src.
const (
	AppFile       = "app.webc"
	LayoutsDir    = "layouts"
	ComponentsDir = "components"
	PagesDir      = "pages"
	SourceExt     = ".webc"
)

// sourceDir is one directory of .webc files and the definitions taken
// from each of its files.
type sourceDir struct {
	name string
	take func(parsed *ast.Document) *ast.Document
}

var sourceDirs = []sourceDir{
	{LayoutsDir, func(d *ast.Document) *ast.Document {
		return &ast.Document{Layouts: d.Layouts}
	}},
	{ComponentsDir, func(d *ast.Document) *ast.Document {
		return &ast.Document{Components: d.Components}
	}},
	{PagesDir, func(d *ast.Document) *ast.Document {
		return &ast.Document{Pages: d.Pages, Components: d.Components}
	}},
}

// LoadDocument parses a project's sources into one document. app.webc
// contributes only its app block, layouts/ only layouts, components/ only
// components and pages/ pages plus components. Files load in name order
// and later definitions replace earlier ones; each replacement is
// reported as a warning.
func LoadDocument(srcDir string) (*ast.Document, []string, error) {
	doc := ast.NewDocument()
	var warnings []string

	appPath := filepath.Join(srcDir, AppFile)
	if _, err := os.Stat(appPath); err == nil {
		parsed, err := parser.ReadFile(appPath)
		if err != nil {
			return nil, nil, err
		}
		doc.App = parsed.App
	}

	for _, sd := range sourceDirs {
		dir := filepath.Join(srcDir, sd.name)
		files, err := webcFiles(dir)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", dir, err)
		}
		for _, path := range files {
			parsed, err := parser.ReadFile(path)
			if err != nil {
				return nil, nil, err
			}
			for _, r := range doc.Merge(sd.take(parsed)) {
				warnings = append(warnings, fmt.Sprintf("%s redefined in %s", r, relPath(srcDir, path)))
			}
		}
	}

	return doc, warnings, nil
}

// webcFiles returns the .webc files directly inside dir, sorted. A missing
// directory has no files.
func webcFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), SourceExt) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil {
		return rel
	}
	return path
}
