package parser

import (
	"errors"
	"fmt"
	"os"

	"github.com/sambeau/webcore/pkg/webc/ast"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
)

// Source is one named .webc input.
type Source struct {
	Name    string
	Content string
}

// ParseFile parses src and attaches name to any error.
func ParseFile(name, src string) (*ast.Document, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, withFile(err, name)
	}
	return doc, nil
}

// ParseFiles parses every source in order and merges the results. Later
// definitions replace earlier ones with the same name. The first failure
// aborts the whole parse.
func ParseFiles(sources []Source) (*ast.Document, error) {
	merged := ast.NewDocument()
	for _, src := range sources {
		doc, err := ParseFile(src.Name, src.Content)
		if err != nil {
			return nil, err
		}
		merged.Merge(doc)
	}
	return merged, nil
}

// ReadFile reads and parses the file at path.
func ReadFile(path string) (*ast.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, webcerrors.New(webcerrors.CodeReadFailed, map[string]any{"Path": path, "GoError": err.Error()})
	}
	return ParseFile(path, string(content))
}

func withFile(err error, name string) error {
	var we *webcerrors.WebcError
	if errors.As(err, &we) {
		return we.WithFile(name)
	}
	return fmt.Errorf("%s: %w", name, err)
}
