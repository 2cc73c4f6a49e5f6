// Package repl implements `webc repl`, an interactive session that compiles
// .webc snippets and shows the generated HTML and event handlers.
//
// Definitions (app, layout, page, component) accumulate across inputs, so a
// component defined on one line can be used on the next. Anything else is
// rendered immediately.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/peterh/liner"

	"github.com/sambeau/webcore/pkg/webc/ast"
	"github.com/sambeau/webcore/pkg/webc/codegen"
	webcerrors "github.com/sambeau/webcore/pkg/webc/errors"
	"github.com/sambeau/webcore/pkg/webc/format"
	"github.com/sambeau/webcore/pkg/webc/formatter"
	"github.com/sambeau/webcore/pkg/webc/lexer"
	"github.com/sambeau/webcore/pkg/webc/parser"
)

const (
	Prompt             = "webc> "
	ContinuationPrompt = "  ... "
)

// snippetPage holds the elements of one input while it is rendered.
const snippetPage = "__repl__"

var keywords = []string{"app", "layout", "page", "component"}

var completionWords = []string{
	"app", "layout", "page", "component", "props", "state", "view", "style",
	"routes", "theme", "slot", "text", "link", "markdown",
	"div", "span", "p", "a", "button", "input", "form", "ul", "ol", "li",
	"h1", "h2", "h3", "header", "footer", "main", "nav", "section", "img",
	"on:click", "on:submit", "on:change", "on:input",
}

// Session is the state of one REPL: the accumulated document and the
// handler counter, which keeps increasing like it does across pages.
type Session struct {
	doc      *ast.Document
	handlers []codegen.HandlerMapping
	seed     int
	pretty   bool
}

// NewSession returns an empty session with pretty printing on.
func NewSession() *Session {
	return &Session{doc: ast.NewDocument(), pretty: true}
}

// Document returns the accumulated definitions.
func (s *Session) Document() *ast.Document {
	return s.doc
}

// Eval compiles one complete input and writes the result to out.
func (s *Session) Eval(input string, out io.Writer) {
	src := input
	if !startsWithKeyword(input) {
		src = "page \"" + snippetPage + "\" { " + input + "\n}"
	}

	snippet, err := parser.Parse(src)
	if err != nil {
		printError(out, err)
		return
	}

	// stray elements after definitions are rendered as well
	var elements []ast.Element
	for _, name := range []string{snippetPage, parser.DefaultPageName} {
		if p, ok := snippet.Pages[name]; ok {
			elements = p.Content
			delete(snippet.Pages, name)
			break
		}
	}

	for _, line := range defined(snippet) {
		fmt.Fprintln(out, line)
	}
	for _, name := range s.doc.Merge(snippet) {
		fmt.Fprintf(out, "(replaced %s)\n", name)
	}

	if len(elements) == 0 {
		return
	}

	res, err := codegen.Fragment(s.doc, elements, codegen.Options{HandlerSeed: s.seed})
	if err != nil {
		printError(out, err)
		return
	}
	s.seed = res.LastHandlerID
	s.handlers = append(s.handlers, res.Handlers...)

	htmlOut := res.HTML
	if s.pretty {
		if pretty, err := formatter.FormatHTML(htmlOut); err == nil {
			htmlOut = pretty
		}
	}
	io.WriteString(out, htmlOut)
	if !strings.HasSuffix(htmlOut, "\n") {
		io.WriteString(out, "\n")
	}
	printHandlers(out, res.Handlers)
}

// Command runs a `:command`. It reports false for quit.
func (s *Session) Command(cmd string, out io.Writer) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "REPL Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :doc            Print the accumulated definitions as .webc source")
		fmt.Fprintln(out, "  :js             Print webcore.js for the handlers so far")
		fmt.Fprintln(out, "  :pretty         Toggle indented HTML output")
		fmt.Fprintln(out, "  :clear          Forget all definitions and handlers")
		fmt.Fprintln(out, "  :quit, exit     Exit the REPL")

	case ":doc":
		src := format.Document(s.doc)
		if src == "" {
			fmt.Fprintln(out, "(no definitions)")
			return true
		}
		io.WriteString(out, src)

	case ":js":
		compiler := codegen.NewExprCompiler(s.doc.StateNames())
		components := make([]*ast.Component, 0, len(s.doc.Components))
		for _, name := range s.doc.ComponentNames() {
			components = append(components, s.doc.Components[name])
		}
		io.WriteString(out, codegen.RuntimeJS(s.handlers, compiler, components))

	case ":pretty":
		s.pretty = !s.pretty
		if s.pretty {
			fmt.Fprintln(out, "Pretty output ON")
		} else {
			fmt.Fprintln(out, "Pretty output OFF")
		}

	case ":clear":
		s.doc = ast.NewDocument()
		s.handlers = nil
		s.seed = 0
		fmt.Fprintln(out, "Session cleared")

	case ":quit", ":q":
		return false

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
	}
	return true
}

// Start runs the interactive loop with line editing and history until
// EOF or exit.
func Start(in io.Reader, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	session := NewSession()
	line.SetCompleter(func(l string) []string {
		return session.complete(l)
	})

	historyFile := filepath.Join(os.TempDir(), ".webc_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintf(out, "webc %s\n", version)
	fmt.Fprintln(out, "Type ':help' for commands, 'exit' or Ctrl+D to quit")
	fmt.Fprintln(out, "")

	var buf strings.Builder
	for {
		prompt := Prompt
		if buf.Len() > 0 {
			prompt = ContinuationPrompt
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if buf.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				}
				buf.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out)
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)
		if buf.Len() == 0 {
			if trimmed == "exit" || trimmed == "quit" {
				return
			}
			if strings.HasPrefix(trimmed, ":") {
				if !session.Command(trimmed, out) {
					return
				}
				continue
			}
			if trimmed == "" {
				continue
			}
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(input)

		full := buf.String()
		if needsMoreInput(full) {
			continue
		}
		line.AppendHistory(full)
		session.Eval(full, out)
		buf.Reset()
	}
}

// complete offers keywords, common tags and the session's component names
// for the word being typed.
func (s *Session) complete(line string) []string {
	if strings.TrimSpace(line) == "" || strings.HasSuffix(line, " ") || strings.HasSuffix(line, "\t") {
		return nil
	}
	words := strings.Fields(line)
	last := words[len(words)-1]
	prefix := line[:len(line)-len(last)]

	candidates := append(append([]string(nil), completionWords...), s.doc.ComponentNames()...)
	var matches []string
	for _, w := range candidates {
		if strings.HasPrefix(w, last) {
			matches = append(matches, prefix+w)
		}
	}
	sort.Strings(matches)
	return matches
}

// needsMoreInput reports whether input has unclosed braces outside of
// strings. Strings have no escapes.
func needsMoreInput(input string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(input); i++ {
		switch ch := input[i]; {
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
		}
	}
	return depth > 0
}

func startsWithKeyword(input string) bool {
	tok := lexer.New(input).NextToken()
	if tok.Type != lexer.IDENT {
		return false
	}
	for _, k := range keywords {
		if tok.Literal == k {
			return true
		}
	}
	return false
}

// defined lists the definitions in a snippet, one "defined ..." line each.
func defined(doc *ast.Document) []string {
	var lines []string
	if doc.App != nil {
		lines = append(lines, "defined app "+doc.App.Name)
	}
	for _, name := range doc.LayoutNames() {
		lines = append(lines, "defined layout "+name)
	}
	for _, name := range doc.ComponentNames() {
		lines = append(lines, "defined component "+name)
	}
	for _, name := range doc.PageNames() {
		lines = append(lines, "defined page "+name)
	}
	return lines
}

func printHandlers(out io.Writer, handlers []codegen.HandlerMapping) {
	if len(handlers) == 0 {
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, h := range handlers {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", h.ID, h.EventType, h.Expression)
	}
	tw.Flush()
}

func printError(out io.Writer, err error) {
	var we *webcerrors.WebcError
	if errors.As(err, &we) {
		io.WriteString(out, we.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "error: %v\n", err)
}
