// Package errors provides structured error types for the webc compiler.
//
// This package defines WebcError, a single error type used by the parser,
// the generator and the build pipeline. Errors carry a stable code, a
// rendered message, optional hints and a source position so that the CLI,
// the dev server and the REPL can all present them the same way.
package errors

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassParse    ErrorClass = "parse"    // Lexer/parser errors
	ClassGenerate ErrorClass = "generate" // HTML/JS generation errors
	ClassConfig   ErrorClass = "config"   // webc.yaml problems
	ClassTheme    ErrorClass = "theme"    // theme.yaml problems
	ClassIO       ErrorClass = "io"       // File operations
	ClassCSS      ErrorClass = "css"      // CSS post-processing
)

// Error codes used across the compiler.
const (
	CodeExpectedToken   = "PARSE-0001"
	CodeUnexpectedToken = "PARSE-0002"
	CodeInvalidSyntax   = "PARSE-0003"

	CodePageNotFound   = "GEN-0001"
	CodeNoLayout       = "GEN-0002"
	CodeComponentCycle = "GEN-0003"

	CodeConfigInvalid = "CONFIG-0001"
	CodeThemeInvalid  = "THEME-0001"
	CodeReadFailed    = "IO-0001"
	CodeWriteFailed   = "IO-0002"
	CodeCSSFailed     = "CSS-0001"
)

// WebcError represents any error raised while compiling a project.
type WebcError struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "PARSE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *WebcError) Error() string {
	return e.String()
}

// Is reports whether target is a WebcError with the same code.
// This lets callers write errors.Is(err, errors.New(CodePageNotFound, nil)).
func (e *WebcError) Is(target error) bool {
	t, ok := target.(*WebcError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// String returns a formatted string representation of the error.
func (e *WebcError) String() string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for terminal display.
func (e *WebcError) PrettyString() string {
	var sb strings.Builder

	switch e.Class {
	case ClassParse:
		sb.WriteString("Syntax error")
	case ClassGenerate:
		sb.WriteString("Generation error")
	case ClassConfig, ClassTheme:
		sb.WriteString("Configuration error")
	default:
		sb.WriteString("Build error")
	}
	if e.Code != "" {
		sb.WriteString(" [")
		sb.WriteString(e.Code)
		sb.WriteString("]")
	}

	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	sb.WriteString(e.Message)

	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *WebcError) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *WebcError) WithFile(file string) *WebcError {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *WebcError) WithPosition(line, column int) *WebcError {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError returns true if this is a parser error.
func (e *WebcError) IsParseError() bool {
	return e.Class == ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	CodeExpectedToken: {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got {{.Got}}",
	},
	CodeUnexpectedToken: {
		Class:    ClassParse,
		Template: "unexpected token {{.Got}}",
	},
	CodeInvalidSyntax: {
		Class:    ClassParse,
		Template: "invalid syntax: {{.Reason}}",
	},

	// ========================================
	// Generation errors (GEN-0xxx)
	// ========================================
	CodePageNotFound: {
		Class:    ClassGenerate,
		Template: "Page '{{.Page}}' not found",
	},
	CodeNoLayout: {
		Class:    ClassGenerate,
		Template: "No layout found (tried MainLayout and default)",
		Hints:    []string{"declare `layout MainLayout { slot content }` in src/layouts/"},
	},
	CodeComponentCycle: {
		Class:    ClassGenerate,
		Template: "component cycle detected: {{.Chain}}",
	},

	// ========================================
	// Project errors
	// ========================================
	CodeConfigInvalid: {
		Class:    ClassConfig,
		Template: "invalid configuration in {{.Path}}: {{.GoError}}",
	},
	CodeThemeInvalid: {
		Class:    ClassTheme,
		Template: "invalid theme file {{.Path}}: {{.GoError}}",
	},
	CodeReadFailed: {
		Class:    ClassIO,
		Template: "failed to read {{.Path}}: {{.GoError}}",
	},
	CodeWriteFailed: {
		Class:    ClassIO,
		Template: "failed to write {{.Path}}: {{.GoError}}",
	},
	CodeCSSFailed: {
		Class:    ClassCSS,
		Template: "css processing failed: {{.GoError}}",
	},
}

// New creates a WebcError from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *WebcError {
	def, ok := ErrorCatalog[code]
	if !ok {
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &WebcError{
			Class:   ClassGenerate,
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	msg := renderTemplate(def.Template, data)

	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &WebcError{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates a WebcError with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *WebcError {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *WebcError {
	return &WebcError{
		Class:   class,
		Message: message,
	}
}

// HasCode reports whether any error in err's chain is a WebcError with code.
func HasCode(err error, code string) bool {
	var we *WebcError
	if !errors.As(err, &we) {
		return false
	}
	return we.Code == code
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// levenshteinDistance computes the edit distance between two strings.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	return prev[len(b)]
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns "" when nothing is within an edit threshold scaled to the input length.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	inputLower := strings.ToLower(input)
	var bestMatch string
	bestDistance := -1
	for _, candidate := range sorted {
		dist := levenshteinDistance(inputLower, strings.ToLower(candidate))
		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	threshold := 1
	if len(input) >= 4 && len(input) <= 6 {
		threshold = 2
	} else if len(input) >= 7 {
		threshold = 3
	}

	if bestDistance <= 0 || bestDistance > threshold {
		return ""
	}
	return bestMatch
}

// NewPageNotFound creates a page-not-found error with a "did you mean" hint.
func NewPageNotFound(name string, available []string) *WebcError {
	err := New(CodePageNotFound, map[string]any{"Page": name})
	if suggestion := FindClosestMatch(name, available); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean '"+suggestion+"'?")
	}
	return err
}
